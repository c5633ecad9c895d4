package bookings

import (
	"context"
	"errors"
	"sync"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

// Repository defines the interface for booking storage
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	IsBooked(ctx context.Context, key calendar.Key) (bool, error)

	// ConfirmedKeys returns the slot keys covered by a confirmed booking for
	// the given providers and mode, keyed by calendar.Key.String().
	ConfirmedKeys(ctx context.Context, providerIDs []string, mode calendar.VisitMode) (map[string]struct{}, error)
}

// ErrBookingNotFound is returned when a booking id is unknown.
var ErrBookingNotFound = errors.New("bookings: booking not found")

// InMemoryRepository stores bookings in process memory.
type InMemoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
	byKey    map[string]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bookings: make(map[string]*Booking),
		byKey:    make(map[string]string),
	}
}

// Create stores a confirmed booking.
func (r *InMemoryRepository) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *b
	r.bookings[b.ID] = &stored
	if b.Status == StatusConfirmed {
		r.byKey[b.Key().String()] = b.ID
	}
	return nil
}

// GetByID retrieves a booking by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	out := *b
	return &out, nil
}

// IsBooked reports whether a confirmed booking covers the slot key.
func (r *InMemoryRepository) IsBooked(ctx context.Context, key calendar.Key) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key.String()]
	return ok, nil
}

// ConfirmedKeys implements Repository.
func (r *InMemoryRepository) ConfirmedKeys(ctx context.Context, providerIDs []string, mode calendar.VisitMode) (map[string]struct{}, error) {
	wanted := make(map[string]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make(map[string]struct{})
	for _, b := range r.bookings {
		if b.Status != StatusConfirmed || b.Mode != mode {
			continue
		}
		if _, ok := wanted[b.ProviderID]; !ok {
			continue
		}
		keys[b.Key().String()] = struct{}{}
	}
	return keys, nil
}
