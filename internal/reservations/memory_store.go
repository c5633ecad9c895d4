package reservations

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

// MemoryStore keeps holds in process memory behind a single mutex. The mutex
// is the per-key lock realization of the exclusivity invariant: every
// check-and-write runs while it is held, so no interleaving can produce two
// live holds for one slot key.
type MemoryStore struct {
	mu     sync.Mutex
	holds  map[string]*Reservation
	booked BookingChecker
	now    func() time.Time
}

// NewMemoryStore creates an in-memory hold store. booked may be nil when no
// booking repository participates (consumed holds still block their keys).
func NewMemoryStore(booked BookingChecker) *MemoryStore {
	return &MemoryStore{
		holds:  make(map[string]*Reservation),
		booked: booked,
		now:    time.Now,
	}
}

// Claim implements Store.
func (s *MemoryStore) Claim(ctx context.Context, req ClaimRequest, ttl time.Duration) (*Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := calendar.Key{ProviderID: req.ProviderID, Start: req.Start, Mode: req.Mode}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.sweepLocked(now)

	if s.booked != nil {
		isBooked, err := s.booked.IsBooked(ctx, key)
		if err != nil {
			return nil, err
		}
		if isBooked {
			return nil, ErrAlreadyBooked
		}
	}

	for _, h := range s.holds {
		if h.Key().String() != key.String() {
			continue
		}
		if h.ConsumedAt != nil {
			// A consumed hold is a booking in flight (or already confirmed);
			// the slot is permanently occupied.
			return nil, ErrAlreadyBooked
		}
		if h.ExpiresAt.After(now) {
			return nil, ErrAlreadyReserved
		}
	}

	hold := &Reservation{
		ID:              newHoldID(),
		ProviderID:      req.ProviderID,
		LocationID:      req.LocationID,
		Start:           req.Start,
		End:             req.End,
		Mode:            req.Mode,
		VisitReasonCode: req.VisitReasonCode,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
	}
	s.holds[hold.ID] = hold

	return copyReservation(hold), nil
}

// Consume implements Store.
func (s *MemoryStore) Consume(ctx context.Context, id string) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[id]
	if !ok {
		return nil, ErrNotFound
	}
	if hold.ConsumedAt != nil {
		return nil, ErrAlreadyConsumed
	}
	now := s.now().UTC()
	if !hold.ExpiresAt.After(now) {
		return nil, ErrExpired
	}

	hold.ConsumedAt = &now
	return copyReservation(hold), nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now().UTC()), nil
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	reclaimed := 0
	for id, h := range s.holds {
		if h.ConsumedAt == nil && h.ExpiresAt.Before(now) {
			delete(s.holds, id)
			reclaimed++
		}
	}
	return reclaimed
}

func copyReservation(r *Reservation) *Reservation {
	out := *r
	if r.ConsumedAt != nil {
		t := *r.ConsumedAt
		out.ConsumedAt = &t
	}
	return &out
}
