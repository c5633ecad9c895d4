// Package availability is the read path: calendar output minus slots covered
// by a confirmed booking. Live holds are intentionally NOT subtracted; a slot
// someone merely holds still lists as available and the contention resolves
// at claim time.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// BookedKeyLister supplies the slot keys occupied by confirmed bookings.
type BookedKeyLister interface {
	ConfirmedKeys(ctx context.Context, providerIDs []string, mode calendar.VisitMode) (map[string]struct{}, error)
}

// Service computes open slot listings.
type Service struct {
	booked BookedKeyLister
	cache  *Cache
	logger *logging.Logger
}

// NewService constructs an availability service. cache may be nil.
func NewService(booked BookedKeyLister, cache *Cache, logger *logging.Logger) *Service {
	if booked == nil {
		panic("availability: booked key lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{booked: booked, cache: cache, logger: logger.Component("availability")}
}

// ListOpenSlots returns candidate slots for the providers over the window,
// minus booked ones, sorted by (start, provider id).
func (s *Service) ListOpenSlots(ctx context.Context, providerIDs []string, start time.Time, days int, mode calendar.VisitMode) ([]calendar.Slot, error) {
	if len(providerIDs) == 0 || days <= 0 {
		return []calendar.Slot{}, nil
	}

	key := cacheKey(providerIDs, start, days, mode)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	candidates := calendar.Generate(providerIDs, start, days, mode)

	bookedKeys, err := s.booked.ConfirmedKeys(ctx, providerIDs, mode)
	if err != nil {
		return nil, err
	}

	open := make([]calendar.Slot, 0, len(candidates))
	for _, slot := range candidates {
		if _, taken := bookedKeys[slot.Key().String()]; taken {
			continue
		}
		open = append(open, slot)
	}

	sort.Slice(open, func(i, j int) bool {
		if !open[i].Start.Equal(open[j].Start) {
			return open[i].Start.Before(open[j].Start)
		}
		return open[i].ProviderID < open[j].ProviderID
	})

	s.cache.Set(ctx, key, open)
	return open, nil
}

// NextOpenSlot returns the earliest open slot for a single provider across
// the given modes, or nil when the window has none. Used for provider
// directory summaries.
func (s *Service) NextOpenSlot(ctx context.Context, providerID string, modes []calendar.VisitMode, start time.Time, days int) (*calendar.Slot, error) {
	var next *calendar.Slot
	for _, mode := range modes {
		open, err := s.ListOpenSlots(ctx, []string{providerID}, start, days, mode)
		if err != nil {
			return nil, err
		}
		if len(open) == 0 {
			continue
		}
		first := open[0]
		if next == nil || first.Start.Before(next.Start) {
			next = &first
		}
	}
	return next, nil
}
