package reservations

import (
	"context"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

// Store persists holds and enforces the mutual-exclusion invariant. Every
// method is atomic with respect to concurrent callers: for the same slot key
// two concurrent Claims resolve to one success and one conflict error, and
// two concurrent Consumes of the same hold resolve to one success.
type Store interface {
	// Claim sweeps lapsed holds, checks the slot is neither booked nor held,
	// and inserts a new hold expiring after ttl. All of that is one atomic
	// unit against the store.
	Claim(ctx context.Context, req ClaimRequest, ttl time.Duration) (*Reservation, error)

	// Consume marks the hold used exactly once and returns the updated row.
	Consume(ctx context.Context, id string) (*Reservation, error)

	// Sweep deletes every unconsumed hold whose expiry has passed and
	// returns how many were reclaimed.
	Sweep(ctx context.Context) (int, error)
}

// BookingChecker reports whether a confirmed booking occupies a slot key.
// Implemented by the bookings repositories.
type BookingChecker interface {
	IsBooked(ctx context.Context, key calendar.Key) (bool, error)
}
