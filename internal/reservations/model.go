// Package reservations implements the slot hold engine: time-boxed exclusive
// claims on appointment slots, their one-shot consumption into bookings, and
// reclamation of lapsed holds.
package reservations

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

var (
	// ErrAlreadyBooked means a confirmed booking occupies the slot.
	ErrAlreadyBooked = errors.New("reservations: slot already booked")
	// ErrAlreadyReserved means another live hold covers the slot.
	ErrAlreadyReserved = errors.New("reservations: slot is currently on hold")
	// ErrNotFound means no hold exists for the given id.
	ErrNotFound = errors.New("reservations: hold not found")
	// ErrAlreadyConsumed means the hold was already turned into a booking.
	ErrAlreadyConsumed = errors.New("reservations: hold already used")
	// ErrExpired means the hold's TTL lapsed before it was consumed.
	ErrExpired = errors.New("reservations: hold expired")
)

// IsConflict reports whether err is one of the slot-contention failures a
// caller resolves by re-querying availability and picking another slot.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyBooked) || errors.Is(err, ErrAlreadyReserved)
}

// Reservation is a time-boxed exclusive claim on one slot. At most one
// non-consumed, non-expired Reservation may exist per slot key. A consumed
// Reservation is terminal: it is never deleted and never reusable.
type Reservation struct {
	ID              string             `json:"id"`
	ProviderID      string             `json:"provider_id"`
	LocationID      string             `json:"location_id"`
	Start           time.Time          `json:"start"`
	End             time.Time          `json:"end"`
	Mode            calendar.VisitMode `json:"mode"`
	VisitReasonCode string             `json:"visit_reason_code"`
	ExpiresAt       time.Time          `json:"expires_at"`
	ConsumedAt      *time.Time         `json:"consumed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Key returns the slot identity the exclusivity invariant is keyed on.
func (r *Reservation) Key() calendar.Key {
	return calendar.Key{ProviderID: r.ProviderID, Start: r.Start, Mode: r.Mode}
}

// ClaimRequest carries the slot identity and intake context for a new hold.
type ClaimRequest struct {
	ProviderID      string
	LocationID      string
	Start           time.Time
	End             time.Time
	Mode            calendar.VisitMode
	VisitReasonCode string
}

// Validate checks the request shape; slot contention is the store's job.
func (req *ClaimRequest) Validate() error {
	if strings.TrimSpace(req.ProviderID) == "" {
		return errors.New("reservations: provider id is required")
	}
	if req.Start.IsZero() {
		return errors.New("reservations: start time is required")
	}
	if !req.Mode.Valid() {
		return errors.New("reservations: unknown visit mode")
	}
	return nil
}

func newHoldID() string {
	return "hold_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
