// Package bookings materializes consumed holds into confirmed appointments.
package bookings

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

// StatusConfirmed is the only booking status in this system; cancellation and
// rescheduling are handled elsewhere.
const StatusConfirmed = "confirmed"

// PatientDetails is the intake information supplied at booking time.
type PatientDetails struct {
	FirstName string `json:"patient_first_name"`
	LastName  string `json:"patient_last_name"`
	DOB       string `json:"patient_dob"`
	Phone     string `json:"patient_phone"`
	Email     string `json:"patient_email,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks required intake fields.
func (p *PatientDetails) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return errors.New("bookings: patient name is required")
	}
	if strings.TrimSpace(p.DOB) == "" {
		return errors.New("bookings: patient date of birth is required")
	}
	if len(strings.TrimSpace(p.Phone)) < 7 {
		return errors.New("bookings: patient phone is required")
	}
	return nil
}

// Booking is a permanent confirmed occupation of a slot. It mirrors the slot
// identity of the hold it descends from but keeps no reference to it.
type Booking struct {
	ID              string             `json:"id"`
	ProviderID      string             `json:"provider_id"`
	LocationID      string             `json:"location_id"`
	Start           time.Time          `json:"start"`
	End             time.Time          `json:"end"`
	Mode            calendar.VisitMode `json:"mode"`
	VisitReasonCode string             `json:"visit_reason_code"`
	Patient         PatientDetails     `json:"patient"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Key returns the slot identity covered by this booking.
func (b *Booking) Key() calendar.Key {
	return calendar.Key{ProviderID: b.ProviderID, Start: b.Start, Mode: b.Mode}
}

func newBookingID() string {
	return "appt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
