// Package calendar produces the candidate appointment slots a provider can
// offer over a date range. Slots are derived on every query, never stored.
package calendar

import "time"

// VisitMode distinguishes in-person visits from telehealth.
type VisitMode string

const (
	ModeInPerson VisitMode = "in_person"
	ModeVirtual  VisitMode = "virtual"
)

// Valid reports whether the mode is one of the known visit modes.
func (m VisitMode) Valid() bool {
	return m == ModeInPerson || m == ModeVirtual
}

// Slot is one schedulable (provider, time, mode) interval.
type Slot struct {
	ProviderID string    `json:"provider_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Mode       VisitMode `json:"mode"`
}

// Key identifies a slot for exclusivity checks across holds and bookings.
type Key struct {
	ProviderID string
	Start      time.Time
	Mode       VisitMode
}

// String renders a stable map key. Start is normalized to UTC so two keys
// built from equal instants in different locations compare equal.
func (k Key) String() string {
	return k.ProviderID + "|" + k.Start.UTC().Format(time.RFC3339) + "|" + string(k.Mode)
}

// Key returns the slot's exclusivity key.
func (s Slot) Key() Key {
	return Key{ProviderID: s.ProviderID, Start: s.Start, Mode: s.Mode}
}

const (
	// SlotDuration is the fixed width of every schedulable interval.
	SlotDuration = 30 * time.Minute

	dayStartHour = 9
	dayEndHour   = 17
)

// Generate enumerates slots for each provider over [startDate, startDate+days).
// Weekends are skipped. Weekdays yield 30-minute slots from 09:00, and a slot
// is included only when its end does not pass the 17:00 boundary. Output is
// deterministic and unordered; callers sort if they need ordering.
func Generate(providerIDs []string, startDate time.Time, days int, mode VisitMode) []Slot {
	var slots []Slot
	if len(providerIDs) == 0 || days <= 0 {
		return slots
	}

	day := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	for offset := 0; offset < days; offset++ {
		d := day.AddDate(0, 0, offset)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		cursor := time.Date(d.Year(), d.Month(), d.Day(), dayStartHour, 0, 0, 0, d.Location())
		boundary := time.Date(d.Year(), d.Month(), d.Day(), dayEndHour, 0, 0, 0, d.Location())

		for cursor.Before(boundary) {
			end := cursor.Add(SlotDuration)
			if !end.After(boundary) {
				for _, pid := range providerIDs {
					slots = append(slots, Slot{
						ProviderID: pid,
						Start:      cursor,
						End:        end,
						Mode:       mode,
					})
				}
			}
			cursor = end
		}
	}

	return slots
}
