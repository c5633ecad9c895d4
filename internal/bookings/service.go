package bookings

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/internal/reservations"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

var bookingsTracer = otel.Tracer("scheduler.internal.bookings")

// HoldConsumer is the slice of the reservation manager the finalizer uses.
type HoldConsumer interface {
	Consume(ctx context.Context, sessionID, holdID string) (*reservations.Reservation, error)
}

// Service finalizes bookings from consumed holds. The consume call is the
// single serialization point: this service never re-checks slot exclusivity.
type Service struct {
	repo   Repository
	holds  HoldConsumer
	logger *logging.Logger
	audit  audit.Sink
}

// NewService constructs a bookings service.
func NewService(repo Repository, holds HoldConsumer, logger *logging.Logger, sink audit.Sink) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if holds == nil {
		panic("bookings: hold consumer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Service{repo: repo, holds: holds, logger: logger.Component("bookings"), audit: sink}
}

// Finalize consumes the hold and writes the confirmed booking carrying over
// the hold's slot identity. Consume failures propagate unchanged so callers
// can distinguish NotFound/AlreadyConsumed/Expired.
func (s *Service) Finalize(ctx context.Context, sessionID, holdID string, patient PatientDetails) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.hold_id", holdID))

	if err := patient.Validate(); err != nil {
		return nil, err
	}

	hold, err := s.holds.Consume(ctx, sessionID, holdID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	booking := &Booking{
		ID:              newBookingID(),
		ProviderID:      hold.ProviderID,
		LocationID:      hold.LocationID,
		Start:           hold.Start,
		End:             hold.End,
		Mode:            hold.Mode,
		VisitReasonCode: hold.VisitReasonCode,
		Patient:         patient,
		Status:          StatusConfirmed,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: persist confirmed booking: %w", err)
	}

	s.logger.Info("booking confirmed", "booking_id", booking.ID, "provider_id", booking.ProviderID, "start", booking.Start)
	s.audit.Record(ctx, sessionID, audit.EventAppointmentBooked, map[string]any{"appointment_id": booking.ID})
	return booking, nil
}
