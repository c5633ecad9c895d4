package reservations

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/internal/observability/metrics"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

var tracer = otel.Tracer("scheduler.internal.reservations")

// DefaultHoldTTL is how long a hold stays claimable when no TTL is configured.
const DefaultHoldTTL = 5 * time.Minute

// Service orchestrates claim/consume/sweep against the store and emits
// logging, metrics and audit events around them. Atomicity lives in the
// store; the service never adds its own locking.
type Service struct {
	store   Store
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
	audit   audit.Sink
}

// NewService constructs a reservation manager.
func NewService(store Store, ttl time.Duration, logger *logging.Logger, m *metrics.SchedulingMetrics, sink audit.Sink) *Service {
	if store == nil {
		panic("reservations: store required")
	}
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Service{store: store, ttl: ttl, logger: logger.Component("reservations"), metrics: m, audit: sink}
}

// TTL returns the configured hold lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Claim places a hold on the requested slot, failing with ErrAlreadyBooked or
// ErrAlreadyReserved when the slot is not obtainable.
func (s *Service) Claim(ctx context.Context, sessionID string, req ClaimRequest) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.claim")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.provider_id", req.ProviderID),
		attribute.String("scheduler.mode", string(req.Mode)),
	)

	started := time.Now()
	hold, err := s.store.Claim(ctx, req, s.ttl)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveClaim(claimStatus(err), time.Since(started).Seconds())
		if IsConflict(err) {
			s.logger.Info("claim rejected", "provider_id", req.ProviderID, "start", req.Start, "mode", req.Mode, "reason", err)
		} else {
			s.logger.Error("claim failed", "error", err, "provider_id", req.ProviderID)
		}
		return nil, err
	}
	s.metrics.ObserveClaim("ok", time.Since(started).Seconds())

	s.logger.Info("hold created", "hold_id", hold.ID, "provider_id", hold.ProviderID, "start", hold.Start, "expires_at", hold.ExpiresAt)
	s.audit.Record(ctx, sessionID, audit.EventHoldCreated, map[string]any{
		"hold_id":     hold.ID,
		"provider_id": hold.ProviderID,
		"start":       hold.Start.Format(time.RFC3339),
	})
	return hold, nil
}

// Consume marks a hold used exactly once. Failures identify why the hold is
// no longer usable and are safe to surface to the caller verbatim.
func (s *Service) Consume(ctx context.Context, sessionID, holdID string) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.consume")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.hold_id", holdID))

	hold, err := s.store.Consume(ctx, holdID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveConsume(consumeStatus(err))
		s.logger.Info("consume rejected", "hold_id", holdID, "reason", err)
		return nil, err
	}
	s.metrics.ObserveConsume("ok")

	s.logger.Info("hold consumed", "hold_id", hold.ID, "provider_id", hold.ProviderID)
	s.audit.Record(ctx, sessionID, audit.EventHoldConsumed, map[string]any{"hold_id": hold.ID})
	return hold, nil
}

// Sweep reclaims lapsed holds. The claim path already sweeps inside its own
// transaction; this entry point exists for operational cleanup.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "reservations.sweep")
	defer span.End()

	reclaimed, err := s.store.Sweep(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("sweep failed", "error", err)
		return 0, err
	}
	s.metrics.ObserveSwept(reclaimed)
	if reclaimed > 0 {
		s.logger.Info("holds swept", "reclaimed", reclaimed)
		s.audit.Record(ctx, "", audit.EventHoldsSwept, map[string]any{"reclaimed": reclaimed})
	}
	return reclaimed, nil
}

func claimStatus(err error) string {
	if IsConflict(err) {
		return "conflict"
	}
	return "error"
}

func consumeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyConsumed):
		return "already_consumed"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
