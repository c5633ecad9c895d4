// Package audit provides the append-only event trail for scheduling sessions.
// Sinks are fire-and-forget: a failing sink logs the problem and swallows it,
// never failing the caller's primary operation.
package audit

import (
	"context"

	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Event types recorded across the scheduling flow.
const (
	EventUserMessage       = "user_message"
	EventAssistantMessage  = "assistant_message"
	EventEscalated         = "escalated"
	EventHoldCreated       = "hold_created"
	EventHoldConsumed      = "hold_consumed"
	EventHoldsSwept        = "holds_swept"
	EventAppointmentBooked = "appointment_booked"
)

// Sink receives lifecycle events for traceability.
type Sink interface {
	// Record appends one event. The payload is a free-form key/value map
	// serialized by the sink.
	Record(ctx context.Context, sessionID, eventType string, payload map[string]any)

	// RecordRecommendation appends a routing-recommendation audit row.
	RecordRecommendation(ctx context.Context, sessionID, providerType, visitReasonCode, rationale, confidence string)
}

// NopSink discards all events. Used in tests and when no store is configured.
type NopSink struct{}

func (NopSink) Record(context.Context, string, string, map[string]any) {}

func (NopSink) RecordRecommendation(context.Context, string, string, string, string, string) {}

// LogSink writes events to the structured log. The default sink when the
// service runs without a database.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger.Component("audit")}
}

func (s *LogSink) Record(_ context.Context, sessionID, eventType string, payload map[string]any) {
	s.logger.Info("audit event", "session_id", sessionID, "event_type", eventType, "payload", payload)
}

func (s *LogSink) RecordRecommendation(_ context.Context, sessionID, providerType, visitReasonCode, rationale, confidence string) {
	s.logger.Info("recommendation recorded",
		"session_id", sessionID,
		"recommended_provider_type", providerType,
		"visit_reason_code", visitReasonCode,
		"rationale", rationale,
		"confidence", confidence,
	)
}
