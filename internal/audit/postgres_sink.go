package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// PostgresSink appends events to the conversation_events and
// recommendation_audit tables. Rows are insert-only; nothing here updates or
// deletes them.
type PostgresSink struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewPostgresSink creates a sink backed by database/sql.
func NewPostgresSink(db *sql.DB, logger *logging.Logger) *PostgresSink {
	if db == nil {
		panic("audit: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresSink{db: db, logger: logger.Component("audit"), now: time.Now}
}

// Record implements Sink.
func (s *PostgresSink) Record(ctx context.Context, sessionID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal audit payload", "error", err, "event_type", eventType)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_events (id, session_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, newEventID("evt"), sessionID, eventType, data, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to record audit event", "error", err, "event_type", eventType, "session_id", sessionID)
	}
}

// RecordRecommendation implements Sink.
func (s *PostgresSink) RecordRecommendation(ctx context.Context, sessionID, providerType, visitReasonCode, rationale, confidence string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendation_audit (id, session_id, recommended_provider_type, visit_reason_code, rationale, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, newEventID("rec"), sessionID, providerType, visitReasonCode, rationale, confidence, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to record recommendation", "error", err, "session_id", sessionID)
	}
}

func newEventID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
