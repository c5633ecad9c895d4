package reservations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/internal/observability/metrics"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

type recordedEvent struct {
	sessionID string
	eventType string
	payload   map[string]any
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recordingSink) Record(_ context.Context, sessionID, eventType string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{sessionID: sessionID, eventType: eventType, payload: payload})
}

func (s *recordingSink) RecordRecommendation(_ context.Context, sessionID, providerType, visitReasonCode, rationale, confidence string) {
	s.Record(context.Background(), sessionID, "recommendation", map[string]any{
		"provider_type": providerType, "visit_reason_code": visitReasonCode,
	})
}

func (s *recordingSink) byType(eventType string) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedEvent
	for _, e := range s.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *recordingSink) {
	t.Helper()
	store := NewMemoryStore(nil)
	sink := &recordingSink{}
	m := metrics.NewSchedulingMetrics(prometheus.NewRegistry())
	svc := NewService(store, time.Minute, logging.Default(), m, sink)
	return svc, store, sink
}

func TestServiceClaimEmitsAuditEvent(t *testing.T) {
	svc, _, sink := newTestService(t)

	hold, err := svc.Claim(context.Background(), "sess_1", testClaimRequest())
	require.NoError(t, err)

	events := sink.byType(audit.EventHoldCreated)
	require.Len(t, events, 1)
	assert.Equal(t, "sess_1", events[0].sessionID)
	assert.Equal(t, hold.ID, events[0].payload["hold_id"])
}

func TestServiceClaimConflictPropagatesAndSkipsAudit(t *testing.T) {
	svc, _, sink := newTestService(t)

	_, err := svc.Claim(context.Background(), "sess_1", testClaimRequest())
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), "sess_2", testClaimRequest())
	require.ErrorIs(t, err, ErrAlreadyReserved)
	assert.Len(t, sink.byType(audit.EventHoldCreated), 1)
}

func TestServiceConsumeEmitsAuditEvent(t *testing.T) {
	svc, _, sink := newTestService(t)

	hold, err := svc.Claim(context.Background(), "sess_1", testClaimRequest())
	require.NoError(t, err)

	consumed, err := svc.Consume(context.Background(), "sess_1", hold.ID)
	require.NoError(t, err)
	require.NotNil(t, consumed.ConsumedAt)

	events := sink.byType(audit.EventHoldConsumed)
	require.Len(t, events, 1)
	assert.Equal(t, hold.ID, events[0].payload["hold_id"])
}

func TestServiceConsumeErrorsPassThrough(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Consume(context.Background(), "sess_1", "hold_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceSweepReportsReclaimed(t *testing.T) {
	svc, store, sink := newTestService(t)

	current := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	_, err := svc.Claim(context.Background(), "sess_1", testClaimRequest())
	require.NoError(t, err)

	current = current.Add(5 * time.Minute)
	reclaimed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)
	assert.Len(t, sink.byType(audit.EventHoldsSwept), 1)
}

func TestServiceDefaultsTTL(t *testing.T) {
	svc := NewService(NewMemoryStore(nil), 0, nil, nil, nil)
	assert.Equal(t, DefaultHoldTTL, svc.TTL())
}
