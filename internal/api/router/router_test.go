package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/internal/availability"
	"github.com/carebridge/patient-scheduler/internal/bookings"
	"github.com/carebridge/patient-scheduler/internal/directory"
	"github.com/carebridge/patient-scheduler/internal/intent"
	"github.com/carebridge/patient-scheduler/internal/reservations"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	sink := audit.NopSink{}
	roster := directory.NewSeededRepository()
	bookingRepo := bookings.NewInMemoryRepository()

	store := reservations.NewMemoryStore(bookingRepo)
	holdSvc := reservations.NewService(store, time.Minute, logger, nil, sink)
	bookingSvc := bookings.NewService(bookingRepo, holdSvc, logger, sink)
	availSvc := availability.NewService(bookingRepo, nil, logger)
	dirSvc := directory.NewService(roster, availSvc, logger)

	cfg := &Config{
		Logger:              logger,
		IntentHandler:       intent.NewHandler(logger, sink),
		DirectoryHandler:    directory.NewHandler(dirSvc, logger, 7),
		AvailabilityHandler: availability.NewHandler(availSvc, roster, logger, 7),
		HoldsHandler:        reservations.NewHandler(holdSvc, roster, logger),
		BookingsHandler:     bookings.NewHandler(bookingSvc, roster, logger),
	}
	return New(cfg)
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Equal(t, "ok", resp["status"])
}

func TestRouterSearchIntentEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/search-intent", map[string]string{
		"session_id": "sess_router",
		"message":    "I have a sore throat and a mild fever",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp intent.SearchIntentResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.False(t, resp.Escalate)
	require.Equal(t, "URTI_SORE_THROAT", resp.VisitReasonCode)
	require.Equal(t, "urgent_care", resp.RecommendedProviderType)
}

func TestRouterProvidersEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/providers?provider_type=primary_care", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Providers []directory.ProviderSummary `json:"providers"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Providers)
	for _, p := range resp.Providers {
		require.Equal(t, directory.PrimaryCare, p.ProviderType)
	}
}

// Full booking flow: list availability, hold a slot, watch a competing hold
// lose, finalize, then watch a fresh claim lose permanently.
func TestRouterBookingFlow(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/availability?provider_id=prov_1&date=2026-09-07&mode=in_person", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var avail availability.AvailabilityResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&avail))
	require.NotEmpty(t, avail.Slots)
	slot := avail.Slots[0]

	holdReq := map[string]any{
		"session_id":        "sess_a",
		"provider_id":       slot.ProviderID,
		"start":             slot.Start.Format(time.RFC3339),
		"mode":              string(slot.Mode),
		"visit_reason_code": "PCP_ROUTINE",
	}
	rr = doJSON(t, router, http.MethodPost, "/api/holds", holdReq)
	require.Equal(t, http.StatusCreated, rr.Code)

	var hold reservations.CreateHoldResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&hold))
	require.NotEmpty(t, hold.HoldID)
	require.Equal(t, slot.Start.Add(30*time.Minute), hold.End.UTC())

	// Competing hold on the same slot loses while the first is live.
	holdReq["session_id"] = "sess_b"
	rr = doJSON(t, router, http.MethodPost, "/api/holds", holdReq)
	require.Equal(t, http.StatusConflict, rr.Code)

	var conflict map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&conflict))
	require.Equal(t, "slot_held", conflict["code"])

	rr = doJSON(t, router, http.MethodPost, "/api/appointments", map[string]any{
		"session_id":         "sess_a",
		"hold_id":            hold.HoldID,
		"patient_first_name": "Ada",
		"patient_last_name":  "Lovelace",
		"patient_dob":        "1990-01-01",
		"patient_phone":      "555-0100",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var appt bookings.CreateAppointmentResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&appt))
	require.Equal(t, "confirmed", appt.Status)
	require.Equal(t, slot.ProviderID, appt.ProviderID)

	// The slot is now booked; a fresh claim fails permanently.
	holdReq["session_id"] = "sess_c"
	rr = doJSON(t, router, http.MethodPost, "/api/holds", holdReq)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&conflict))
	require.Equal(t, "slot_booked", conflict["code"])

	// And the booked slot no longer lists as available.
	rr = doJSON(t, router, http.MethodGet, "/api/availability?provider_id=prov_1&date=2026-09-07&mode=in_person", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&avail))
	for _, s := range avail.Slots {
		require.False(t, s.Start.Equal(slot.Start), "booked slot still listed")
	}
}

func TestRouterUnknownProviderHold(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/holds", map[string]any{
		"session_id":  "sess_x",
		"provider_id": "prov_unknown",
		"start":       "2026-09-07T09:00:00Z",
		"mode":        "in_person",
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
}
