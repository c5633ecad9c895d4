package reservations

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/internal/directory"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Handler serves the hold claim endpoint.
type Handler struct {
	svc    *Service
	roster directory.Repository
	logger *logging.Logger
}

// NewHandler creates a reservations handler.
func NewHandler(svc *Service, roster directory.Repository, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("reservations: service required")
	}
	if roster == nil {
		panic("reservations: roster required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, roster: roster, logger: logger.Component("reservations")}
}

// CreateHoldRequest is the POST /api/holds body.
type CreateHoldRequest struct {
	SessionID       string    `json:"session_id"`
	ProviderID      string    `json:"provider_id"`
	Start           time.Time `json:"start"`
	Mode            string    `json:"mode"`
	VisitReasonCode string    `json:"visit_reason_code"`
}

// CreateHoldResponse confirms the hold and its expiry.
type CreateHoldResponse struct {
	HoldID     string    `json:"hold_id"`
	ProviderID string    `json:"provider_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Mode       string    `json:"mode"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type conflictResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateHold handles POST /api/holds.
func (h *Handler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.SessionID) < 3 {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	provider, err := h.roster.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("provider lookup failed", "error", err, "provider_id", req.ProviderID)
		http.Error(w, "Failed to place hold", http.StatusInternalServerError)
		return
	}

	mode := calendar.VisitMode(req.Mode)
	if mode == calendar.ModeVirtual && !provider.AcceptsVirtual {
		http.Error(w, "Provider does not offer virtual visits", http.StatusBadRequest)
		return
	}

	claim := ClaimRequest{
		ProviderID:      provider.ID,
		LocationID:      provider.LocationID,
		Start:           req.Start.UTC(),
		End:             req.Start.UTC().Add(calendar.SlotDuration),
		Mode:            mode,
		VisitReasonCode: req.VisitReasonCode,
	}
	if err := claim.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hold, err := h.svc.Claim(ctx, req.SessionID, claim)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyBooked):
			writeJSON(w, http.StatusConflict, conflictResponse{Error: "That time was just booked. Please pick another slot.", Code: "slot_booked"})
		case errors.Is(err, ErrAlreadyReserved):
			writeJSON(w, http.StatusConflict, conflictResponse{Error: "That time is being held by someone else. Please pick another slot.", Code: "slot_held"})
		default:
			h.logger.Error("claim failed", "error", err)
			http.Error(w, "Failed to place hold", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreateHoldResponse{
		HoldID:     hold.ID,
		ProviderID: hold.ProviderID,
		Start:      hold.Start,
		End:        hold.End,
		Mode:       string(hold.Mode),
		ExpiresAt:  hold.ExpiresAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
