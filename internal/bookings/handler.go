package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/patient-scheduler/internal/directory"
	"github.com/carebridge/patient-scheduler/internal/reservations"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Handler serves the appointment finalization endpoint.
type Handler struct {
	svc    *Service
	roster directory.Repository
	logger *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(svc *Service, roster directory.Repository, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("bookings: service required")
	}
	if roster == nil {
		panic("bookings: roster required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, roster: roster, logger: logger.Component("bookings")}
}

// CreateAppointmentRequest is the POST /api/appointments body.
type CreateAppointmentRequest struct {
	SessionID string `json:"session_id"`
	HoldID    string `json:"hold_id"`
	PatientDetails
}

// CreateAppointmentResponse is the confirmed appointment.
type CreateAppointmentResponse struct {
	AppointmentID string    `json:"appointment_id"`
	ProviderID    string    `json:"provider_id"`
	ProviderName  string    `json:"provider_name"`
	LocationName  string    `json:"location_name"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Mode          string    `json:"mode"`
	Status        string    `json:"status"`
}

// CreateAppointment handles POST /api/appointments.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.SessionID) < 3 || req.HoldID == "" {
		http.Error(w, "session_id and hold_id are required", http.StatusBadRequest)
		return
	}
	if err := req.PatientDetails.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	booking, err := h.svc.Finalize(ctx, req.SessionID, req.HoldID, req.PatientDetails)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrNotFound):
			http.Error(w, "Hold not found", http.StatusNotFound)
		case errors.Is(err, reservations.ErrExpired):
			writeError(w, http.StatusConflict, "Your hold expired. Please pick a time again.", "hold_expired")
		case errors.Is(err, reservations.ErrAlreadyConsumed):
			writeError(w, http.StatusConflict, "This hold was already used to book an appointment.", "hold_used")
		default:
			h.logger.Error("finalize failed", "error", err, "hold_id", req.HoldID)
			http.Error(w, "Failed to book appointment", http.StatusInternalServerError)
		}
		return
	}

	resp := CreateAppointmentResponse{
		AppointmentID: booking.ID,
		ProviderID:    booking.ProviderID,
		Start:         booking.Start,
		End:           booking.End,
		Mode:          string(booking.Mode),
		Status:        booking.Status,
	}
	if provider, err := h.roster.GetProvider(ctx, booking.ProviderID); err == nil {
		resp.ProviderName = provider.Name
		if loc, err := h.roster.GetLocation(ctx, provider.LocationID); err == nil {
			resp.LocationName = loc.Name
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
