package intent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

const notMedicalAdvice = "This tool provides scheduling assistance only and is not medical advice."

// Handler handles HTTP requests for intent search and care options.
type Handler struct {
	logger *logging.Logger
	audit  audit.Sink
}

// NewHandler creates an intent handler.
func NewHandler(logger *logging.Logger, sink audit.Sink) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Handler{logger: logger.Component("intent"), audit: sink}
}

// SearchIntentRequest is the POST /api/search-intent body.
type SearchIntentRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SearchIntentResponse is the routing recommendation or escalation.
type SearchIntentResponse struct {
	Escalate                bool       `json:"escalate"`
	SafetyMessage           string     `json:"safety_message,omitempty"`
	NotMedicalAdvice        string     `json:"not_medical_advice"`
	VisitReasonCode         string     `json:"visit_reason_code,omitempty"`
	VisitReasonLabel        string     `json:"visit_reason_label,omitempty"`
	RecommendedProviderType string     `json:"recommended_provider_type,omitempty"`
	Confidence              Confidence `json:"confidence,omitempty"`
	FollowUpQuestions       []string   `json:"follow_up_questions"`
}

// SearchIntent handles POST /api/search-intent.
func (h *Handler) SearchIntent(w http.ResponseWriter, r *http.Request) {
	var req SearchIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.SessionID) < 3 || strings.TrimSpace(req.Message) == "" {
		http.Error(w, "session_id and message are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	h.audit.Record(ctx, req.SessionID, audit.EventUserMessage, map[string]any{"text": req.Message})

	if safety, flagged := DetectRedFlags(req.Message); flagged {
		msg := safety + " If you think this may be an emergency, call 911 or go to the nearest ER."
		h.audit.Record(ctx, req.SessionID, audit.EventEscalated, map[string]any{"reason": "red_flag", "message": msg})
		writeJSON(w, http.StatusOK, SearchIntentResponse{
			Escalate:          true,
			SafetyMessage:     msg,
			NotMedicalAdvice:  notMedicalAdvice,
			FollowUpQuestions: []string{},
		})
		return
	}

	mapped := MapIntent(req.Message)
	rationale := fmt.Sprintf("Mapped symptoms to visit_reason_code=%s and suggested %s.", mapped.VisitReasonCode, mapped.RecommendedProviderType)
	h.audit.RecordRecommendation(ctx, req.SessionID, mapped.RecommendedProviderType, mapped.VisitReasonCode, rationale, string(mapped.Confidence))

	assistantText := fmt.Sprintf("I can help you schedule for %s. Choose a care type and then pick a time.", mapped.VisitReasonLabel)
	h.audit.Record(ctx, req.SessionID, audit.EventAssistantMessage, map[string]any{"text": assistantText})

	writeJSON(w, http.StatusOK, SearchIntentResponse{
		Escalate:                false,
		NotMedicalAdvice:        notMedicalAdvice,
		VisitReasonCode:         mapped.VisitReasonCode,
		VisitReasonLabel:        mapped.VisitReasonLabel,
		RecommendedProviderType: mapped.RecommendedProviderType,
		Confidence:              mapped.Confidence,
		FollowUpQuestions:       FollowUpQuestions(mapped.Confidence),
	})
}

// CareOption is one selectable care category.
type CareOption struct {
	ProviderType string `json:"provider_type"`
	Label        string `json:"label"`
	Suggested    bool   `json:"suggested"`
}

// CareOptionsResponse lists care categories with the recommended one flagged.
type CareOptionsResponse struct {
	Options []CareOption `json:"options"`
}

var careOptionLabels = []CareOption{
	{ProviderType: "urgent_care", Label: "Urgent Care (same-day / acute)"},
	{ProviderType: "primary_care", Label: "Primary Care (ongoing / general)"},
	{ProviderType: "dermatology", Label: "Dermatology (skin)"},
	{ProviderType: "orthopedics", Label: "Orthopedics (bones/joints)"},
	{ProviderType: "cardiology", Label: "Cardiology (heart health)"},
	{ProviderType: "neurology", Label: "Neurology (brain & nerves)"},
}

// CareOptions handles GET /api/care-options.
func (h *Handler) CareOptions(w http.ResponseWriter, r *http.Request) {
	visitReasonCode := r.URL.Query().Get("visit_reason_code")
	recommended := r.URL.Query().Get("recommended_provider_type")
	if visitReasonCode == "GENERIC_TRIAGE" {
		recommended = "primary_care"
	}

	options := make([]CareOption, len(careOptionLabels))
	for i, opt := range careOptionLabels {
		opt.Suggested = opt.ProviderType == recommended
		options[i] = opt
	}
	writeJSON(w, http.StatusOK, CareOptionsResponse{Options: options})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
