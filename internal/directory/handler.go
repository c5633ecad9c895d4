package directory

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Handler serves the provider roster and typeahead search endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
	days   int
	now    func() time.Time
}

// NewHandler creates a directory handler. days controls how far ahead the
// next-available lookup scans.
func NewHandler(svc *Service, logger *logging.Logger, days int) *Handler {
	if svc == nil {
		panic("directory: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if days <= 0 {
		days = 7
	}
	return &Handler{svc: svc, logger: logger.Component("directory"), days: days, now: time.Now}
}

// ListProviders handles GET /api/providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	providerType := ProviderType(q.Get("provider_type"))
	mode := parseMode(q.Get("mode"))
	limit := parseLimit(q.Get("limit"), 10)

	summaries, err := h.svc.List(r.Context(), providerType, limit, mode, h.startOfToday(), h.days)
	if err != nil {
		h.logger.Error("list providers failed", "error", err)
		http.Error(w, "Failed to list providers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": summaries})
}

// SearchProviders handles GET /api/provider-search.
func (h *Handler) SearchProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	providerType := ProviderType(q.Get("provider_type"))
	mode := parseMode(q.Get("mode"))
	limit := parseLimit(q.Get("limit"), 5)

	result, err := h.svc.Search(r.Context(), query, providerType, limit, mode, h.startOfToday(), h.days)
	if err != nil {
		h.logger.Error("provider search failed", "error", err, "query", query)
		http.Error(w, "Failed to search providers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) startOfToday() time.Time {
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func parseMode(raw string) calendar.VisitMode {
	mode := calendar.VisitMode(raw)
	if !mode.Valid() {
		return calendar.ModeInPerson
	}
	return mode
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 50 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
