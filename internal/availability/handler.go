package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/internal/directory"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Handler serves open slot listings, joined against the provider roster.
type Handler struct {
	svc     *Service
	roster  directory.Repository
	logger  *logging.Logger
	daysMax int
	now     func() time.Time
}

// NewHandler creates an availability handler.
func NewHandler(svc *Service, roster directory.Repository, logger *logging.Logger, daysMax int) *Handler {
	if svc == nil {
		panic("availability: service required")
	}
	if roster == nil {
		panic("availability: roster required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if daysMax <= 0 {
		daysMax = 7
	}
	return &Handler{svc: svc, roster: roster, logger: logger.Component("availability"), daysMax: daysMax, now: time.Now}
}

// SlotView is one open slot annotated with roster details.
type SlotView struct {
	ProviderID   string             `json:"provider_id"`
	ProviderName string             `json:"provider_name"`
	LocationID   string             `json:"location_id"`
	LocationName string             `json:"location_name"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Mode         calendar.VisitMode `json:"mode"`
}

// AvailabilityResponse is the GET /api/availability body.
type AvailabilityResponse struct {
	Slots []SlotView `json:"slots"`
}

// ListSlots handles GET /api/availability. Either provider_id or
// provider_type selects the candidate providers.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	mode := calendar.VisitMode(q.Get("mode"))
	if mode == "" {
		mode = calendar.ModeInPerson
	}
	if !mode.Valid() {
		http.Error(w, "mode must be in_person or virtual", http.StatusBadRequest)
		return
	}

	start, err := h.parseStart(q.Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	days := h.daysMax
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		if n < days {
			days = n
		}
	}

	providers, err := h.resolveProviders(ctx, q.Get("provider_id"), q.Get("provider_type"), mode)
	if err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			http.Error(w, "Provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("resolve providers failed", "error", err)
		http.Error(w, "Failed to load providers", http.StatusInternalServerError)
		return
	}
	if len(providers) == 0 {
		writeJSON(w, http.StatusOK, AvailabilityResponse{Slots: []SlotView{}})
		return
	}

	ids := make([]string, len(providers))
	byID := make(map[string]directory.Provider, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	open, err := h.svc.ListOpenSlots(ctx, ids, start, days, mode)
	if err != nil {
		h.logger.Error("list open slots failed", "error", err)
		http.Error(w, "Failed to load availability", http.StatusInternalServerError)
		return
	}

	locationNames := make(map[string]string)
	views := make([]SlotView, 0, len(open))
	for _, slot := range open {
		p := byID[slot.ProviderID]
		name, ok := locationNames[p.LocationID]
		if !ok {
			loc, err := h.roster.GetLocation(ctx, p.LocationID)
			if err == nil {
				name = loc.Name
			}
			locationNames[p.LocationID] = name
		}
		views = append(views, SlotView{
			ProviderID:   slot.ProviderID,
			ProviderName: p.Name,
			LocationID:   p.LocationID,
			LocationName: name,
			Start:        slot.Start,
			End:          slot.End,
			Mode:         slot.Mode,
		})
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Slots: views})
}

func (h *Handler) resolveProviders(ctx context.Context, providerID, providerType string, mode calendar.VisitMode) ([]directory.Provider, error) {
	if providerID != "" {
		p, err := h.roster.GetProvider(ctx, providerID)
		if err != nil {
			return nil, err
		}
		return []directory.Provider{*p}, nil
	}
	providers, err := h.roster.ListProviders(ctx, directory.ProviderType(providerType))
	if err != nil {
		return nil, err
	}
	if mode == calendar.ModeVirtual {
		virtual := providers[:0]
		for _, p := range providers {
			if p.AcceptsVirtual {
				virtual = append(virtual, p)
			}
		}
		providers = virtual
	}
	return providers, nil
}

func (h *Handler) parseStart(raw string) (time.Time, error) {
	if raw == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
