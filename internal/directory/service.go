package directory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/carebridge/patient-scheduler/internal/calendar"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// SlotFinder is the slice of the availability service the directory needs.
type SlotFinder interface {
	NextOpenSlot(ctx context.Context, providerID string, modes []calendar.VisitMode, start time.Time, days int) (*calendar.Slot, error)
}

// ProviderSummary is a roster entry annotated with its next open slot.
type ProviderSummary struct {
	ProviderID         string              `json:"provider_id"`
	Name               string              `json:"name"`
	ProviderType       ProviderType        `json:"provider_type"`
	AcceptsVirtual     bool                `json:"accepts_virtual"`
	SchedulingAccess   SchedulingAccess    `json:"scheduling_access"`
	LocationName       string              `json:"location_name"`
	LocationCity       string              `json:"location_city"`
	LocationState      string              `json:"location_state"`
	NextAvailableStart *time.Time          `json:"next_available_start,omitempty"`
	NextAvailableMode  *calendar.VisitMode `json:"next_available_mode,omitempty"`
	AvailabilityLabel  string              `json:"availability_label,omitempty"`
}

// SearchResult holds direct matches plus near-miss suggestions.
type SearchResult struct {
	Providers   []ProviderSummary `json:"providers"`
	Suggestions []ProviderSummary `json:"suggestions"`
}

// Service builds provider listings and typeahead search results.
type Service struct {
	repo   Repository
	slots  SlotFinder
	logger *logging.Logger
}

// NewService constructs a directory service.
func NewService(repo Repository, slots SlotFinder, logger *logging.Logger) *Service {
	if repo == nil {
		panic("directory: repository required")
	}
	if slots == nil {
		panic("directory: slot finder required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, slots: slots, logger: logger.Component("directory")}
}

// List returns summaries for providers of the given type, soonest next slot
// first.
func (s *Service) List(ctx context.Context, providerType ProviderType, limit int, mode calendar.VisitMode, start time.Time, days int) ([]ProviderSummary, error) {
	providers, err := s.repo.ListProviders(ctx, providerType)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(providers) > limit {
		providers = providers[:limit]
	}
	return s.summarize(ctx, providers, mode, start, days)
}

// Search performs a typeahead lookup: substring matches on the full name
// first, then last-name prefix candidates as suggestions.
func (s *Service) Search(ctx context.Context, query string, providerType ProviderType, limit int, mode calendar.VisitMode, start time.Time, days int) (*SearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return &SearchResult{Providers: []ProviderSummary{}, Suggestions: []ProviderSummary{}}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	providers, err := s.repo.ListProviders(ctx, providerType)
	if err != nil {
		return nil, err
	}

	var direct []Provider
	for _, p := range providers {
		if strings.Contains(strings.ToLower(p.Name), normalized) {
			direct = append(direct, p)
			if len(direct) == limit {
				break
			}
		}
	}

	var suggestions []Provider
	if len(direct) < limit {
		inDirect := make(map[string]struct{}, len(direct))
		for _, p := range direct {
			inDirect[p.ID] = struct{}{}
		}

		candidates := matchLastNames(providers, normalized)
		for _, p := range candidates {
			if _, ok := inDirect[p.ID]; ok {
				continue
			}
			suggestions = append(suggestions, p)
			if len(suggestions) == limit-len(direct) {
				break
			}
		}
	}

	directSummaries, err := s.summarize(ctx, direct, mode, start, days)
	if err != nil {
		return nil, err
	}
	suggestionSummaries, err := s.summarize(ctx, suggestions, mode, start, days)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Providers: directSummaries, Suggestions: suggestionSummaries}, nil
}

// matchLastNames prefers prefix matches on the last name for typeahead
// behavior, falling back to close misspellings.
func matchLastNames(providers []Provider, normalized string) []Provider {
	var prefix []Provider
	for _, p := range providers {
		if strings.HasPrefix(lastName(p.Name), normalized) {
			prefix = append(prefix, p)
		}
	}
	if len(prefix) > 0 {
		return prefix
	}

	var close []Provider
	for _, p := range providers {
		if editDistance(lastName(p.Name), normalized) <= 2 {
			close = append(close, p)
		}
	}
	return close
}

func lastName(full string) string {
	parts := strings.Fields(strings.ToLower(full))
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// editDistance is the Levenshtein distance between two short strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func (s *Service) summarize(ctx context.Context, providers []Provider, mode calendar.VisitMode, start time.Time, days int) ([]ProviderSummary, error) {
	if len(providers) == 0 {
		return []ProviderSummary{}, nil
	}

	type ranked struct {
		sortKey time.Time
		summary ProviderSummary
	}
	summaries := make([]ranked, 0, len(providers))

	for _, p := range providers {
		loc, err := s.repo.GetLocation(ctx, p.LocationID)
		if err != nil {
			s.logger.Warn("provider has unknown location", "provider_id", p.ID, "location_id", p.LocationID)
			continue
		}

		modes := modeChoices(p, mode)
		next, err := s.slots.NextOpenSlot(ctx, p.ID, modes, start, days)
		if err != nil {
			return nil, err
		}

		summary := ProviderSummary{
			ProviderID:       p.ID,
			Name:             p.Name,
			ProviderType:     p.Type,
			AcceptsVirtual:   p.AcceptsVirtual,
			SchedulingAccess: p.SchedulingAccess,
			LocationName:     loc.Name,
			LocationCity:     loc.City,
			LocationState:    loc.State,
		}

		sortKey := maxTime
		if next != nil {
			startCopy := next.Start
			modeCopy := next.Mode
			summary.NextAvailableStart = &startCopy
			summary.NextAvailableMode = &modeCopy
			summary.AvailabilityLabel = availabilityLabel(next)
			sortKey = next.Start
		}
		summaries = append(summaries, ranked{sortKey: sortKey, summary: summary})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].sortKey.Equal(summaries[j].sortKey) {
			return summaries[i].sortKey.Before(summaries[j].sortKey)
		}
		return summaries[i].summary.Name < summaries[j].summary.Name
	})

	out := make([]ProviderSummary, len(summaries))
	for i, r := range summaries {
		out[i] = r.summary
	}
	return out, nil
}

// maxTime sorts providers with no open slot to the end.
var maxTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

func modeChoices(p Provider, requested calendar.VisitMode) []calendar.VisitMode {
	if requested != "" {
		return []calendar.VisitMode{requested}
	}
	modes := []calendar.VisitMode{calendar.ModeInPerson}
	if p.AcceptsVirtual {
		modes = append(modes, calendar.ModeVirtual)
	}
	return modes
}

func availabilityLabel(slot *calendar.Slot) string {
	modeLabel := "In person"
	if slot.Mode == calendar.ModeVirtual {
		modeLabel = "Virtual"
	}
	return "Next: " + slot.Start.Format("Mon 3:04 PM") + " (" + modeLabel + ")"
}
