package directory

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository serves the roster from process memory.
type InMemoryRepository struct {
	mu        sync.RWMutex
	providers map[string]Provider
	locations map[string]Location
}

// NewInMemoryRepository creates a repository pre-loaded with the given roster.
func NewInMemoryRepository(providers []Provider, locations []Location) *InMemoryRepository {
	r := &InMemoryRepository{
		providers: make(map[string]Provider, len(providers)),
		locations: make(map[string]Location, len(locations)),
	}
	for _, p := range providers {
		r.providers[p.ID] = p
	}
	for _, l := range locations {
		r.locations[l.ID] = l
	}
	return r
}

// NewSeededRepository creates a repository holding the demo roster.
func NewSeededRepository() *InMemoryRepository {
	return NewInMemoryRepository(SeedProviders(), SeedLocations())
}

// GetProvider implements Repository.
func (r *InMemoryRepository) GetProvider(ctx context.Context, id string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return &p, nil
}

// ListProviders implements Repository. An empty providerType lists everyone.
func (r *InMemoryRepository) ListProviders(ctx context.Context, providerType ProviderType) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if providerType != "" && p.Type != providerType {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetLocation implements Repository.
func (r *InMemoryRepository) GetLocation(ctx context.Context, id string) (*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.locations[id]
	if !ok {
		return nil, ErrLocationNotFound
	}
	return &l, nil
}

// ListLocations implements Repository.
func (r *InMemoryRepository) ListLocations(ctx context.Context) ([]Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
