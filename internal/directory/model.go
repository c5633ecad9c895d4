// Package directory holds the provider and location roster used for care
// routing, search and availability lookups.
package directory

import (
	"context"
	"errors"
)

// ProviderType is the care category a provider belongs to.
type ProviderType string

const (
	PrimaryCare ProviderType = "primary_care"
	UrgentCare  ProviderType = "urgent_care"
	Dermatology ProviderType = "dermatology"
	Orthopedics ProviderType = "orthopedics"
	Cardiology  ProviderType = "cardiology"
	Neurology   ProviderType = "neurology"
)

// SchedulingAccess describes how patients may book with a provider.
type SchedulingAccess string

const (
	OpenScheduling   SchedulingAccess = "open_scheduling"
	DirectScheduling SchedulingAccess = "direct_scheduling"
)

// Provider is one bookable clinician.
type Provider struct {
	ID               string           `json:"provider_id"`
	Name             string           `json:"name"`
	Type             ProviderType     `json:"provider_type"`
	LocationID       string           `json:"location_id"`
	AcceptsVirtual   bool             `json:"accepts_virtual"`
	SchedulingAccess SchedulingAccess `json:"scheduling_access"`
}

// Location is a clinic site.
type Location struct {
	ID       string `json:"location_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Timezone string `json:"timezone"`
}

var (
	// ErrProviderNotFound is returned when a provider id is unknown.
	ErrProviderNotFound = errors.New("directory: provider not found")
	// ErrLocationNotFound is returned when a location id is unknown.
	ErrLocationNotFound = errors.New("directory: location not found")
)

// Repository defines the interface for roster storage.
type Repository interface {
	GetProvider(ctx context.Context, id string) (*Provider, error)
	ListProviders(ctx context.Context, providerType ProviderType) ([]Provider, error)
	GetLocation(ctx context.Context, id string) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
}
