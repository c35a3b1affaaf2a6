package routing

import (
	"errors"
	"fmt"
	"log/slog"
)

// ProviderType represents the mapping backend used for geocoding and routing.
type ProviderType string

const (
	// ProviderTypeGoogle uses Google Maps for both geocoding and directions.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim geocodes with OpenStreetMap Nominatim and routes with OSRM.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeVisicom geocodes with Visicom Maps and routes with OSRM.
	ProviderTypeVisicom ProviderType = "visicom"
)

// ProviderConfig holds configuration for creating a route provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (Google, Visicom)
	RateLimit int          // Requests per second allowed towards the backend
	Language  string       // Preferred language for addresses, e.g. "pt-BR"
	Region    string       // Region bias for Google, e.g. "br"
	OSRMURL   string       // OSRM server root for the OSM based providers
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a route provider based on the provided configuration.
//
// Supported provider types:
// - "google": Google Maps Geocoding and Directions APIs (requires API key)
// - "nominatim": OpenStreetMap Nominatim + OSRM (no API key required)
// - "visicom": Visicom geocoding (requires API key) + OSRM
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config), nil
	case ProviderTypeVisicom:
		return newVisicomProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newGoogleProvider creates a Google Maps provider. The Maps client itself is created on first use.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	return NewLazyGoogleProvider(config.APIKey, config.RateLimit, config.Language, config.Region, config.Logger), nil
}

// newNominatimProvider creates a Nominatim + OSRM provider.
// Both public endpoints ask for at most one request per second.
func newNominatimProvider(config ProviderConfig) Provider {
	const fairUse = 1

	return Combine(
		NewNominatimGeocoder(config.Language, fairUse, config.Logger),
		NewOSRMRouter(config.OSRMURL, fairUse, config.Logger),
	)
}

// newVisicomProvider creates a Visicom + OSRM provider.
func newVisicomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Visicom provider")
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for Visicom API not set, set a default value", "value", config.RateLimit)
	}

	return Combine(
		NewVisicomGeocoder(config.APIKey, config.RateLimit, config.Logger),
		NewOSRMRouter(config.OSRMURL, config.RateLimit, config.Logger),
	), nil
}
