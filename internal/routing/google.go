package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/UnknownOlympus/haulage/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes and routes through the Google Maps web services.
// The underlying client is created on first use and reused for the lifetime of the provider.
type GoogleProvider struct {
	client   func() (GoogleAPIClient, error) // client returns the shared Google Maps API client
	language string                          // language for formatted addresses and instructions
	region   string                          // ccTLD region bias, e.g. "br"
	log      *slog.Logger                    // log is the logger for logging operations
}

// GoogleAPIClient is the subset of *maps.Client used by the provider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// tollMarkers are substrings Google uses in step instructions and warnings for toll roads.
var tollMarkers = []string{"toll", "pedágio", "peaje"}

// NewGoogleProvider creates a provider around an existing client.
func NewGoogleProvider(client GoogleAPIClient, language, region string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{
		client:   func() (GoogleAPIClient, error) { return client, nil },
		language: language,
		region:   region,
		log:      log,
	}
}

// NewLazyGoogleProvider creates a provider whose Maps client is built on the first request.
// A failed initialization is remembered and returned to every later call.
func NewLazyGoogleProvider(apiKey string, rateLimit int, language, region string, log *slog.Logger) *GoogleProvider {
	connect := sync.OnceValues(func() (GoogleAPIClient, error) {
		clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
		if rateLimit > 0 {
			clientOpts = append(clientOpts, maps.WithRateLimit(rateLimit))
		}

		client, err := maps.NewClient(clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
		}
		log.Debug("Google Maps client initialized")

		return client, nil
	})

	return &GoogleProvider{client: connect, language: language, region: region, log: log}
}

// Geocode resolves an address with the Google Geocoding API and returns the first match.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Location, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	client, err := gp.client()
	if err != nil {
		return nil, err
	}

	req := maps.GeocodingRequest{Address: address, Language: gp.language, Region: gp.region}
	results, err := client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}

	best := results[0]
	formatted := best.FormattedAddress
	if formatted == "" {
		formatted = address
	}

	return &models.Location{
		Address: formatted,
		Coordinates: models.Coordinates{
			Latitude:  best.Geometry.Location.Lat,
			Longitude: best.Geometry.Location.Lng,
		},
	}, nil
}

// Route asks the Directions API for a driving route and sums its legs.
func (gp *GoogleProvider) Route(
	ctx context.Context,
	origin, destination models.Coordinates,
) (*models.RouteMetrics, error) {
	gp.log.DebugContext(ctx, "Routing using Google Maps", "origin", origin.String(), "destination", destination.String())

	client, err := gp.client()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRouteUnavailable, err)
	}

	req := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeDriving,
		Language:    gp.language,
		Region:      gp.region,
	}

	routes, _, err := client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: directions request failed: %w", ErrRouteUnavailable, err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("%w: no route found", ErrRouteUnavailable)
	}

	route := routes[0]
	var meters int
	var minutes float64
	hasToll := mentionsToll(route.Warnings...)

	for _, leg := range route.Legs {
		if leg == nil {
			continue
		}
		meters += leg.Meters
		minutes += leg.Duration.Minutes()
		for _, step := range leg.Steps {
			if step != nil && mentionsToll(step.HTMLInstructions) {
				hasToll = true
			}
		}
	}

	const metersPerKm = 1000

	return &models.RouteMetrics{
		DistanceKm:      float64(meters) / metersPerKm,
		DurationMinutes: minutes,
		HasToll:         hasToll,
	}, nil
}

func mentionsToll(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, marker := range tollMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}

	return false
}
