// Package routing wraps the external mapping services a quote depends on: address geocoding
// and driving routes between two points.
package routing

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/haulage/internal/models"
)

// Failure classes every provider maps its errors onto.
var (
	// ErrAddressNotFound is returned when an address has no geocoding match.
	ErrAddressNotFound = errors.New("address not found")
	// ErrRouteUnavailable is returned when no route could be produced: no path, service error or rate limit.
	ErrRouteUnavailable = errors.New("route unavailable")
)

// Geocoder turns free-text address input into a resolved location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Location, error)
}

// Router returns one-way driving metrics between two coordinates.
type Router interface {
	Route(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error)
}

// Provider is the full route provider used by the quote service.
type Provider interface {
	Geocoder
	Router
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// composite joins a geocoder and a router from different services into one Provider.
type composite struct {
	Geocoder
	Router
}

// Combine returns a Provider that geocodes with g and routes with r.
func Combine(g Geocoder, r Router) Provider {
	return composite{Geocoder: g, Router: r}
}
