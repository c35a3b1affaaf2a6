package models

import "math"

// RouteMetrics is the one-way route summary produced by a route provider.
// HasToll is what the provider detected on the route; quotes use the caller's
// TripOptions.HasToll instead and keep this flag for display only.
type RouteMetrics struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
	HasToll         bool    `json:"has_toll"`
}

// Usable reports whether the metrics are finite and non-negative.
func (r RouteMetrics) Usable() bool {
	for _, v := range []float64{r.DistanceKm, r.DurationMinutes} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}

	return true
}
