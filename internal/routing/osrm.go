package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UnknownOlympus/haulage/internal/models"
	"golang.org/x/time/rate"
)

// OSRMBaseURL is the public OSRM demo server.
const OSRMBaseURL = "https://router.project-osrm.org"

// OSRMRouter implements Router against an OSRM HTTP server (driving profile).
type OSRMRouter struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Server root, without trailing slash
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Optional rate limiter; nil means unlimited
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Legs     []struct {
			Steps []struct {
				Intersections []struct {
					Classes []string `json:"classes"`
				} `json:"intersections"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// NewOSRMRouter creates a router for the OSRM server at baseURL (OSRMBaseURL when empty).
func NewOSRMRouter(baseURL string, rateLimit int, log *slog.Logger) *OSRMRouter {
	const timeout = 10

	var limiter *rate.Limiter
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	return NewOSRMRouterWithClient(&http.Client{Timeout: timeout * time.Second}, baseURL, limiter, log)
}

// NewOSRMRouterWithClient allows injecting a custom HTTP client and limiter.
func NewOSRMRouterWithClient(client HTTPClient, baseURL string, limiter *rate.Limiter, log *slog.Logger) *OSRMRouter {
	if baseURL == "" {
		baseURL = OSRMBaseURL
	}

	return &OSRMRouter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		limiter: limiter,
	}
}

// Route returns one-way driving metrics. Toll segments are detected from the
// "toll" class OSRM attaches to intersections.
func (osr *OSRMRouter) Route(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error) {
	if osr.limiter != nil {
		if err := osr.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit exceeded: %w", ErrRouteUnavailable, err)
		}
	}

	// OSRM takes lon,lat pairs separated by a semicolon.
	reqURL := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false&steps=true",
		osr.baseURL, origin.Longitude, origin.Latitude, destination.Longitude, destination.Latitude)

	osr.log.DebugContext(ctx, "OSRM request URL", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := osr.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute routing request: %w", ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrRouteUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: OSRM rate limit reached", ErrRouteUnavailable)
	}

	var result osrmResponse
	if err = json.Unmarshal(body, &result); err != nil {
		osr.log.ErrorContext(ctx, "OSRM API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: failed to decode OSRM response (status %d): %w",
			ErrRouteUnavailable, resp.StatusCode, err)
	}

	if result.Code != "Ok" || len(result.Routes) == 0 {
		return nil, fmt.Errorf("%w: OSRM returned %q: %s", ErrRouteUnavailable, result.Code, result.Message)
	}

	route := result.Routes[0]
	hasToll := false
	for _, leg := range route.Legs {
		for _, step := range leg.Steps {
			for _, inter := range step.Intersections {
				for _, class := range inter.Classes {
					if class == "toll" {
						hasToll = true
					}
				}
			}
		}
	}

	const (
		metersPerKm      = 1000
		secondsPerMinute = 60
	)

	return &models.RouteMetrics{
		DistanceKm:      route.Distance / metersPerKm,
		DurationMinutes: route.Duration / secondsPerMinute,
		HasToll:         hasToll,
	}, nil
}
