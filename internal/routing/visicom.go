package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/haulage/internal/models"
	"golang.org/x/time/rate"
)

// VisicomBaseURL -- Visicom API base URL.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/en/geocode.json"

// VisicomGeocoder implements Geocoder using the Visicom Data API.
type VisicomGeocoder struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Visicom API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Visicom geocoder.
var (
	ErrVisicomInvalidCoords = errors.New("visicom API returned invalid coordinates")
	ErrVisicomUnauthorized  = errors.New("visicom API unauthorized (invalid API key)")
)

// Visicom API response (simplified for geocoding use-case).
type visicomResponse struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geo_centroid"`
	Properties struct {
		Name       string `json:"name"`
		Settlement string `json:"settlement"`
		Country    string `json:"country"`
	} `json:"properties"`
}

// NewVisicomGeocoder creates a new Visicom geocoder limited to rateLimit requests per second.
func NewVisicomGeocoder(apiKey string, rateLimit int, log *slog.Logger) *VisicomGeocoder {
	const timeout = 10

	return NewVisicomGeocoderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		apiKey,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewVisicomGeocoderWithClient allows injecting custom HTTP client.
func NewVisicomGeocoderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomGeocoder {
	return &VisicomGeocoder{
		client:  client,
		baseURL: VisicomBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Geocode converts address into a location using Visicom API.
func (vg *VisicomGeocoder) Geocode(ctx context.Context, address string) (*models.Location, error) {
	const coordsListLength = 2

	if address == "" {
		return nil, fmt.Errorf("%w: empty address", ErrAddressNotFound)
	}

	if err := vg.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	vg.log.DebugContext(ctx, "Geocoding using Visicom", "address", address)

	reqURL, err := url.Parse(vg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("text", address)
	query.Set("limit", "1")
	query.Set("key", vg.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := vg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrVisicomUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		vg.log.ErrorContext(ctx, "Visicom API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("visicom API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result visicomResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode visicom response: %w", err)
	}

	coords := result.Geometry.Coordinates
	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}

	if len(coords) != coordsListLength {
		return nil, ErrVisicomInvalidCoords
	}

	lon := coords[0]
	lat := coords[1]

	vg.log.InfoContext(ctx, "Visicom found result", "address", address, "lat", lat, "lon", lon)

	return &models.Location{
		Address:     visicomLabel(result, address),
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}

// visicomLabel joins the non-empty name parts of a result, falling back to the query text.
func visicomLabel(result visicomResponse, fallback string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{result.Properties.Name, result.Properties.Settlement, result.Properties.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return fallback
	}

	return strings.Join(parts, ", ")
}
