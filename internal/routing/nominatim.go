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
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/haulage/internal/models"
	"golang.org/x/time/rate"
)

const (
	// NominatimBaseURL is the public OpenStreetMap search endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/search"
	// userAgent is required by the Nominatim usage policy:
	// https://operations.osmfoundation.org/policies/nominatim/
	userAgent = "Haulage-Quote-Service/1.0 (https://github.com/UnknownOlympus/haulage)"
)

// NominatimGeocoder implements Geocoder using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
// Every request, fallbacks included, waits on the limiter.
type NominatimGeocoder struct {
	client   HTTPClient    // HTTP client for making requests
	baseURL  string        // Base URL for the Nominatim API
	language string        // Accept-Language sent with every request
	log      *slog.Logger  // Logger for logging operations
	limiter  *rate.Limiter // Optional rate limiter; nil means unlimited
}

// nominatimResponse represents the JSON response from Nominatim API.
type nominatimResponse struct {
	Lat         string `json:"lat"`          // Latitude as string
	Lon         string `json:"lon"`          // Longitude as string
	DisplayName string `json:"display_name"` // Full formatted address
}

// ErrNominatimInvalidCoords is returned when Nominatim answers with unparsable coordinates.
var ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")

// NewNominatimGeocoder creates a new Nominatim geocoder using the public endpoint,
// limited to rateLimit requests per second.
func NewNominatimGeocoder(language string, rateLimit int, log *slog.Logger) *NominatimGeocoder {
	const timeout = 10

	var limiter *rate.Limiter
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	return NewNominatimGeocoderWithClient(&http.Client{Timeout: timeout * time.Second}, language, limiter, log)
}

// NewNominatimGeocoderWithClient creates a Nominatim geocoder with a custom HTTP client and limiter.
// Useful for testing with mocked HTTP clients.
func NewNominatimGeocoderWithClient(
	client HTTPClient,
	language string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *NominatimGeocoder {
	return &NominatimGeocoder{
		client:   client,
		baseURL:  NominatimBaseURL,
		language: language,
		log:      log,
		limiter:  limiter,
	}
}

// Geocode converts an address to a location using the Nominatim API.
//
// Uses a progressive fallback strategy for addresses OSM only knows partially:
// 1. Try the full address
// 2. Drop the last comma-separated component (usually the house number)
// 3. Drop the last two components
// 4. Try the first component alone (street or site name)
func (ng *NominatimGeocoder) Geocode(ctx context.Context, address string) (*models.Location, error) {
	ng.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	variations := addressFallbacks(address)

	for idx, variation := range variations {
		loc, err := ng.geocodeSingleAddress(ctx, variation)
		if err == nil {
			if idx > 0 {
				ng.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address,
					"fallback", variation,
					"fallback_level", idx)
			}
			return loc, nil
		}

		// Anything other than "no match" is a service failure and is returned as is.
		if !errors.Is(err, ErrAddressNotFound) {
			return nil, err
		}

		ng.log.DebugContext(ctx, "Address variation returned no results, trying fallback",
			"variation", variation,
			"fallback_level", idx)
	}

	ng.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations_tried", len(variations))

	return nil, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
}

// addressFallbacks creates a list of progressively simpler, unique address variations.
func addressFallbacks(address string) []string {
	seen := make(map[string]bool)
	variations := []string{}

	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	add(strings.TrimSpace(address))

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 1 {
		add(strings.Join(parts[:len(parts)-1], ", "))

		const lenComponents = 2
		if len(parts) > lenComponents {
			add(strings.Join(parts[:len(parts)-2], ", "))
		}

		add(parts[0])
	}

	return variations
}

// geocodeSingleAddress performs a single geocoding request without fallback logic.
func (ng *NominatimGeocoder) geocodeSingleAddress(ctx context.Context, address string) (*models.Location, error) {
	if ng.limiter != nil {
		if err := ng.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	reqURL, err := url.Parse(ng.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("addressdetails", "1")
	if ng.language != "" {
		query.Set("accept-language", ng.language)
	}
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := ng.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		ng.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrAddressNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	name := results[0].DisplayName
	if name == "" {
		name = address
	}

	return &models.Location{
		Address:     name,
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}
