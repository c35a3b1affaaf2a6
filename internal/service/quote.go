package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/UnknownOlympus/haulage/internal/repository"
	"github.com/UnknownOlympus/haulage/internal/routing"
)

var (
	// ErrProviderTimeout is returned when the route provider does not answer within the configured timeout.
	ErrProviderTimeout = errors.New("route provider timed out")
	// ErrGeocodingFailed is returned when the geocoding backend fails for a reason other than an unknown address.
	ErrGeocodingFailed = errors.New("geocoding service failed")
)

// LocationCache remembers resolved addresses.
type LocationCache interface {
	GetLocation(ctx context.Context, query string) (*models.Location, error)
	PutLocation(ctx context.Context, query string, loc models.Location) error
}

// ProfileStore looks up named pricing configurations.
type ProfileStore interface {
	FetchPricingProfile(ctx context.Context, name string) (*models.PricingConfig, error)
}

// RouteCache remembers route metrics between two points.
type RouteCache interface {
	Get(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error)
	Put(ctx context.Context, origin, destination models.Coordinates, metrics models.RouteMetrics) error
}

// Deps are the collaborators of a QuoteService. Locations, Routes and Profiles are optional.
type Deps struct {
	Log           *slog.Logger
	Provider      routing.Provider
	ProviderName  string
	Metrics       *metrics.Metrics
	Locations     LocationCache
	Routes        RouteCache
	Profiles      ProfileStore
	Pricing       models.PricingConfig
	Timeout       time.Duration
	AddressPrefix string
	Workers       int
	Clock         func() time.Time
}

// QuoteService turns two addresses and a pricing configuration into a priced trip.
type QuoteService struct {
	log           *slog.Logger
	provider      routing.Provider
	providerName  string
	metrics       *metrics.Metrics
	locations     LocationCache
	routes        RouteCache
	profiles      ProfileStore
	pricing       models.PricingConfig
	timeout       time.Duration
	addressPrefix string
	numWorkers    int
	now           func() time.Time
}

// NewQuoteService creates a QuoteService. A zero Timeout means 10 seconds, zero Workers means 4.
func NewQuoteService(deps Deps) *QuoteService {
	const (
		defaultTimeout = 10 * time.Second
		defaultWorkers = 4
	)

	svc := &QuoteService{
		log:           deps.Log,
		provider:      deps.Provider,
		providerName:  deps.ProviderName,
		metrics:       deps.Metrics,
		locations:     deps.Locations,
		routes:        deps.Routes,
		profiles:      deps.Profiles,
		pricing:       deps.Pricing,
		timeout:       deps.Timeout,
		addressPrefix: deps.AddressPrefix,
		numWorkers:    deps.Workers,
		now:           deps.Clock,
	}

	if svc.timeout <= 0 {
		svc.timeout = defaultTimeout
	}
	if svc.numWorkers <= 0 {
		svc.numWorkers = defaultWorkers
	}
	if svc.now == nil {
		svc.now = time.Now
	}

	return svc
}

// Endpoint is one end of a trip: either an address to geocode or already known coordinates.
type Endpoint struct {
	Address     string              `json:"address"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

// QuoteRequest describes a trip to price.
// Pricing starts from the service defaults, is replaced by Profile when set, then patched by Overrides.
type QuoteRequest struct {
	Work             Endpoint                `json:"work"`
	Disposal         Endpoint                `json:"disposal"`
	HasToll          bool                    `json:"has_toll"`
	RoundTrip        *bool                   `json:"round_trip,omitempty"`
	ProfitPercentage *float64                `json:"profit_percentage,omitempty"`
	Profile          string                  `json:"profile,omitempty"`
	Overrides        models.PricingOverrides `json:"overrides"`
}

// Options returns the trip options of the request, filling unset fields with the defaults.
func (r QuoteRequest) Options() models.TripOptions {
	opts := pricing.DefaultOptions()
	opts.HasToll = r.HasToll
	if r.RoundTrip != nil {
		opts.RoundTrip = *r.RoundTrip
	}
	if r.ProfitPercentage != nil {
		opts.ProfitPercentage = *r.ProfitPercentage
	}

	return opts
}

// Defaults returns the base pricing configuration of the service.
func (qs *QuoteService) Defaults() models.PricingConfig {
	return qs.pricing
}

// Quote validates the request, resolves both endpoints, routes between them and prices the trip.
// Configuration problems are reported before any provider is contacted. On any failure no quote is returned.
func (qs *QuoteService) Quote(ctx context.Context, req QuoteRequest) (quote *models.Quote, err error) {
	qs.metrics.InFlightQuotes.Inc()
	defer func() {
		qs.metrics.InFlightQuotes.Dec()
		qs.metrics.QuotesComputed.WithLabelValues(outcome(err)).Inc()
	}()

	cfg, err := qs.resolvePricing(ctx, req)
	if err != nil {
		return nil, err
	}

	opts := req.Options()
	if err = pricing.ValidateOptions(opts); err != nil {
		return nil, err
	}

	work, disposal, err := qs.resolveEndpoints(ctx, req.Work, req.Disposal)
	if err != nil {
		return nil, err
	}

	route, err := qs.Route(ctx, work.Coordinates, disposal.Coordinates)
	if err != nil {
		return nil, err
	}

	breakdown := pricing.Quote(*work, *disposal, *route, cfg, opts)
	if !pricing.IsFinite(breakdown) {
		return nil, fmt.Errorf("%w: computation produced a non-finite amount", pricing.ErrConfigurationInvalid)
	}

	qs.metrics.QuoteTotal.Observe(breakdown.TotalCost)
	qs.log.InfoContext(ctx, "Quote computed",
		"work", work.Address,
		"disposal", disposal.Address,
		"distance_km", route.DistanceKm,
		"duration_min", route.DurationMinutes,
		"total", breakdown.TotalCost)

	return &models.Quote{
		Breakdown:        breakdown,
		Route:            *route,
		Pricing:          cfg,
		Options:          opts,
		DriverHourlyRate: pricing.DriverHourlyRate(cfg),
		MonthlyTrips:     pricing.MonthlyTrips(cfg),
		CreatedAt:        qs.now(),
	}, nil
}

func (qs *QuoteService) resolvePricing(ctx context.Context, req QuoteRequest) (models.PricingConfig, error) {
	base := qs.pricing

	if req.Profile != "" {
		if qs.profiles == nil {
			return models.PricingConfig{}, fmt.Errorf("%w: %q (no profile store configured)",
				repository.ErrProfileNotFound, req.Profile)
		}

		profile, err := qs.profiles.FetchPricingProfile(ctx, req.Profile)
		if err != nil {
			return models.PricingConfig{}, err
		}
		base = *profile
	}

	cfg := req.Overrides.Apply(base)
	if err := pricing.Validate(cfg); err != nil {
		return models.PricingConfig{}, err
	}

	return cfg, nil
}

// resolveEndpoints resolves both trip ends concurrently. The first real failure cancels the other lookup.
func (qs *QuoteService) resolveEndpoints(
	ctx context.Context,
	work, disposal Endpoint,
) (*models.Location, *models.Location, error) {
	resolveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wgr  sync.WaitGroup
		locs [2]*models.Location
		errs [2]error
	)

	for idx, ep := range []Endpoint{work, disposal} {
		wgr.Add(1)
		go func() {
			defer wgr.Done()
			locs[idx], errs[idx] = qs.resolveEndpoint(resolveCtx, ep)
			if errs[idx] != nil {
				cancel()
			}
		}()
	}
	wgr.Wait()

	if err := firstCause(ctx, errs[:]); err != nil {
		return nil, nil, err
	}

	return locs[0], locs[1], nil
}

// firstCause picks the error that caused the failure, skipping cancellations triggered by a sibling lookup.
func firstCause(ctx context.Context, errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			if fallback == nil {
				fallback = err
			}
			continue
		}
		return err
	}

	return fallback
}

func (qs *QuoteService) resolveEndpoint(ctx context.Context, ep Endpoint) (*models.Location, error) {
	if ep.Coordinates == nil {
		return qs.ResolveAddress(ctx, ep.Address)
	}

	loc := models.Location{Address: ep.Address, Coordinates: *ep.Coordinates}
	if loc.Address == "" {
		loc.Address = ep.Coordinates.String()
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	return &loc, nil
}

// ResolveAddress turns free-form text into a validated location, consulting the geocode cache first.
func (qs *QuoteService) ResolveAddress(ctx context.Context, text string) (*models.Location, error) {
	text = trimAddress(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty address", routing.ErrAddressNotFound)
	}

	query := qs.addressPrefix + text

	if cached := qs.cachedLocation(ctx, query); cached != nil {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, qs.timeout)
	defer cancel()

	startTime := time.Now()
	loc, err := qs.provider.Geocode(callCtx, query)
	qs.metrics.RequestSeconds.WithLabelValues(qs.providerName, "geocode").Observe(time.Since(startTime).Seconds())

	if err != nil {
		return nil, qs.geocodeError(ctx, callCtx, query, err)
	}

	if err = loc.Validate(); err != nil {
		qs.log.WarnContext(ctx, "Provider returned an unusable location", "query", query, "error", err)
		return nil, fmt.Errorf("%w: %w", routing.ErrAddressNotFound, err)
	}

	if qs.locations != nil {
		if errPut := qs.locations.PutLocation(ctx, query, *loc); errPut != nil {
			qs.log.WarnContext(ctx, "Failed to store location in cache", "query", query, "error", errPut)
		}
	}

	return loc, nil
}

func (qs *QuoteService) cachedLocation(ctx context.Context, query string) *models.Location {
	if qs.locations == nil {
		return nil
	}

	loc, err := qs.locations.GetLocation(ctx, query)
	switch {
	case err != nil:
		qs.metrics.CacheLookups.WithLabelValues("geocode", "error").Inc()
		qs.log.WarnContext(ctx, "Geocode cache lookup failed", "query", query, "error", err)
		return nil
	case loc == nil || loc.Validate() != nil:
		qs.metrics.CacheLookups.WithLabelValues("geocode", "miss").Inc()
		return nil
	default:
		qs.metrics.CacheLookups.WithLabelValues("geocode", "hit").Inc()
		return loc
	}
}

func (qs *QuoteService) geocodeError(ctx, callCtx context.Context, query string, err error) error {
	if errors.Is(err, routing.ErrAddressNotFound) {
		qs.log.InfoContext(ctx, "Address not found", "query", query)
		return err
	}

	// Canceled by the caller or by a failed sibling lookup.
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		qs.log.DebugContext(ctx, "Geocoding canceled", "query", query)
		return err
	}

	qs.metrics.ProviderErrors.WithLabelValues("geocode").Inc()
	qs.log.ErrorContext(ctx, "Failed to geocode", "query", query, "error", err)

	if timedOut(ctx, callCtx) {
		return fmt.Errorf("%w: geocoding %q: %w", ErrProviderTimeout, query, context.DeadlineExceeded)
	}

	return fmt.Errorf("%w: %w", ErrGeocodingFailed, err)
}

// Route returns one-way driving metrics between two valid points, consulting the route cache first.
func (qs *QuoteService) Route(
	ctx context.Context,
	origin, destination models.Coordinates,
) (*models.RouteMetrics, error) {
	if !origin.Valid() || !destination.Valid() {
		return nil, fmt.Errorf("%w: route from %s to %s", models.ErrInvalidLocation, origin, destination)
	}

	if cached := qs.cachedRoute(ctx, origin, destination); cached != nil {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, qs.timeout)
	defer cancel()

	startTime := time.Now()
	route, err := qs.provider.Route(callCtx, origin, destination)
	qs.metrics.RequestSeconds.WithLabelValues(qs.providerName, "route").Observe(time.Since(startTime).Seconds())

	if err != nil {
		qs.metrics.ProviderErrors.WithLabelValues("route").Inc()
		qs.log.ErrorContext(ctx, "Failed to route", "origin", origin.String(), "destination", destination.String(),
			"error", err)

		if timedOut(ctx, callCtx) {
			return nil, fmt.Errorf("%w: routing: %w", ErrProviderTimeout, context.DeadlineExceeded)
		}
		if !errors.Is(err, routing.ErrRouteUnavailable) {
			err = fmt.Errorf("%w: %w", routing.ErrRouteUnavailable, err)
		}
		return nil, err
	}

	if route == nil || !route.Usable() {
		return nil, fmt.Errorf("%w: provider returned unusable metrics", routing.ErrRouteUnavailable)
	}

	if qs.routes != nil {
		if errPut := qs.routes.Put(ctx, origin, destination, *route); errPut != nil {
			qs.log.WarnContext(ctx, "Failed to store route in cache", "error", errPut)
		}
	}

	return route, nil
}

func (qs *QuoteService) cachedRoute(ctx context.Context, origin, destination models.Coordinates) *models.RouteMetrics {
	if qs.routes == nil {
		return nil
	}

	route, err := qs.routes.Get(ctx, origin, destination)
	switch {
	case err != nil:
		qs.metrics.CacheLookups.WithLabelValues("route", "error").Inc()
		qs.log.WarnContext(ctx, "Route cache lookup failed", "error", err)
		return nil
	case route == nil || !route.Usable():
		qs.metrics.CacheLookups.WithLabelValues("route", "miss").Inc()
		return nil
	default:
		qs.metrics.CacheLookups.WithLabelValues("route", "hit").Inc()
		return route
	}
}

// timedOut reports whether the provider call hit its own deadline rather than the caller's.
func timedOut(parent, call context.Context) bool {
	return errors.Is(call.Err(), context.DeadlineExceeded) && parent.Err() == nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, pricing.ErrConfigurationInvalid), errors.Is(err, models.ErrInvalidLocation):
		return "invalid_config"
	case errors.Is(err, repository.ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, routing.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, routing.ErrRouteUnavailable):
		return "route_unavailable"
	case errors.Is(err, ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "failure"
	}
}

// trimAddress collapses runs of whitespace and trims the ends.
func trimAddress(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
