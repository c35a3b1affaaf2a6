package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/UnknownOlympus/haulage/internal/config"
	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/UnknownOlympus/haulage/internal/routing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const defaultProfit = pricing.DefaultProfitPercentage

// providerFlags select and configure the route provider of the estimate command.
type providerFlags struct {
	kind     string
	apiKey   string
	osrmURL  string
	timeout  time.Duration
	verbose  bool
	language string
}

func (f *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "provider", envOr("HAULAGE_PROVIDER_TYPE", "google"), "google, nominatim or visicom")
	cmd.Flags().StringVar(&f.apiKey, "api-key", os.Getenv("HAULAGE_PROVIDER_KEY"), "Provider API key")
	cmd.Flags().StringVar(&f.osrmURL, "osrm-url", os.Getenv("HAULAGE_OSRM_URL"), "OSRM server for nominatim and visicom")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Upper bound for each provider call")
	cmd.Flags().StringVar(&f.language, "language", envOr("HAULAGE_LANGUAGE", "pt-BR"), "Preferred address language")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log provider traffic to stderr")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func (f tripFlags) request(work, disposal string) service.QuoteRequest {
	roundTrip := !f.oneWay
	profit := f.profit

	return service.QuoteRequest{
		Work:             service.Endpoint{Address: work},
		Disposal:         service.Endpoint{Address: disposal},
		HasToll:          f.toll,
		RoundTrip:        &roundTrip,
		ProfitPercentage: &profit,
	}
}

func runEstimate(
	ctx context.Context,
	out io.Writer,
	work, disposal string,
	trip tripFlags,
	pf providerFlags,
) error {
	cfg, err := config.LoadPricing(trip.pricingFile)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if pf.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	const rateLimit = 5
	provider, err := routing.NewProvider(routing.ProviderConfig{
		Type:      routing.ProviderType(pf.kind),
		APIKey:    pf.apiKey,
		RateLimit: rateLimit,
		Language:  pf.language,
		Region:    "br",
		OSRMURL:   pf.osrmURL,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	svc := service.NewQuoteService(service.Deps{
		Log:          logger,
		Provider:     provider,
		ProviderName: pf.kind,
		Metrics:      metrics.NewMetrics(prometheus.NewRegistry()),
		Pricing:      cfg,
		Timeout:      pf.timeout,
	})

	quote, err := svc.Quote(ctx, trip.request(work, disposal))
	if err != nil {
		return err
	}

	printQuote(out, quote)
	return nil
}

func runCompute(out io.Writer, distance, duration float64, trip tripFlags) error {
	cfg, err := config.LoadPricing(trip.pricingFile)
	if err != nil {
		return err
	}

	route := models.RouteMetrics{DistanceKm: distance, DurationMinutes: duration, HasToll: trip.toll}
	if !route.Usable() {
		return fmt.Errorf("route metrics must be finite and non-negative")
	}

	opts := trip.request("", "").Options()
	if err = pricing.ValidateOptions(opts); err != nil {
		return err
	}

	breakdown := pricing.Compute(route, cfg, opts)
	printQuote(out, &models.Quote{
		Breakdown:        breakdown,
		Route:            route,
		Pricing:          cfg,
		Options:          opts,
		DriverHourlyRate: pricing.DriverHourlyRate(cfg),
		MonthlyTrips:     pricing.MonthlyTrips(cfg),
	})
	return nil
}

func runDefaults(out io.Writer, pricingFile string) error {
	cfg, err := config.LoadPricing(pricingFile)
	if err != nil {
		return err
	}

	printPricing(out, cfg)
	return nil
}
