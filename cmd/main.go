package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/haulage/internal/api"
	"github.com/UnknownOlympus/haulage/internal/cache"
	"github.com/UnknownOlympus/haulage/internal/config"
	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/repository"
	"github.com/UnknownOlympus/haulage/internal/routing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// healthCheck is a named dependency probed by /healthz.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	pricingCfg, err := config.LoadPricing(cfg.PricingFile)
	if err != nil {
		log.Fatalf("Failed to load pricing defaults: %v", err)
	}

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	deps := service.Deps{
		Log:           logger,
		ProviderName:  cfg.ProviderType,
		Metrics:       appMetrics,
		Pricing:       pricingCfg,
		Timeout:       cfg.ProviderTimeout,
		AddressPrefix: cfg.AddrPrefix,
		Workers:       cfg.Workers,
	}
	var checks []healthCheck
	var profiles api.ProfileStore

	// The database backs the geocode cache and the pricing profiles; without it both are disabled.
	if cfg.Database.Enabled() {
		dtb, dbErr := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if dbErr != nil {
			log.Fatalf("Failed to connect to DB: %v", dbErr)
		}
		defer dtb.Close()

		repo := repository.NewRepository(dtb, logger)
		if err = repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare DB schema: %v", err)
		}

		deps.Locations = repo
		deps.Profiles = repo
		profiles = repo
		checks = append(checks, healthCheck{name: "DB", ping: repo.Ping})
	} else {
		logger.WarnContext(ctx, "Database is not configured, geocode cache and pricing profiles are disabled")
	}

	if cfg.RedisAddr != "" {
		rdb, redisErr := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if redisErr != nil {
			log.Fatalf("Failed to connect to Redis: %v", redisErr)
		}
		defer rdb.Close()

		deps.Routes = cache.NewRouteCache(rdb, cfg.RouteCacheTTL)
		checks = append(checks, healthCheck{name: "Redis", ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// Create route provider using factory pattern based on configuration
	// This allows runtime selection between different providers (Google, Visicom, Nominatim)
	deps.Provider, err = routing.NewProvider(routing.ProviderConfig{
		Type:      routing.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Language:  cfg.Language,
		Region:    cfg.Region,
		OSRMURL:   cfg.OSRMURL,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create route provider: %v", err)
	}

	logger.InfoContext(ctx, "Route provider initialized", "type", cfg.ProviderType)

	quotes := service.NewQuoteService(deps)
	server := api.NewServer(api.ServerDeps{
		Log:      logger,
		Resolver: quotes,
		Sessions: service.NewSessions(quotes, appMetrics, cfg.SessionIdleTTL),
		Profiles: profiles,
	})

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, checks, cfg.HealthPort)

	if err = serveAPI(ctx, logger, server.Router(), cfg.HTTPPort); err != nil {
		logger.ErrorContext(ctx, "API server failed", "error", err)
		os.Exit(1)
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// serveAPI runs the quote API until ctx is canceled, then drains in-flight requests.
func serveAPI(ctx context.Context, log *slog.Logger, handler http.Handler, port int) error {
	const (
		readTimeout     = 5 * time.Second
		writeTimeout    = 30 * time.Second
		shutdownTimeout = 15 * time.Second
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "Starting API server", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Log that a shutdown signal has been received.
	log.Info("Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}

	return nil
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - checks: Dependencies that must answer a ping for the service to be healthy.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	checks []healthCheck,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		for _, check := range checks {
			if err := check.ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, check.name+" ping failed"
				break
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
