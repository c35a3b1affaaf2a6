// Package api exposes the quote service over HTTP with gin.
package api

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/gin-gonic/gin"
)

// SessionHeader carries the caller's session key. Quotes sent with the same key supersede each other.
const SessionHeader = "X-Session-ID"

// Resolver is the part of the quote service behind the lookup endpoints.
type Resolver interface {
	ResolveAddress(ctx context.Context, text string) (*models.Location, error)
	Route(ctx context.Context, origin, destination models.Coordinates) (*models.RouteMetrics, error)
	ResolveBatch(ctx context.Context, addresses []string) []service.BatchResult
	Defaults() models.PricingConfig
}

// SessionQuoter prices trips on behalf of sessions.
type SessionQuoter interface {
	Quote(ctx context.Context, key string, req service.QuoteRequest) (*models.Quote, error)
	Last(key string) (*models.Quote, bool)
	Forget(key string)
}

// ProfileStore keeps named pricing profiles.
type ProfileStore interface {
	ListPricingProfiles(ctx context.Context) ([]string, error)
	FetchPricingProfile(ctx context.Context, name string) (*models.PricingConfig, error)
	SavePricingProfile(ctx context.Context, name string, cfg models.PricingConfig) error
}

// ServerDeps are the collaborators of the HTTP server. Profiles is optional.
type ServerDeps struct {
	Log      *slog.Logger
	Resolver Resolver
	Sessions SessionQuoter
	Profiles ProfileStore
	MaxBatch int
}

// Server serves the quote API.
type Server struct {
	log      *slog.Logger
	resolver Resolver
	sessions SessionQuoter
	profiles ProfileStore
	maxBatch int
}

// NewServer creates a Server. A zero MaxBatch allows up to 100 addresses per batch request.
func NewServer(deps ServerDeps) *Server {
	const defaultMaxBatch = 100

	srv := &Server{
		log:      deps.Log,
		resolver: deps.Resolver,
		sessions: deps.Sessions,
		profiles: deps.Profiles,
		maxBatch: deps.MaxBatch,
	}
	if srv.maxBatch <= 0 {
		srv.maxBatch = defaultMaxBatch
	}

	return srv
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/quotes", s.createQuote)
		v1.GET("/quotes/last", s.lastQuote)
		v1.DELETE("/quotes/session", s.forgetSession)

		v1.GET("/geocode", s.geocode)
		v1.POST("/geocode/batch", s.geocodeBatch)
		v1.POST("/routes", s.route)

		v1.GET("/pricing/defaults", s.pricingDefaults)
		v1.GET("/pricing/profiles", s.pricingProfiles)
		v1.GET("/pricing/profiles/:name", s.pricingProfile)
		v1.PUT("/pricing/profiles/:name", s.savePricingProfile)
	}

	return router
}
