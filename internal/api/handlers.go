package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/gin-gonic/gin"
)

type routeRequest struct {
	Origin      *models.Coordinates `json:"origin"`
	Destination *models.Coordinates `json:"destination"`
}

type batchRequest struct {
	Addresses []string `json:"addresses"`
}

func (s *Server) createQuote(c *gin.Context) {
	var req service.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	quote, err := s.sessions.Quote(c.Request.Context(), c.GetHeader(SessionHeader), req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, quote)
}

func (s *Server) lastQuote(c *gin.Context) {
	key := c.GetHeader(SessionHeader)
	if key == "" {
		writeError(c, http.StatusBadRequest, codeBadRequest, "missing "+SessionHeader+" header")
		return
	}

	quote, ok := s.sessions.Last(key)
	if !ok {
		writeError(c, http.StatusNotFound, codeNotFound, "no quote for this session")
		return
	}

	writeJSON(c, http.StatusOK, quote)
}

func (s *Server) forgetSession(c *gin.Context) {
	key := c.GetHeader(SessionHeader)
	if key == "" {
		writeError(c, http.StatusBadRequest, codeBadRequest, "missing "+SessionHeader+" header")
		return
	}

	s.sessions.Forget(key)
	c.Status(http.StatusNoContent)
}

func (s *Server) geocode(c *gin.Context) {
	loc, err := s.resolver.ResolveAddress(c.Request.Context(), c.Query("address"))
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, loc)
}

func (s *Server) geocodeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Addresses) == 0 || len(req.Addresses) > s.maxBatch {
		writeError(c, http.StatusBadRequest, codeBadRequest,
			fmt.Sprintf("addresses must hold between 1 and %d entries", s.maxBatch))
		return
	}

	writeJSON(c, http.StatusOK, gin.H{"results": s.resolver.ResolveBatch(c.Request.Context(), req.Addresses)})
}

func (s *Server) route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Origin == nil || req.Destination == nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "origin and destination are required")
		return
	}

	metrics, err := s.resolver.Route(c.Request.Context(), *req.Origin, *req.Destination)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, metrics)
}

func (s *Server) pricingDefaults(c *gin.Context) {
	writeJSON(c, http.StatusOK, s.resolver.Defaults())
}

func (s *Server) pricingProfiles(c *gin.Context) {
	if s.profiles == nil {
		writeJSON(c, http.StatusOK, gin.H{"profiles": []string{}})
		return
	}

	names, err := s.profiles.ListPricingProfiles(c.Request.Context())
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, gin.H{"profiles": names})
}

func (s *Server) pricingProfile(c *gin.Context) {
	if s.profiles == nil {
		writeError(c, http.StatusNotFound, codeNotFound, "no profile store configured")
		return
	}

	cfg, err := s.profiles.FetchPricingProfile(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, cfg)
}

// savePricingProfile stores a named profile. Fields missing from the body keep the service defaults.
func (s *Server) savePricingProfile(c *gin.Context) {
	if s.profiles == nil {
		writeError(c, http.StatusServiceUnavailable, codeUnavailable, "no profile store configured")
		return
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		writeError(c, http.StatusBadRequest, codeBadRequest, "profile name is required")
		return
	}

	cfg := s.resolver.Defaults()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeError(c, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := pricing.Validate(cfg); err != nil {
		s.writeServiceError(c, err)
		return
	}

	if err := s.profiles.SavePricingProfile(c.Request.Context(), name, cfg); err != nil {
		s.writeServiceError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, gin.H{"name": name, "pricing": cfg})
}
