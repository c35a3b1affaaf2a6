package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/UnknownOlympus/haulage/internal/repository"
	"github.com/UnknownOlympus/haulage/internal/routing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeUnavailable = "unavailable"
)

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code})
}

// statusFor maps a service error to its HTTP status and a stable machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pricing.ErrConfigurationInvalid), errors.Is(err, models.ErrInvalidLocation):
		return http.StatusBadRequest, "configuration_invalid"
	case errors.Is(err, repository.ErrProfileNotFound):
		return http.StatusNotFound, "profile_not_found"
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict, "superseded"
	case errors.Is(err, routing.ErrAddressNotFound):
		return http.StatusUnprocessableEntity, "address_not_found"
	case errors.Is(err, service.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "provider_timeout"
	case errors.Is(err, routing.ErrRouteUnavailable), errors.Is(err, service.ErrGeocodingFailed):
		return http.StatusBadGateway, "provider_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeServiceError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		writeJSON(c, status, errorResponse{Error: "internal error", Code: code})
		return
	}

	writeJSON(c, status, errorResponse{Error: err.Error(), Code: code})
}
