package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs method, path, status and duration of every request.
// Server errors are logged at error level, client errors at warn level.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.RequestURI(),
			"status", status,
			"bytes", c.Writer.Size(),
			"dur_ms", time.Since(start).Milliseconds(),
		}
		if session := c.GetHeader(SessionHeader); session != "" {
			attrs = append(attrs, "session", session)
		}

		switch {
		case status >= 500:
			log.ErrorContext(c.Request.Context(), "HTTP request", attrs...)
		case status >= 400:
			log.WarnContext(c.Request.Context(), "HTTP request", attrs...)
		default:
			log.InfoContext(c.Request.Context(), "HTTP request", attrs...)
		}
	}
}
