package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/logger"
)

// Probes and scrapers hit these constantly; they are logged at debug.
var quietPaths = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// RequestLogger writes one access line per handled request.
func RequestLogger() gin.HandlerFunc {
	log := logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.With(
			"request_id", c.GetString(api.RequestIDKey),
			"status", status,
			"took", time.Since(start).String(),
			"bytes", c.Writer.Size(),
			"client", c.ClientIP(),
		)
		if q := c.Request.URL.RawQuery; q != "" {
			entry = entry.With("query", q)
		}

		line := c.Request.Method + " " + c.Request.URL.Path
		switch {
		case quietPaths[c.Request.URL.Path]:
			entry.Debug(line)
		case status >= 500:
			entry.Error(line)
		default:
			entry.Info(line)
		}
	}
}

// ErrorLogger reports errors handlers attached with c.Error.
func ErrorLogger() gin.HandlerFunc {
	log := logger.Named("http")

	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			log.Error("handler error",
				"request_id", c.GetString(api.RequestIDKey),
				"path", c.Request.URL.Path,
				"error", err.Err,
			)
		}
	}
}
