package api

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	loggerKey = "canon_logger"
)

// RequestID assigns every request an id, reusing the caller's when present,
// and stores a request-scoped logger in the gin context.
func RequestID(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(loggerKey, base.With("request_id", id))
		c.Next()
	}
}

// AccessLog logs each request and records its metrics.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		logger(c).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed)
	}
}

// logger returns the request-scoped logger, falling back to the default.
func logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
