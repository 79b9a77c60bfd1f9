package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
)

// Logger records one line per request with the client IP attached to the
// logging context so downstream log lines carry it too.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
			ClientIP: logger.Ptr(c.ClientIP()),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		slog.InfoContext(ctx, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
