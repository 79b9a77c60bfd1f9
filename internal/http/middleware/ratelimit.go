package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/ratelimit"
)

// RateLimit enforces the per-IP sliding window on expensive routes. A limiter
// failure fails open: generation availability beats strict enforcement.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		decision, err := limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			slog.WarnContext(ctx, "rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}

		if !decision.Allowed {
			slog.InfoContext(ctx, "rate limit exceeded", "reset_at", decision.ResetAt)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "rate limit exceeded",
				"resetTime": decision.ResetAt.UnixMilli(),
			})
			return
		}

		c.Next()
	}
}
