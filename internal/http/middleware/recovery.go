package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery converts panics into the fixed degraded-generation body so clients
// always receive a parseable result shape, even on a crash.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", r,
					"path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"summary": "Test generation failed unexpectedly.",
					"tests":   []any{},
					"_error":  true,
				})
			}
		}()
		c.Next()
	}
}
