package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/middleware"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/ratelimit"
)

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
}

func (s *stubLimiter) Allow(_ context.Context, _ string) (ratelimit.Decision, error) {
	return s.decision, s.err
}

var _ = Describe("RateLimit", func() {
	var limiter *stubLimiter

	newRouter := func() *gin.Engine {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(middleware.RateLimit(limiter))
		router.POST("/generate", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	do := func(router *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("passes allowed requests through", func() {
		limiter = &stubLimiter{decision: ratelimit.Decision{Allowed: true}}

		Expect(do(newRouter()).Code).To(Equal(http.StatusOK))
	})

	It("rejects denied requests with 429 and the reset time", func() {
		resetAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter = &stubLimiter{decision: ratelimit.Decision{Allowed: false, ResetAt: resetAt}}

		w := do(newRouter())

		Expect(w.Code).To(Equal(http.StatusTooManyRequests))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(Equal("rate limit exceeded"))
		Expect(resp["resetTime"]).To(BeNumerically("==", resetAt.UnixMilli()))
	})

	It("fails open when the limiter is unavailable", func() {
		limiter = &stubLimiter{err: errors.New("redis: connection refused")}

		Expect(do(newRouter()).Code).To(Equal(http.StatusOK))
	})
})
