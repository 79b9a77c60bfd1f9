package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/handler"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
)

var _ = Describe("GenerateHandler", func() {
	var (
		router *gin.Engine
		svc    *mockGenerationService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockGenerationService{}
		h := handler.NewGenerateHandler(svc, false)
		router.POST("/api/v1/generate", h.Generate)
	})

	post := func(body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 200 with the generation result", func() {
		svc.generateFn = func(_ context.Context, params service.GenerateParams) (*model.GenerationRecord, error) {
			Expect(params.URL).To(Equal("https://example.com"))
			return &model.GenerationRecord{
				ID:      123456789,
				Summary: "covers the login flow",
				Tests:   []model.TestCase{{Title: "logs in"}},
			}, nil
		}

		w := post(map[string]string{"url": "https://example.com"})

		Expect(w.Code).To(Equal(http.StatusOK))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["id"]).To(Equal("123456789"))
		Expect(resp["summary"]).To(Equal("covers the login flow"))
		Expect(resp["tests"]).To(HaveLen(1))
		Expect(resp).NotTo(HaveKey("_error"))
	})

	It("keeps the error flag on a degraded result", func() {
		svc.generateFn = func(_ context.Context, _ service.GenerateParams) (*model.GenerationRecord, error) {
			return &model.GenerationRecord{
				ID:      1,
				Summary: "partially recovered",
				Tests:   []model.TestCase{},
				Error:   true,
			}, nil
		}

		w := post(map[string]string{"url": "https://example.com"})

		Expect(w.Code).To(Equal(http.StatusOK))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["_error"]).To(Equal(true))
		Expect(resp["tests"]).To(Equal([]any{}))
	})

	It("returns itemized 400 errors for an invalid request", func() {
		w := post(map[string]string{"url": "javascript:alert(1)"})

		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp map[string][]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["errors"]).NotTo(BeEmpty())
	})

	It("returns 400 for a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns the degraded shape on an internal failure", func() {
		svc.generateFn = func(_ context.Context, _ service.GenerateParams) (*model.GenerationRecord, error) {
			return nil, errors.New("boom")
		}

		w := post(map[string]string{"url": "https://example.com"})

		Expect(w.Code).To(Equal(http.StatusInternalServerError))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["_error"]).To(Equal(true))
		Expect(resp["summary"]).NotTo(BeEmpty())
		Expect(resp["tests"]).To(Equal([]any{}))
	})
})
