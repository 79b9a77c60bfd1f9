package handler_test

import (
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
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/store"
)

var _ = Describe("HistoryHandler", func() {
	var (
		router *gin.Engine
		svc    *mockGenerationService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockGenerationService{}
		h := handler.NewHistoryHandler(svc)
		router.GET("/api/v1/generations", h.List)
		router.GET("/api/v1/generations/:id", h.Get)
	})

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("List", func() {
		It("defaults the limit to 20", func() {
			var gotLimit int32
			svc.historyFn = func(_ context.Context, limit int32) ([]model.GenerationRecord, error) {
				gotLimit = limit
				return []model.GenerationRecord{{ID: 1, URL: "https://example.com"}}, nil
			}

			w := get("/api/v1/generations")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotLimit).To(Equal(int32(20)))

			var resp map[string][]model.GenerationRecord
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["generations"]).To(HaveLen(1))
		})

		It("caps the limit at 100", func() {
			var gotLimit int32
			svc.historyFn = func(_ context.Context, limit int32) ([]model.GenerationRecord, error) {
				gotLimit = limit
				return nil, nil
			}

			Expect(get("/api/v1/generations?limit=5000").Code).To(Equal(http.StatusOK))
			Expect(gotLimit).To(Equal(int32(100)))
		})

		It("rejects a non-numeric limit", func() {
			Expect(get("/api/v1/generations?limit=lots").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the store fails", func() {
			svc.historyFn = func(_ context.Context, _ int32) ([]model.GenerationRecord, error) {
				return nil, errors.New("connection refused")
			}

			Expect(get("/api/v1/generations").Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns the record by id", func() {
			svc.getFn = func(_ context.Context, id int64) (*model.GenerationRecord, error) {
				Expect(id).To(Equal(int64(42)))
				return &model.GenerationRecord{ID: 42, URL: "https://example.com"}, nil
			}

			w := get("/api/v1/generations/42")

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("42"))
		})

		It("returns 404 for an unknown id", func() {
			svc.getFn = func(_ context.Context, _ int64) (*model.GenerationRecord, error) {
				return nil, store.ErrNotFound
			}

			Expect(get("/api/v1/generations/42").Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a non-numeric id", func() {
			Expect(get("/api/v1/generations/latest").Code).To(Equal(http.StatusBadRequest))
		})
	})
})
