package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/dto"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
)

type GenerateHandler struct {
	generations  service.GenerationService
	isProduction bool
}

func NewGenerateHandler(generations service.GenerationService, isProduction bool) *GenerateHandler {
	return &GenerateHandler{generations: generations, isProduction: isProduction}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"request body must be valid JSON"}})
		return
	}

	if errs := req.Validate(h.isProduction); len(errs) > 0 {
		slog.WarnContext(ctx, "request rejected", "errors", errs)
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TargetURL: logger.Ptr(req.URL)})

	rec, err := h.generations.Generate(ctx, service.GenerateParams{
		URL:             req.URL,
		UserDescription: req.UserDescription,
		DOMData:         req.DOMData,
		HTMLElements:    req.HTMLElements,
	})
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, degradedBody())
		return
	}

	c.JSON(http.StatusOK, toGenerateResponse(rec))
}

func toGenerateResponse(rec *model.GenerationRecord) dto.GenerateResponse {
	tests := rec.Tests
	if tests == nil {
		tests = []model.TestCase{}
	}
	return dto.GenerateResponse{
		ID:      rec.ID,
		Summary: rec.Summary,
		Tests:   tests,
		Error:   rec.Error,
	}
}

// degradedBody mirrors a degraded generation result so clients parse failures
// the same way they parse successes.
func degradedBody() gin.H {
	return gin.H{
		"summary": "Test generation failed unexpectedly.",
		"tests":   []any{},
		"_error":  true,
	}
}
