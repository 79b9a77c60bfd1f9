package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/store"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type HistoryHandler struct {
	generations service.GenerationService
}

func NewHistoryHandler(generations service.GenerationService) *HistoryHandler {
	return &HistoryHandler{generations: generations}
}

func (h *HistoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := int32(defaultHistoryLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"limit must be a positive integer"}})
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = int32(n)
	}

	records, err := h.generations.History(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list generations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"generations": records})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"id must be an integer"}})
		return
	}

	rec, err := h.generations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "generation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to fetch generation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch generation"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
