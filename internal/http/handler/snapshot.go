package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aidanHorne978/Automated-Cypress-Testing/common/logger"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/http/dto"
	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/service"
)

type SnapshotHandler struct {
	snapshots    service.SnapshotService
	isProduction bool
}

func NewSnapshotHandler(snapshots service.SnapshotService, isProduction bool) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots, isProduction: isProduction}
}

func (h *SnapshotHandler) Capture(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SnapshotRequest
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

	snap, err := h.snapshots.Capture(ctx, req.URL)
	if err != nil {
		slog.ErrorContext(ctx, "snapshot capture failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to capture page"})
		return
	}

	c.JSON(http.StatusOK, snap)
}
