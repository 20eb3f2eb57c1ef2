package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/service"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// AcademicHandler exposes the coordinator's state and its refresh/sync
// triggers.
type AcademicHandler struct {
	coordinator *service.CoordinatorService
}

// NewAcademicHandler constructs AcademicHandler.
func NewAcademicHandler(coordinator *service.CoordinatorService) *AcademicHandler {
	return &AcademicHandler{coordinator: coordinator}
}

// Snapshot godoc
// @Summary Current academic state
// @Tags Academic
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic [get]
func (h *AcademicHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.coordinator.Snapshot())
}

// Refresh godoc
// @Summary Re-fetch courses and inbox materials
// @Tags Academic
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic/refresh [post]
func (h *AcademicHandler) Refresh(c *gin.Context) {
	if err := h.coordinator.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.coordinator.Snapshot())
}

// Sync godoc
// @Summary Trigger a full backend sync
// @Tags Academic
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /academic/sync [post]
func (h *AcademicHandler) Sync(c *gin.Context) {
	if err := h.coordinator.StartSync(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, h.coordinator.Snapshot())
}
