package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/service"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// MaterialHandler exposes read-only material previews.
type MaterialHandler struct {
	previews *service.PreviewService
}

// NewMaterialHandler constructs MaterialHandler.
func NewMaterialHandler(previews *service.PreviewService) *MaterialHandler {
	return &MaterialHandler{previews: previews}
}

// Preview godoc
// @Summary Preview an inbox material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Router /materials/{id}/preview [get]
func (h *MaterialHandler) Preview(c *gin.Context) {
	preview, err := h.previews.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}
