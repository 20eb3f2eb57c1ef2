package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/service"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// ExportHandler exposes digest export jobs and their downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Queue a digest export
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest true "Export kind and format"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind and format are required"))
		return
	}
	if (req.Kind != "courses" && req.Kind != "inbox") || (req.Format != "csv" && req.Format != "pdf") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be courses|inbox and format csv|pdf"))
		return
	}
	job, err := h.exports.Enqueue(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Get godoc
// @Summary Read an export job
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download godoc
// @Summary Download a rendered digest
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	f, name, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.Header("Content-Type", "application/octet-stream")
	c.File(f.Name())
}
