package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/service"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// DriveHandler exposes the folder-picker session.
type DriveHandler struct {
	drive *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drive *service.DriveService) *DriveHandler {
	return &DriveHandler{drive: drive}
}

// Open godoc
// @Summary Open a folder-picker session
// @Tags Drive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/session [post]
func (h *DriveHandler) Open(c *gin.Context) {
	view, err := h.drive.Open(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// View godoc
// @Summary Read the picker state
// @Tags Drive
// @Produce json
// @Param tab query string false "Active tab (add or manage)"
// @Param search query string false "Folder name filter"
// @Success 200 {object} response.Envelope
// @Router /drive/session [get]
func (h *DriveHandler) View(c *gin.Context) {
	view, err := h.drive.View(c.Query("tab"), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Toggle godoc
// @Summary Toggle a folder in the selection set
// @Tags Drive
// @Accept json
// @Produce json
// @Param request body dto.DriveToggleRequest true "Folder to toggle"
// @Success 200 {object} response.Envelope
// @Router /drive/session/toggle [post]
func (h *DriveHandler) Toggle(c *gin.Context) {
	var req dto.DriveToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FolderID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "folder_id is required."))
		return
	}
	view, err := h.drive.Toggle(req.FolderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Sync godoc
// @Summary Start syncing the selected folders
// @Tags Drive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/session/sync [post]
func (h *DriveHandler) Sync(c *gin.Context) {
	view, err := h.drive.SubmitSync(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Unsync godoc
// @Summary Stop syncing folders
// @Tags Drive
// @Accept json
// @Produce json
// @Param request body dto.DriveUnsyncRequest true "Folders to remove"
// @Success 200 {object} response.Envelope
// @Router /drive/session/unsync [post]
func (h *DriveHandler) Unsync(c *gin.Context) {
	var req dto.DriveUnsyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid unsync request"))
		return
	}
	view, err := h.drive.Unsync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// RefreshSynced godoc
// @Summary Re-fetch the synced folder set
// @Tags Drive
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drive/session/refresh [post]
func (h *DriveHandler) RefreshSynced(c *gin.Context) {
	view, err := h.drive.RefreshSynced(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Close godoc
// @Summary Close the picker session
// @Tags Drive
// @Success 204
// @Router /drive/session [delete]
func (h *DriveHandler) Close(c *gin.Context) {
	h.drive.Close()
	response.NoContent(c)
}
