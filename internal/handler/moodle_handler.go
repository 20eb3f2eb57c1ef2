package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/service"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// MoodleHandler exposes the Moodle connection flow.
type MoodleHandler struct {
	moodle *service.MoodleService
}

// NewMoodleHandler constructs MoodleHandler.
func NewMoodleHandler(moodle *service.MoodleService) *MoodleHandler {
	return &MoodleHandler{moodle: moodle}
}

// Connect godoc
// @Summary Connect a Moodle account
// @Tags Moodle
// @Accept json
// @Produce json
// @Param request body dto.MoodleConnectRequest true "Moodle site URL and token"
// @Success 200 {object} response.Envelope
// @Router /moodle/connect [post]
func (h *MoodleHandler) Connect(c *gin.Context) {
	var req dto.MoodleConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid connect request"))
		return
	}
	status, err := h.moodle.Connect(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Status godoc
// @Summary Read the connection flow status
// @Tags Moodle
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /moodle/connect [get]
func (h *MoodleHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.moodle.Status())
}
