package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/service"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// SessionHandler seeds and clears the local identity store.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get godoc
// @Summary Read the stored identity
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	identity, err := h.sessions.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identity)
}

// Put godoc
// @Summary Store the identity the gateway acts for
// @Tags Session
// @Accept json
// @Produce json
// @Param request body dto.SessionPutRequest true "Identity"
// @Success 200 {object} response.Envelope
// @Router /session [put]
func (h *SessionHandler) Put(c *gin.Context) {
	var req dto.SessionPutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	identity, err := h.sessions.Put(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identity)
}

// Clear godoc
// @Summary Drop the stored identity
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.sessions.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
