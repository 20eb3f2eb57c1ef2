package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/service"
	"github.com/fiwb/twin-gateway/pkg/response"
)

// GmailHandler exposes the inbox-scan trigger flow.
type GmailHandler struct {
	gmail *service.GmailService
}

// NewGmailHandler constructs GmailHandler.
func NewGmailHandler(gmail *service.GmailService) *GmailHandler {
	return &GmailHandler{gmail: gmail}
}

// Trigger godoc
// @Summary Trigger an inbox scan
// @Tags Gmail
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /gmail/scan [post]
func (h *GmailHandler) Trigger(c *gin.Context) {
	status, err := h.gmail.Trigger(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, status)
}

// Status godoc
// @Summary Read the scan flow status
// @Tags Gmail
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gmail/scan [get]
func (h *GmailHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.gmail.Status())
}
