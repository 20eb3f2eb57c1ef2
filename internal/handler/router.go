package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything Register wires under the API prefix.
type Handlers struct {
	Academic *AcademicHandler
	Drive    *DriveHandler
	Gmail    *GmailHandler
	Moodle   *MoodleHandler
	Material *MaterialHandler
	Session  *SessionHandler
	Exports  *ExportHandler
}

// Register mounts all gateway routes on the given group.
func Register(api *gin.RouterGroup, h Handlers) {
	api.GET("/academic", h.Academic.Snapshot)
	api.POST("/academic/refresh", h.Academic.Refresh)
	api.POST("/academic/sync", h.Academic.Sync)

	api.POST("/drive/session", h.Drive.Open)
	api.GET("/drive/session", h.Drive.View)
	api.DELETE("/drive/session", h.Drive.Close)
	api.POST("/drive/session/toggle", h.Drive.Toggle)
	api.POST("/drive/session/sync", h.Drive.Sync)
	api.POST("/drive/session/unsync", h.Drive.Unsync)
	api.POST("/drive/session/refresh", h.Drive.RefreshSynced)

	api.POST("/gmail/scan", h.Gmail.Trigger)
	api.GET("/gmail/scan", h.Gmail.Status)

	api.POST("/moodle/connect", h.Moodle.Connect)
	api.GET("/moodle/connect", h.Moodle.Status)

	api.GET("/materials/:id/preview", h.Material.Preview)

	api.GET("/session", h.Session.Get)
	api.PUT("/session", h.Session.Put)
	api.DELETE("/session", h.Session.Clear)

	if h.Exports != nil {
		api.POST("/exports", h.Exports.Create)
		api.GET("/exports/:id", h.Exports.Get)
		api.GET("/exports/download", h.Exports.Download)
	}
}
