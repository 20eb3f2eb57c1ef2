package dto

import "github.com/fiwb/twin-gateway/internal/models"

// AcademicSnapshot is the coordinator state as exposed to consumers.
type AcademicSnapshot struct {
	Courses        []models.Course       `json:"courses"`
	GmailMaterials []models.MailMaterial `json:"gmail_materials"`
	Loading        bool                  `json:"loading"`
	Syncing        bool                  `json:"syncing"`
	Error          string                `json:"error,omitempty"`
}

// FlowStatus reports the outcome of one submission attempt in a sync flow.
// Status is one of "idle", "success", "error".
type FlowStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	FlowIdle    = "idle"
	FlowSuccess = "success"
	FlowError   = "error"
)
