package dto

import "github.com/fiwb/twin-gateway/internal/models"

// DriveView is the state of the folder picker: the "add" tab lists available
// folders minus the already-synced set, the "manage" tab the synced set.
type DriveView struct {
	Tab       string               `json:"tab"`
	Search    string               `json:"search,omitempty"`
	Available []models.DriveFolder `json:"available"`
	Synced    []models.DriveFolder `json:"synced"`
	Selected  []string             `json:"selected"`
	Loading   bool                 `json:"loading"`
	Status    FlowStatus           `json:"status"`
}

// DriveToggleRequest toggles one folder in the selection set.
type DriveToggleRequest struct {
	FolderID string `json:"folder_id" validate:"required"`
}

// DriveUnsyncRequest stops syncing folders. Confirmed mirrors the explicit
// user confirmation the UI required before removal.
type DriveUnsyncRequest struct {
	FolderIDs []string `json:"folder_ids"`
	All       bool     `json:"all"`
	Confirmed bool     `json:"confirmed"`
}
