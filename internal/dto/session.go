package dto

// SessionPutRequest seeds the local identity store. The auth provider owns
// real authentication; this only records who the gateway acts for.
type SessionPutRequest struct {
	Email  string `json:"email" validate:"required,email"`
	UserID string `json:"user_id" validate:"required"`
}

// MoodleConnectRequest registers Moodle credentials with the backend.
type MoodleConnectRequest struct {
	URL   string `json:"moodle_url" validate:"required,url"`
	Token string `json:"moodle_token" validate:"required"`
}

// ExportRequest queues a digest export of the current collections.
type ExportRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=courses inbox"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports an export job's state and, when completed, a
// signed download token.
type ExportJobResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	DownloadToken string `json:"download_token,omitempty"`
}

// MaterialPreview is the formatted read-only detail view of one mail material.
type MaterialPreview struct {
	Title       string `json:"title"`
	DateLabel   string `json:"date_label"`
	Excerpt     string `json:"excerpt"`
	ExternalURL string `json:"external_url"`
}
