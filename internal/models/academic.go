package models

// Course is a synchronized course as reported by the backend.
type Course struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Professor  string  `json:"professor,omitempty"`
	Platform   string  `json:"platform,omitempty"`
	LastSynced *string `json:"last_synced,omitempty"`
}

// MailMaterial is an inbox-derived academic item. All fields beyond the id are
// optional on the wire; display fallbacks live in the preview service.
type MailMaterial struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	SourceLink  string `json:"source_link,omitempty"`
}

// Body returns whichever of content/description is populated.
func (m MailMaterial) Body() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Description
}

// DriveFolder is a folder visible in the user's Drive root.
type DriveFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionIdentity scopes every backend request to one user. Email is always
// stored in normalized form.
type SessionIdentity struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}
