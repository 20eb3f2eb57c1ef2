package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/models"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
)

const (
	contentDelimiter = "\n\nCONTENT:"
	summaryPrefix    = "SUMMARY: "
	genericMailURL   = "https://mail.google.com"
)

type materialSource interface {
	Snapshot() dto.AcademicSnapshot
}

// PreviewService renders read-only detail views for already-fetched inbox
// materials. No network calls; the only lookup is against the coordinator's
// snapshot.
type PreviewService struct {
	materials materialSource
	sessions  sessionSource
}

// NewPreviewService constructs the preview service.
func NewPreviewService(materials materialSource, sessions sessionSource) *PreviewService {
	return &PreviewService{materials: materials, sessions: sessions}
}

// Preview resolves a material by id and formats it for display.
func (s *PreviewService) Preview(ctx context.Context, materialID string) (dto.MaterialPreview, error) {
	snap := s.materials.Snapshot()
	for _, m := range snap.GmailMaterials {
		if m.ID == materialID {
			return s.render(ctx, m), nil
		}
	}
	return dto.MaterialPreview{}, appErrors.Clone(appErrors.ErrNotFound, "Material not found.")
}

func (s *PreviewService) render(ctx context.Context, m models.MailMaterial) dto.MaterialPreview {
	var email string
	if identity, err := s.sessions.Identity(ctx); err == nil && identity != nil {
		email = identity.Email
	}
	return dto.MaterialPreview{
		Title:       m.Title,
		DateLabel:   DateLabel(m),
		Excerpt:     Excerpt(m),
		ExternalURL: ExternalURL(m, email),
	}
}

// DateLabel formats the material's timestamp in long form, or "Recent" when
// the record carries no usable date or is explicitly marked so.
func DateLabel(m models.MailMaterial) string {
	if m.Date == "Recent" || (m.Date == "" && m.CreatedAt == "") {
		return "Recent"
	}
	raw := m.CreatedAt
	if raw == "" {
		raw = m.Date
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Monday, January 2, 2006")
		}
	}
	return raw
}

// Excerpt trims the material body down to its summary section: everything
// past the content delimiter is dropped and the summary prefix stripped.
func Excerpt(m models.MailMaterial) string {
	body := m.Body()
	if i := strings.Index(body, contentDelimiter); i >= 0 {
		body = body[:i]
	}
	body = strings.Replace(body, summaryPrefix, "", 1)
	body = strings.TrimSpace(body)
	if body == "" {
		return "No content available."
	}
	return body
}

// ExternalURL deep-links into the hosted mail UI for the signed-in account,
// falling back to the record's own link or the generic mail origin when the
// id or the session email is missing.
func ExternalURL(m models.MailMaterial, email string) string {
	id := strings.TrimSpace(m.ID)
	if id != "" && email != "" {
		return "https://mail.google.com/mail/u/?authuser=" + url.QueryEscape(email) + "#all/" + id
	}
	if m.SourceLink != "" {
		return m.SourceLink
	}
	return genericMailURL
}
