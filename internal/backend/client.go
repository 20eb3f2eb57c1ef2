package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
	"github.com/fiwb/twin-gateway/pkg/identity"
)

// inboxCourseID is the synthetic course the backend files mail-derived
// materials under.
const inboxCourseID = "GMAIL_INBOX"

// StatusError is a non-2xx backend reply. Detail carries the backend's own
// message when the body had one; callers surface it verbatim.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// CallObserver receives timing for every backend round trip.
type CallObserver interface {
	ObserveBackendCall(op string, duration time.Duration, err error)
}

// Client is the typed HTTP client for the Digital Twin backend.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer CallObserver
}

// NewClient builds a backend client. observer may be nil.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, observer CallObserver) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
	}
}

// Courses returns the user's course list.
func (c *Client) Courses(ctx context.Context, email string) ([]models.Course, error) {
	var courses []models.Course
	q := url.Values{"user_email": {identity.NormalizeEmail(email)}}
	if err := c.do(ctx, "courses", http.MethodGet, "/api/courses/", q, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// InboxMaterials returns mail-derived materials. The endpoint answers with an
// error object instead of a list for users it does not know, so the reply is
// only decoded when it is actually an array.
func (c *Client) InboxMaterials(ctx context.Context, email string) ([]models.MailMaterial, error) {
	var raw json.RawMessage
	q := url.Values{"user_email": {identity.NormalizeEmail(email)}}
	path := fmt.Sprintf("/api/courses/%s/materials", inboxCourseID)
	if err := c.do(ctx, "inbox_materials", http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var materials []models.MailMaterial
	if err := json.Unmarshal(raw, &materials); err != nil {
		return nil, fmt.Errorf("decode inbox materials: %w", err)
	}
	return materials, nil
}

// TriggerFullSync asks the backend to re-ingest every connected source.
func (c *Client) TriggerFullSync(ctx context.Context, email string) error {
	path := "/api/admin/sync/" + url.PathEscape(identity.NormalizeEmail(email))
	return c.do(ctx, "full_sync", http.MethodPost, path, nil, nil, nil)
}

// DriveFolders lists every folder in the user's Drive root.
func (c *Client) DriveFolders(ctx context.Context, email string) ([]models.DriveFolder, error) {
	var folders []models.DriveFolder
	q := url.Values{"user_email": {identity.NormalizeEmail(email)}}
	if err := c.do(ctx, "drive_folders", http.MethodGet, "/api/drive/folders", q, nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// SyncedFolders lists the folders the backend currently ingests.
func (c *Client) SyncedFolders(ctx context.Context, email string) ([]models.DriveFolder, error) {
	var folders []models.DriveFolder
	q := url.Values{"user_email": {identity.NormalizeEmail(email)}}
	if err := c.do(ctx, "drive_synced_folders", http.MethodGet, "/api/drive/synced-folders", q, nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

type driveFolderRequest struct {
	UserEmail string   `json:"user_email"`
	FolderIDs []string `json:"folder_ids"`
}

// SyncDriveFolders starts ingesting the given folders.
func (c *Client) SyncDriveFolders(ctx context.Context, email string, folderIDs []string) error {
	body := driveFolderRequest{UserEmail: identity.NormalizeEmail(email), FolderIDs: folderIDs}
	return c.do(ctx, "drive_sync", http.MethodPost, "/api/drive/sync", nil, body, nil)
}

// UnsyncDriveFolders stops ingesting the given folders.
func (c *Client) UnsyncDriveFolders(ctx context.Context, email string, folderIDs []string) error {
	body := driveFolderRequest{UserEmail: identity.NormalizeEmail(email), FolderIDs: folderIDs}
	return c.do(ctx, "drive_unsync", http.MethodPost, "/api/drive/unsync", nil, body, nil)
}

// TriggerGmailScan starts a backend Gmail scan for the user.
func (c *Client) TriggerGmailScan(ctx context.Context, userID string) error {
	path := "/api/gmail/trigger/" + url.PathEscape(userID)
	return c.do(ctx, "gmail_trigger", http.MethodPost, path, nil, nil, nil)
}

type moodleConnectRequest struct {
	UserEmail   string `json:"user_email"`
	MoodleURL   string `json:"moodle_url"`
	MoodleToken string `json:"moodle_token"`
}

// ConnectMoodle registers Moodle credentials for the user.
func (c *Client) ConnectMoodle(ctx context.Context, email, moodleURL, token string) error {
	body := moodleConnectRequest{
		UserEmail:   identity.NormalizeEmail(email),
		MoodleURL:   strings.TrimRight(moodleURL, "/"),
		MoodleToken: token,
	}
	return c.do(ctx, "moodle_connect", http.MethodPost, "/api/moodle/connect", nil, body, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, query, body, out)
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("backend call failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{StatusCode: res.StatusCode, Detail: extractDetail(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractDetail pulls the FastAPI-style "detail" field out of an error body.
func extractDetail(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
