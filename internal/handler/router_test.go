package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/events"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/internal/service"
	"github.com/fiwb/twin-gateway/pkg/config"
)

type memorySessions struct {
	mu     sync.Mutex
	values map[string]string
}

func seededSessions() *memorySessions {
	return &memorySessions{values: map[string]string{
		"user_email": "user@example.com",
		"user_id":    "42",
	}}
}

func (m *memorySessions) Identity(ctx context.Context) (*models.SessionIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values["user_email"] == "" {
		return nil, nil
	}
	return &models.SessionIdentity{Email: m.values["user_email"], UserID: m.values["user_id"]}, nil
}

func (m *memorySessions) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memorySessions) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// fakeTwin is a stand-in Digital Twin backend covering the endpoints the
// gateway calls.
func fakeTwin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/courses/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Course{{ID: "c1", Name: "Algorithms"}})
	})
	mux.HandleFunc("/api/courses/GMAIL_INBOX/materials", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.MailMaterial{
			{ID: "m1", Title: "Week 1", Content: "SUMMARY: Intro.\n\nCONTENT:\nlong"},
		})
	})
	mux.HandleFunc("/api/drive/folders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.DriveFolder{{ID: "1", Name: "Physics"}, {ID: "2", Name: "Chem"}})
	})
	mux.HandleFunc("/api/drive/synced-folders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.DriveFolder{})
	})
	mux.HandleFunc("/api/drive/sync", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/drive/unsync", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/gmail/trigger/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/api/moodle/connect", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/admin/sync/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	twin := fakeTwin(t)
	client := backend.NewClient(config.BackendConfig{
		BaseURL:        twin.URL,
		RequestTimeout: 2 * time.Second,
	}, zap.NewNop(), nil)

	sessions := seededSessions()
	bus := events.NewBus()

	coordinator := service.NewCoordinatorService(client, sessions, nil, nil, bus, zap.NewNop(), config.CoordinatorConfig{
		RefreshInterval:   time.Hour,
		PostSyncRefreshes: []time.Duration{10 * time.Millisecond},
		SyncingFloor:      10 * time.Millisecond,
	})
	drive := service.NewDriveService(client, sessions, bus, zap.NewNop(), config.DriveConfig{
		BroadcastDelays: []time.Duration{10 * time.Millisecond},
	})
	gmail := service.NewGmailService(client, sessions, bus, zap.NewNop(), config.GmailConfig{AutoCloseDelay: 10 * time.Millisecond})
	moodle := service.NewMoodleService(client, sessions, zap.NewNop())
	previews := service.NewPreviewService(coordinator, sessions)
	sessionSvc := service.NewSessionService(sessions)

	r := gin.New()
	api := r.Group("/api/v1")
	Register(api, Handlers{
		Academic: NewAcademicHandler(coordinator),
		Drive:    NewDriveHandler(drive),
		Gmail:    NewGmailHandler(gmail),
		Moodle:   NewMoodleHandler(moodle),
		Material: NewMaterialHandler(previews),
		Session:  NewSessionHandler(sessionSvc),
	})
	return r
}

func TestSessionPutAndGet(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/session",
		dto.SessionPutRequest{Email: "sidwagh724@gmail.com", UserID: "7"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.SessionIdentity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "siddhantwagh724@gmail.com", envelope.Data.Email)
	assert.Equal(t, "7", envelope.Data.UserID)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAcademicRefreshEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/academic/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.AcademicSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Courses, 1)
	assert.Equal(t, "Algorithms", envelope.Data.Courses[0].Name)
	assert.False(t, envelope.Data.Loading)
	assert.Empty(t, envelope.Data.Error)
}

func TestDriveSessionFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/drive/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/drive/session/toggle", dto.DriveToggleRequest{FolderID: "1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/drive/session/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.DriveView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "manage", envelope.Data.Tab)
	assert.Empty(t, envelope.Data.Selected)
	assert.Equal(t, dto.FlowSuccess, envelope.Data.Status.Status)
}

func TestDriveUnsyncWithoutConfirmation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/drive/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/drive/session/unsync",
		dto.DriveUnsyncRequest{FolderIDs: []string{"1"}})
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
}

func TestGmailScanEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/gmail/scan", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var envelope struct {
		Data dto.FlowStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, dto.FlowSuccess, envelope.Data.Status)
}

func TestMoodleConnectEndpointValidation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/moodle/connect",
		dto.MoodleConnectRequest{URL: "not-a-url", Token: "tok"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaterialPreviewEndpoint(t *testing.T) {
	r := newTestRouter(t)

	// Populate the coordinator first.
	w := doJSON(t, r, http.MethodPost, "/api/v1/academic/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/materials/m1/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.MaterialPreview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Week 1", envelope.Data.Title)
	assert.Equal(t, "Intro.", envelope.Data.Excerpt)
	assert.Contains(t, envelope.Data.ExternalURL, "#all/m1")

	w = doJSON(t, r, http.MethodGet, "/api/v1/materials/unknown/preview", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
