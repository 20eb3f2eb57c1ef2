package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.BackendConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second}, zap.NewNop(), nil)
}

func TestClientCoursesNormalizesEmail(t *testing.T) {
	var gotEmail string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotEmail = r.URL.Query().Get("user_email")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "c1", "name": "Physics"}})
	})

	courses, err := client.Courses(context.Background(), "  User@Example.COM ")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Physics", courses[0].Name)
	assert.Equal(t, "user@example.com", gotEmail)
}

func TestClientInboxMaterialsToleratesNonArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})

	materials, err := client.InboxMaterials(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, materials)
}

func TestClientInboxMaterialsDecodesArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/courses/GMAIL_INBOX/materials", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"m1","title":"Midterm","content":"SUMMARY: soon"}]`))
	})

	materials, err := client.InboxMaterials(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Midterm", materials[0].Title)
}

func TestClientSyncDriveFoldersBody(t *testing.T) {
	var body map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/drive/sync", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"status":"sync_started","folders_queued":1}`))
	})

	err := client.SyncDriveFolders(context.Background(), "user@example.com", []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", body["user_email"])
	assert.Equal(t, []interface{}{"1"}, body["folder_ids"])
}

func TestClientSurfacesBackendDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"User not found"}`))
	})

	err := client.TriggerGmailScan(context.Background(), "42")
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "User not found", statusErr.Detail)
}

func TestClientTriggerFullSyncPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"sync_started"}`))
	})

	require.NoError(t, client.TriggerFullSync(context.Background(), "SidWagh724@Gmail.COM"))
	assert.Equal(t, "/api/admin/sync/siddhantwagh724@gmail.com", gotPath)
}
