package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/storage"
)

type fakeSnapshots struct {
	snap dto.AcademicSnapshot
}

func (f *fakeSnapshots) Snapshot() dto.AcademicSnapshot {
	return f.snap
}

func newTestExports(t *testing.T) (*ExportService, func()) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	snapshots := &fakeSnapshots{snap: dto.AcademicSnapshot{
		Courses: []models.Course{{ID: "c1", Name: "Algorithms", Professor: "Dr. Rao"}},
		GmailMaterials: []models.MailMaterial{
			{ID: "m1", Title: "Week 1", Content: "SUMMARY: Intro.\n\nCONTENT:\nlong"},
		},
	}}

	svc := NewExportService(snapshots, store, signer, zap.NewNop(), config.ExportsConfig{
		Enabled:           true,
		StorageDir:        dir,
		SignedURLSecret:   "test-secret",
		SignedURLTTL:      time.Hour,
		WorkerConcurrency: 1,
		WorkerRetries:     1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	return svc, func() {
		svc.Stop()
		cancel()
	}
}

func awaitJob(t *testing.T, svc *ExportService, id, status string) dto.ExportJobResponse {
	t.Helper()
	var resp dto.ExportJobResponse
	require.Eventually(t, func() bool {
		var err error
		resp, err = svc.Job(id)
		require.NoError(t, err)
		return resp.Status == status
	}, 2*time.Second, 10*time.Millisecond)
	return resp
}

func TestExportCourseCSV(t *testing.T) {
	svc, cleanup := newTestExports(t)
	defer cleanup()

	queued, err := svc.Enqueue(dto.ExportRequest{Kind: "courses", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), queued.Status)

	done := awaitJob(t, svc, queued.ID, string(models.ExportStatusCompleted))
	require.NotEmpty(t, done.DownloadToken)

	f, name, err := svc.Download(done.DownloadToken)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, strings.HasSuffix(name, ".csv"))

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Algorithms")
	assert.Contains(t, string(content), "Dr. Rao")
}

func TestExportInboxPDF(t *testing.T) {
	svc, cleanup := newTestExports(t)
	defer cleanup()

	queued, err := svc.Enqueue(dto.ExportRequest{Kind: "inbox", Format: "pdf"})
	require.NoError(t, err)

	done := awaitJob(t, svc, queued.ID, string(models.ExportStatusCompleted))

	f, _, err := svc.Download(done.DownloadToken)
	require.NoError(t, err)
	defer f.Close()

	header := make([]byte, 4)
	_, err = io.ReadFull(f, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportJobNotFound(t *testing.T) {
	svc, cleanup := newTestExports(t)
	defer cleanup()

	_, err := svc.Job("nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportDownloadBadToken(t *testing.T) {
	svc, cleanup := newTestExports(t)
	defer cleanup()

	_, _, err := svc.Download("garbage")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
