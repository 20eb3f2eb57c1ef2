package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiwb/twin-gateway/internal/dto"
	"github.com/fiwb/twin-gateway/internal/models"
	"github.com/fiwb/twin-gateway/pkg/config"
	appErrors "github.com/fiwb/twin-gateway/pkg/errors"
	"github.com/fiwb/twin-gateway/pkg/export"
	"github.com/fiwb/twin-gateway/pkg/jobs"
	"github.com/fiwb/twin-gateway/pkg/storage"
)

const exportJobType = "digest-export"

// ExportService renders the current collections to downloadable digests.
// Rendering happens on a worker queue; callers poll the job and receive a
// signed download token once it completes.
type ExportService struct {
	snapshots materialSource
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
	cfg       config.ExportsConfig

	queue *jobs.Queue

	mu   sync.Mutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs the export pipeline.
func NewExportService(snapshots materialSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg config.ExportsConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		snapshots: snapshots,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
		jobs:      make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and the stale-file cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.CleanupInterval > 0 {
		go s.cleanupLoop(ctx)
	}
}

// Stop drains the workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a new export job and hands it to the workers.
func (s *ExportService) Enqueue(req dto.ExportRequest) (dto.ExportJobResponse, error) {
	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Kind:      models.ExportKind(req.Kind),
		Format:    models.ExportFormat(req.Format),
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return dto.ExportJobResponse{}, appErrors.Wrap(err, "EXPORT_QUEUE_FULL", 503, "export queue unavailable")
	}
	return s.response(job), nil
}

// Job reports the state of one export job.
func (s *ExportService) Job(id string) (dto.ExportJobResponse, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return dto.ExportJobResponse{}, appErrors.Clone(appErrors.ErrNotFound, "Export job not found.")
	}
	snapshot := *job
	s.mu.Unlock()
	return s.response(&snapshot), nil
}

// Download validates a signed token and opens the rendered file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "Invalid or expired download token.")
	}
	f, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "Export file no longer available.")
	}
	return f, relPath, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	s.setStatus(job.ID, models.ExportStatusRunning, "", "")

	record, ok := s.lookup(job.ID)
	if !ok {
		return nil
	}

	dataset, title := s.buildDataset(record.Kind)

	var (
		payload []byte
		err     error
	)
	switch record.Format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		s.setStatus(job.ID, models.ExportStatusFailed, "", err.Error())
		return fmt.Errorf("render %s digest: %w", record.Kind, err)
	}

	filename := fmt.Sprintf("%s-%s.%s", record.Kind, job.ID, record.Format)
	if _, err := s.store.Save(filename, payload); err != nil {
		s.setStatus(job.ID, models.ExportStatusFailed, "", err.Error())
		return fmt.Errorf("store %s digest: %w", record.Kind, err)
	}

	s.setStatus(job.ID, models.ExportStatusCompleted, filename, "")
	return nil
}

func (s *ExportService) buildDataset(kind models.ExportKind) (export.Dataset, string) {
	snap := s.snapshots.Snapshot()

	if kind == models.ExportKindInbox {
		rows := make([][]string, 0, len(snap.GmailMaterials))
		for _, m := range snap.GmailMaterials {
			rows = append(rows, []string{m.ID, m.Title, DateLabel(m), Excerpt(m)})
		}
		return export.Dataset{
			Headers: []string{"ID", "Title", "Date", "Summary"},
			Rows:    rows,
		}, "Inbox Digest"
	}

	rows := make([][]string, 0, len(snap.Courses))
	for _, c := range snap.Courses {
		lastSynced := ""
		if c.LastSynced != nil {
			lastSynced = *c.LastSynced
		}
		rows = append(rows, []string{c.ID, c.Name, c.Professor, c.Platform, lastSynced})
	}
	return export.Dataset{
		Headers: []string{"ID", "Name", "Professor", "Platform", "Last Synced"},
		Rows:    rows,
	}, "Course Digest"
}

func (s *ExportService) response(job *models.ExportJob) dto.ExportJobResponse {
	resp := dto.ExportJobResponse{
		ID:     job.ID,
		Status: string(job.Status),
		Error:  job.ErrorMessage,
	}
	if job.Status == models.ExportStatusCompleted && s.signer != nil {
		token, _, err := s.signer.Generate(job.ID, job.FilePath)
		if err != nil {
			s.logger.Warn("signing download token failed", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			resp.DownloadToken = token
		}
	}
	return resp
}

func (s *ExportService) lookup(id string) (models.ExportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.ExportJob{}, false
	}
	return *job, true
}

func (s *ExportService) setStatus(id string, status models.ExportStatus, filePath, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Status = status
	job.ErrorMessage = errMsg
	if filePath != "" {
		job.FilePath = filePath
	}
	if status == models.ExportStatusCompleted || status == models.ExportStatusFailed {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.store.CleanupOlderThan(s.cfg.SignedURLTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("stale exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
