package models

import "time"

// ExportFormat enumerates supported digest formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportKind enumerates what gets exported.
type ExportKind string

const (
	ExportKindCourses ExportKind = "courses"
	ExportKindInbox   ExportKind = "inbox"
)

// ExportStatus tracks an export job's lifecycle.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportJob describes one digest export request and its outcome.
type ExportJob struct {
	ID           string
	Kind         ExportKind
	Format       ExportFormat
	Status       ExportStatus
	FilePath     string
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   *time.Time
}
