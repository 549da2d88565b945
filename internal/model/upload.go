package model

import "time"

// UploadStatus is the lifecycle state of one file submission.
type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

// RowError records a single row that could not be ingested. Row failures do
// not abort the upload; they are collected and reported alongside it.
type RowError struct {
	LordID string `json:"lord_id"`
	Error  string `json:"error"`
}

// Upload is the bookkeeping row for one workbook submission.
type Upload struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	Kingdom     string       `json:"kingdom"`
	Status      UploadStatus `json:"status"`
	RowCount    int          `json:"row_count"`
	Error       string       `json:"error,omitempty"`
	RowErrors   []RowError   `json:"row_errors,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
