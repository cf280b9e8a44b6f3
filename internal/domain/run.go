package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary records the outcome of one ingestion run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	SheetsRead   int                  `json:"sheets_read"`
	RowsRead     int                  `json:"rows_read"`
	RowsRejected int                  `json:"rows_rejected"`
	Loaded       int                  `json:"loaded"`
	ByLocation   map[LocationType]int `json:"by_location"`

	Table      string `json:"table"`
	BackupPath string `json:"backup_path,omitempty"`
	BackupURI  string `json:"backup_uri,omitempty"`
}

// NewRunSummary starts a summary with a fresh run ID stamped at the current clock time.
func NewRunSummary() RunSummary {
	return RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  clock.Now().UTC(),
		ByLocation: make(map[LocationType]int),
	}
}

// Finish stamps the finish time.
func (s *RunSummary) Finish() {
	s.FinishedAt = clock.Now().UTC()
}

// Duration is the wall time between start and finish.
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// BackupArtifact locates a written backup extract.
type BackupArtifact struct {
	Path string
	URI  string // empty when the extract was not uploaded
}
