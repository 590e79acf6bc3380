// Package store persists the analysis ledger: one row per attachment analysis.
package store

import (
	"context"

	"github.com/timelocker/tracker/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	NoteID string          `json:"note_id,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis ledger.
type Store interface {
	// RecordRun inserts run, filling ID and CreatedAt when they are unset.
	RecordRun(ctx context.Context, run *model.AnalysisRun) error
	GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)

	// ListFailedNotes returns notes holding at least one attachment whose
	// latest run failed, oldest failure first.
	ListFailedNotes(ctx context.Context, limit int) ([]string, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
