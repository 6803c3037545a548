// Package store persists analysis runs and their per-property results, with
// SQLite and Postgres backends selected by configuration.
package store

import (
	"context"

	"github.com/sells-group/frontage-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for analysis run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	SaveResults(ctx context.Context, runID string, results []model.FacingResult) error
	GetResults(ctx context.Context, runID string) ([]model.FacingResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
