package driven

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// RunJournal persists import run history.
type RunJournal interface {
	// SaveRun stores or updates a run.
	SaveRun(ctx context.Context, run *domain.ImportRun) error

	// SaveItems appends item records for a run.
	SaveItems(ctx context.Context, records []domain.ItemRecord) error

	// GetRun retrieves a run by id.
	// Returns domain.ErrNotFound if it does not exist.
	GetRun(ctx context.Context, runID string) (*domain.ImportRun, error)

	// ListRuns returns runs, most recent first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error)

	// ListItems returns a run's item records in position order.
	ListItems(ctx context.Context, runID string) ([]domain.ItemRecord, error)
}
