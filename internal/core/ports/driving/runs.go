package driving

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// RunService exposes import run history.
type RunService interface {
	// List returns recent runs, most recent first.
	List(ctx context.Context, limit int) ([]domain.ImportRun, error)

	// Get returns a run and its item records.
	Get(ctx context.Context, runID string) (*domain.ImportRun, []domain.ItemRecord, error)
}
