package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

// Ensure RunService implements the interface.
var _ driving.RunService = (*RunService)(nil)

// RunService reads import run history from the journal.
type RunService struct {
	journal driven.RunJournal
}

// NewRunService creates a run service.
func NewRunService(journal driven.RunJournal) *RunService {
	return &RunService{journal: journal}
}

// List returns recent runs, most recent first.
func (s *RunService) List(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	runs, err := s.journal.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns a run and its item records.
func (s *RunService) Get(ctx context.Context, runID string) (*domain.ImportRun, []domain.ItemRecord, error) {
	if runID == "" {
		return nil, nil, fmt.Errorf("%w: empty run id", domain.ErrInvalidInput)
	}
	run, err := s.journal.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}
	items, err := s.journal.ListItems(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("list run items: %w", err)
	}
	return run, items, nil
}
