package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// Ensure RunJournal implements the interface.
var _ driven.RunJournal = (*RunJournal)(nil)

// RunJournal is an in-memory implementation of driven.RunJournal.
type RunJournal struct {
	mu    sync.RWMutex
	runs  map[string]domain.ImportRun
	items map[string][]domain.ItemRecord
}

// NewRunJournal creates a new in-memory run journal.
func NewRunJournal() *RunJournal {
	return &RunJournal{
		runs:  make(map[string]domain.ImportRun),
		items: make(map[string][]domain.ItemRecord),
	}
}

// SaveRun stores or updates a run.
func (j *RunJournal) SaveRun(_ context.Context, run *domain.ImportRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs[run.ID] = *run
	return nil
}

// SaveItems appends item records for a run.
func (j *RunJournal) SaveItems(_ context.Context, records []domain.ItemRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, r := range records {
		j.items[r.RunID] = append(j.items[r.RunID], r)
	}
	return nil
}

// GetRun retrieves a run by id.
func (j *RunJournal) GetRun(_ context.Context, runID string) (*domain.ImportRun, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	run, ok := j.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns runs, most recent first.
func (j *RunJournal) ListRuns(_ context.Context, limit int) ([]domain.ImportRun, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	runs := make([]domain.ImportRun, 0, len(j.runs))
	for _, r := range j.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(a, b int) bool {
		return runs[a].StartedAt.After(runs[b].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ListItems returns a run's item records in position order.
func (j *RunJournal) ListItems(_ context.Context, runID string) ([]domain.ItemRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	items := make([]domain.ItemRecord, len(j.items[runID]))
	copy(items, j.items[runID])
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Position < items[b].Position
	})
	return items, nil
}
