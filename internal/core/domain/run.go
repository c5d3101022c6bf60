package domain

import "time"

// ImportRun is the journal record of one batch.
type ImportRun struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Overwrite bool
	Summary   BatchSummary
}

// ItemRecord is the journal record of one item in a run.
type ItemRecord struct {
	RunID        string
	Position     int
	Name         string
	ObjectID     string
	Action       Action
	Stage        Stage
	Error        string
	WarningCount int
}

// NewItemRecord builds a journal record from a result.
func NewItemRecord(runID string, r *ImportResult) ItemRecord {
	rec := ItemRecord{
		RunID:        runID,
		Position:     r.Position,
		Name:         r.Name,
		ObjectID:     r.ObjectID,
		Action:       r.Action,
		WarningCount: len(r.Warnings),
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		rec.Stage = StageOf(r.Err)
	}
	return rec
}
