package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// runJournal implements driven.RunJournal.
type runJournal struct {
	store *Store
}

var _ driven.RunJournal = (*runJournal)(nil)

// SaveRun stores or updates a run.
func (j *runJournal) SaveRun(ctx context.Context, run *domain.ImportRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := j.store.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, started_at, ended_at, overwrite, total, created, updated, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			overwrite = excluded.overwrite,
			total = excluded.total,
			created = excluded.created,
			updated = excluded.updated,
			skipped = excluded.skipped,
			failed = excluded.failed
	`, run.ID, formatTime(run.StartedAt), formatNullableTime(run.EndedAt), boolToInt(run.Overwrite),
		run.Summary.Total, run.Summary.Created, run.Summary.Updated, run.Summary.Skipped, run.Summary.Failed)

	if err != nil {
		return fmt.Errorf("saving import run: %w", err)
	}
	return nil
}

// SaveItems appends item records for a run in one transaction.
func (j *runJournal) SaveItems(ctx context.Context, records []domain.ItemRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := j.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO import_results (run_id, position, name, object_id, action, stage, error, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, position) DO UPDATE SET
			name = excluded.name,
			object_id = excluded.object_id,
			action = excluded.action,
			stage = excluded.stage,
			error = excluded.error,
			warning_count = excluded.warning_count
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.RunID, r.Position, r.Name, nullString(r.ObjectID),
			string(r.Action), nullString(string(r.Stage)), nullString(r.Error), r.WarningCount); err != nil {
			return fmt.Errorf("saving import result %d: %w", r.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import results: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id.
func (j *runJournal) GetRun(ctx context.Context, runID string) (*domain.ImportRun, error) {
	row := j.store.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, overwrite, total, created, updated, skipped, failed
		FROM import_runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs, most recent first.
func (j *runJournal) ListRuns(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := j.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, overwrite, total, created, updated, skipped, failed
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ImportRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import runs: %w", err)
	}

	return runs, nil
}

// ListItems returns a run's item records in position order.
func (j *runJournal) ListItems(ctx context.Context, runID string) ([]domain.ItemRecord, error) {
	rows, err := j.store.db.QueryContext(ctx, `
		SELECT run_id, position, name, object_id, action, stage, error, warning_count
		FROM import_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying import results: %w", err)
	}
	defer rows.Close()

	var records []domain.ItemRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.ItemRecord
		var objectID, stage, errMsg sql.NullString
		var action string
		if err := rows.Scan(&r.RunID, &r.Position, &r.Name, &objectID,
			&action, &stage, &errMsg, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("scanning import result: %w", err)
		}
		r.ObjectID = objectID.String
		r.Action = domain.Action(action)
		r.Stage = domain.Stage(stage.String)
		r.Error = errMsg.String
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import results: %w", err)
	}

	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single import run row.
func scanRun(row scanner) (*domain.ImportRun, error) {
	var run domain.ImportRun
	var startedAt string
	var endedAt sql.NullString
	var overwrite int

	if err := row.Scan(&run.ID, &startedAt, &endedAt, &overwrite,
		&run.Summary.Total, &run.Summary.Created, &run.Summary.Updated,
		&run.Summary.Skipped, &run.Summary.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning import run: %w", err)
	}

	run.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	run.EndedAt = parseNullableTime(endedAt)
	run.Overwrite = overwrite == 1

	return &run, nil
}
