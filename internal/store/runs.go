package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/gameforge/internal/run"
)

// ErrNotFound reports a run id with no row in the index.
var ErrNotFound = errors.New("run not found")

// CreateRun inserts a new run row. Duplicate ids are silently ignored so a
// replayed create is idempotent.
func (s *Store) CreateRun(ctx context.Context, rec run.Record, requestJSON []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, status, created_at, updated_at, error, request)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		rec.RunID,
		string(rec.Status),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rec.Error,
		string(requestJSON),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// UpdateStatus rewrites the status columns for a run.
func (s *Store) UpdateStatus(ctx context.Context, runID string, status run.Status, errMsg string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE run_id = ?
	`,
		string(status), errMsg, updatedAt.UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update run status %s: %w", runID, ErrNotFound)
	}
	return nil
}

// AppendEvent records one progress event for a run.
func (s *Store) AppendEvent(ctx context.Context, runID string, ev run.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (run_id, ts, stage, message, percent, step, total_steps)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		ev.Stage,
		ev.Message,
		nullableInt(ev.Percent),
		nullableInt(ev.Step),
		nullableInt(ev.TotalSteps),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// GetRun loads one run with its full event history in insertion order.
func (s *Store) GetRun(ctx context.Context, runID string) (run.Record, error) {
	var (
		rec                  run.Record
		status               string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, status, created_at, updated_at, error FROM runs WHERE run_id = ?
	`, runID).Scan(&rec.RunID, &status, &createdAt, &updatedAt, &rec.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("get run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("get run: %w", err)
	}
	rec.Status = run.Status(status)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return rec, fmt.Errorf("get run: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return rec, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, stage, message, percent, step, total_steps
		FROM run_events WHERE run_id = ? ORDER BY id ASC
	`, runID)
	if err != nil {
		return rec, fmt.Errorf("get run events: %w", err)
	}
	defer rows.Close()

	rec.Events = []run.Event{}
	for rows.Next() {
		var (
			ev                  run.Event
			ts                  string
			pct, step, totSteps sql.NullInt64
		)
		if err := rows.Scan(&ts, &ev.Stage, &ev.Message, &pct, &step, &totSteps); err != nil {
			return rec, fmt.Errorf("scan run event: %w", err)
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return rec, fmt.Errorf("scan run event: %w", err)
		}
		ev.Percent = intPtr(pct)
		ev.Step = intPtr(step)
		ev.TotalSteps = intPtr(totSteps)
		rec.Events = append(rec.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("get run events: %w", err)
	}
	return rec, nil
}

// GetRequest returns the normalized request JSON stored at creation.
func (s *Store) GetRequest(ctx context.Context, runID string) ([]byte, error) {
	var request string
	err := s.db.QueryRowContext(ctx, `SELECT request FROM runs WHERE run_id = ?`, runID).Scan(&request)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get request %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return []byte(request), nil
}

// ListRuns returns run summaries (no events), newest first, up to limit.
// A limit of zero or less means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]run.Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, status, created_at, updated_at, error
		FROM runs ORDER BY created_at DESC, run_id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []run.Record
	for rows.Next() {
		var (
			rec                  run.Record
			status               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&rec.RunID, &status, &createdAt, &updatedAt, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Status = run.Status(status)
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// MarkInterrupted flips any still-running rows to failed. Called on service
// startup: a run that was in flight when the process died can never finish.
func (s *Store) MarkInterrupted(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error = ?, updated_at = ?
		WHERE status = ?
	`,
		string(run.StatusFailed),
		"interrupted by service restart",
		now.UTC().Format(time.RFC3339Nano),
		string(run.StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
