// Package run provides durable progress tracking for one pipeline run.
//
// Every run owns a directory under the runs base dir, named by its run id,
// holding an append-only event log, a human-readable log mirror, and a
// status snapshot that is atomically rewritten on every change so a
// concurrent reader never sees a partial document.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Artifact file names inside a run directory.
const (
	StatusFile  = "status.json"
	EventsFile  = "events.log"
	LogFile     = "logs.txt"
	ArchiveFile = "output.zip"
	RequestFile = "request.json"
	SpecFile    = "spec.json"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Event is one progress entry. Percent, Step, and TotalSteps are optional.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	Percent    *int      `json:"percent,omitempty"`
	Step       *int      `json:"step,omitempty"`
	TotalSteps *int      `json:"total_steps,omitempty"`
}

// Record is the full status snapshot persisted as status.json.
type Record struct {
	RunID     string    `json:"run_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Events    []Event   `json:"events"`
	Error     string    `json:"error,omitempty"`
}

// EventOption attaches optional fields to an emitted event.
type EventOption func(*Event)

func WithPercent(p int) EventOption {
	return func(e *Event) { e.Percent = &p }
}

func WithStep(step, total int) EventOption {
	return func(e *Event) {
		e.Step = &step
		e.TotalSteps = &total
	}
}

// Tracker writes progress for one run. All methods are safe for concurrent
// use; the run directory is exclusively owned by this tracker.
type Tracker struct {
	mu     sync.Mutex
	dir    string
	record Record
	events *os.File
	logs   *os.File
	now    func() time.Time
}

// NewTracker creates (or reopens) the run directory under baseDir and
// persists an initial running snapshot.
func NewTracker(baseDir, runID string) (*Tracker, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("run: create run dir: %w", err)
	}
	events, err := os.OpenFile(filepath.Join(dir, EventsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("run: open event log: %w", err)
	}
	logs, err := os.OpenFile(filepath.Join(dir, LogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		events.Close()
		return nil, fmt.Errorf("run: open log file: %w", err)
	}

	t := &Tracker{
		dir:    dir,
		events: events,
		logs:   logs,
		now:    time.Now,
	}
	now := t.now().UTC()
	t.record = Record{
		RunID:     runID,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
		Events:    []Event{},
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.flushStatusLocked(); err != nil {
		events.Close()
		logs.Close()
		return nil, err
	}
	return t, nil
}

// Dir returns the run's artifact directory.
func (t *Tracker) Dir() string { return t.dir }

// RunID returns the run identifier.
func (t *Tracker) RunID() string { return t.record.RunID }

// ArchivePath is where the final archive belongs.
func (t *Tracker) ArchivePath() string { return filepath.Join(t.dir, ArchiveFile) }

// Emit appends one progress event to the durable log, refreshes the status
// snapshot, and mirrors the event as a log line.
func (t *Tracker) Emit(stage, message string, opts ...EventOption) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ev := Event{Timestamp: t.now().UTC(), Stage: stage, Message: message}
	for _, opt := range opts {
		opt(&ev)
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("run: marshal event: %w", err)
	}
	if _, err := t.events.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("run: append event: %w", err)
	}

	t.record.Events = append(t.record.Events, ev)
	t.record.UpdatedAt = ev.Timestamp
	if err := t.flushStatusLocked(); err != nil {
		return err
	}

	pct := ""
	if ev.Percent != nil {
		pct = fmt.Sprintf(" (%d%%)", *ev.Percent)
	}
	t.logLocked("INFO", fmt.Sprintf("[%s]%s %s", stage, pct, message))
	return nil
}

// Log writes a line to logs.txt without touching the event history.
func (t *Tracker) Log(level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logLocked(level, message)
}

// Fail marks the run failed with the given reason. No-op once terminal.
func (t *Tracker) Fail(reason string) error {
	return t.finish(StatusFailed, reason, "ERROR", "Run failed: "+reason)
}

// Cancel marks the run cancelled. No-op once terminal.
func (t *Tracker) Cancel() error {
	return t.finish(StatusCancelled, "", "INFO", "Run cancelled.")
}

// Complete marks the run completed. No-op once terminal.
func (t *Tracker) Complete() error {
	return t.finish(StatusCompleted, "", "INFO", "Run completed successfully.")
}

func (t *Tracker) finish(status Status, reason, level, line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.record.Status.Terminal() {
		return nil
	}
	t.record.Status = status
	t.record.UpdatedAt = t.now().UTC()
	if reason != "" {
		t.record.Error = reason
	}
	if err := t.flushStatusLocked(); err != nil {
		return err
	}
	t.logLocked(level, line)
	return nil
}

// Close marks the run completed unless it already reached a terminal
// status, then releases the log file handles.
func (t *Tracker) Close() error {
	if err := t.Complete(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.events.Close(); err != nil {
		t.logs.Close()
		return err
	}
	return t.logs.Close()
}

// Snapshot returns a copy of the current record with the full event history.
func (t *Tracker) Snapshot() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.record
	rec.Events = append([]Event(nil), t.record.Events...)
	return rec
}

// WriteArtifact atomically writes a named artifact into the run directory.
func (t *Tracker) WriteArtifact(name string, data []byte) error {
	return atomicWrite(filepath.Join(t.dir, name), data)
}

func (t *Tracker) logLocked(level, message string) {
	ts := t.now().UTC().Format(time.RFC3339)
	fmt.Fprintf(t.logs, "%s [%s] %s\n", ts, level, message)
}

// flushStatusLocked atomically rewrites status.json; the caller holds mu.
func (t *Tracker) flushStatusLocked() error {
	data, err := json.MarshalIndent(t.record, "", "  ")
	if err != nil {
		return fmt.Errorf("run: marshal status: %w", err)
	}
	return atomicWrite(filepath.Join(t.dir, StatusFile), data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".status-*")
	if err != nil {
		return fmt.Errorf("run: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("run: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("run: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("run: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadRecord loads the persisted snapshot for a run, used to rehydrate
// terminal runs after a restart.
func ReadRecord(baseDir, runID string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(filepath.Join(baseDir, runID, StatusFile))
	if err != nil {
		return rec, fmt.Errorf("run: read status for %s: %w", runID, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("run: parse status for %s: %w", runID, err)
	}
	return rec, nil
}
