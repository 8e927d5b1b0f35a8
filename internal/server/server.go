// Package server exposes the pipeline as an asynchronous HTTP service:
// POST /generate starts a background run and returns its id, GET
// /status/{id} returns the full event history every time, and GET
// /download/{id} serves the finished archive. Concurrent runs are bounded
// by a weighted semaphore; run state survives restarts via the per-run
// artifact directories and the sqlite run index.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/roach88/gameforge/internal/orchestrator"
	"github.com/roach88/gameforge/internal/run"
	"github.com/roach88/gameforge/internal/store"
)

// Server wires the orchestrator, the run index, and the job manager.
type Server struct {
	cfg    Config
	orch   *orchestrator.Orchestrator
	store  *store.Store
	logger *slog.Logger
	sem    *semaphore.Weighted

	mu   sync.Mutex
	jobs map[string]*run.Tracker // live runs only

	wg sync.WaitGroup
}

func New(cfg Config, orch *orchestrator.Orchestrator, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		orch:   orch,
		store:  st,
		logger: logger,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrentRuns),
		jobs:   map[string]*run.Tracker{},
	}
}

// Recover marks runs that were in flight when the previous process died as
// failed. Terminal runs need nothing: their artifacts are already on disk.
func (s *Server) Recover(ctx context.Context) error {
	n, err := s.store.MarkInterrupted(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("marked interrupted runs as failed", "count", n)
	}
	return nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("GET /download/{id}", s.handleDownload)
	return mux
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight runs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.wg.Wait()
		return nil
	case err := <-errCh:
		return err
	}
}

// Wait blocks until every background run has finished. Used by tests.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}
	if req.Enrichment == nil {
		req.Enrichment = s.cfg.Enrichment
	}

	runID := uuid.NewString()
	tracker, err := run.NewTracker(s.cfg.RunsDir, runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requestJSON, err := json.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.CreateRun(r.Context(), tracker.Snapshot(), requestJSON); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.jobs[runID] = tracker
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runJob(req, tracker)

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// runJob drives one background run under the concurrency semaphore and
// persists the terminal snapshot to the run index.
func (s *Server) runJob(req orchestrator.Request, tracker *run.Tracker) {
	defer s.wg.Done()
	runID := tracker.RunID()

	ctx := context.Background()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		tracker.Fail(err.Error())
	} else {
		if _, err := s.orch.Run(ctx, req, tracker); err != nil {
			s.logger.Error("run failed", "run_id", runID, "error", err)
		}
		s.sem.Release(1)
	}
	if err := tracker.Close(); err != nil {
		s.logger.Error("close tracker", "run_id", runID, "error", err)
	}

	snap := tracker.Snapshot()
	for _, ev := range snap.Events {
		if err := s.store.AppendEvent(ctx, runID, ev); err != nil {
			s.logger.Error("persist event", "run_id", runID, "error", err)
			break
		}
	}
	if err := s.store.UpdateStatus(ctx, runID, snap.Status, snap.Error, snap.UpdatedAt); err != nil {
		s.logger.Error("persist status", "run_id", runID, "error", err)
	}

	s.mu.Lock()
	delete(s.jobs, runID)
	s.mu.Unlock()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	rec, ok := s.lookup(r.Context(), runID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run id")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")

	rec, ok := s.lookup(r.Context(), runID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run id")
		return
	}
	switch rec.Status {
	case run.StatusRunning:
		writeError(w, http.StatusConflict, "run is still in progress")
		return
	case run.StatusCompleted:
	default:
		writeError(w, http.StatusNotFound, "run produced no archive")
		return
	}

	path := filepath.Join(s.cfg.RunsDir, runID, run.ArchiveFile)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".zip"))
	http.ServeFile(w, r, path)
}

// lookup resolves a run id: live tracker first, then the on-disk snapshot
// (which has the full event history), then the sqlite index.
func (s *Server) lookup(ctx context.Context, runID string) (run.Record, bool) {
	s.mu.Lock()
	tracker, live := s.jobs[runID]
	s.mu.Unlock()
	if live {
		return tracker.Snapshot(), true
	}

	if rec, err := run.ReadRecord(s.cfg.RunsDir, runID); err == nil {
		return rec, true
	}

	rec, err := s.store.GetRun(ctx, runID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("run index lookup", "run_id", runID, "error", err)
		}
		return run.Record{}, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
