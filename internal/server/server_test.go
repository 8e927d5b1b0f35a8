package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/orchestrator"
	"github.com/roach88/gameforge/internal/run"
	"github.com/roach88/gameforge/internal/store"
	"github.com/roach88/gameforge/internal/validator"
)

type okRunner struct{}

func (okRunner) Run(context.Context, string, string, ...string) (string, error) { return "ok", nil }

func newTestServer(t *testing.T) (*Server, *httptest.Server, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := DefaultConfig()
	cfg.RunsDir = t.TempDir()
	cfg.DBPath = filepath.Join(cfg.RunsDir, "gameforge.db")

	st, err := store.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	orch := orchestrator.New(logger)
	orch.Validator = validator.New(okRunner{}, logger)

	srv := New(cfg, orch, st, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, st
}

func postGenerate(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/generate", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func getStatus(t *testing.T, ts *httptest.Server, runID string) (*http.Response, run.Record) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/status/" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()

	var rec run.Record
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	}
	return resp, rec
}

func TestGenerateStatusDownloadLifecycle(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	resp, payload := postGenerate(t, ts, `{"prompt": "top down space shooter"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	runID := payload["run_id"]
	require.NotEmpty(t, runID)

	srv.Wait()

	statusResp, rec := getStatus(t, ts, runID)
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
	assert.Equal(t, run.StatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Events)

	dl, err := http.Get(ts.URL + "/download/" + runID)
	require.NoError(t, err)
	defer dl.Body.Close()
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/zip", dl.Header.Get("Content-Type"))

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "zip magic")
}

func TestStatusReturnsFullHistoryEveryTime(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	_, payload := postGenerate(t, ts, `{"prompt": "idle rpg with heroes"}`)
	runID := payload["run_id"]
	srv.Wait()

	_, first := getStatus(t, ts, runID)
	_, second := getStatus(t, ts, runID)
	require.NotEmpty(t, first.Events)
	assert.Equal(t, len(first.Events), len(second.Events))
	assert.Equal(t, first.Status, second.Status)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, payload := postGenerate(t, ts, `{"prompt": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["error"], "prompt")
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, _ := postGenerate(t, ts, `{"prompt": "x", "bogus_field": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusUnknownRun(t *testing.T) {
	_, ts, _ := newTestServer(t)
	resp, _ := getStatus(t, ts, uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadWhileRunningConflicts(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	// A tracker on disk with running status and no live job models a run
	// mid-flight (the disk snapshot is authoritative for the handler).
	runID := uuid.NewString()
	tracker, err := run.NewTracker(srv.cfg.RunsDir, runID)
	require.NoError(t, err)
	defer tracker.Close()

	resp, err := http.Get(ts.URL + "/download/" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDownloadFailedRunNotFound(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	_, payload := postGenerate(t, ts, `{"prompt": "space shooter", "platform": "ios"}`)
	runID := payload["run_id"]
	srv.Wait()

	statusResp, rec := getStatus(t, ts, runID)
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)
	assert.Equal(t, run.StatusFailed, rec.Status)

	resp, err := http.Get(ts.URL + "/download/" + runID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTerminalRunPersistedToIndex(t *testing.T) {
	srv, ts, st := newTestServer(t)

	_, payload := postGenerate(t, ts, `{"prompt": "space shooter"}`)
	runID := payload["run_id"]
	srv.Wait()

	rec, err := st.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, rec.Status)
	assert.NotEmpty(t, rec.Events)
}

func TestRecoverMarksInterruptedRuns(t *testing.T) {
	srv, _, st := newTestServer(t)
	ctx := context.Background()

	runID := uuid.NewString()
	tracker, err := run.NewTracker(srv.cfg.RunsDir, runID)
	require.NoError(t, err)
	require.NoError(t, st.CreateRun(ctx, tracker.Snapshot(), nil))

	require.NoError(t, srv.Recover(ctx))

	rec, err := st.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "interrupted")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(`
addr: ":9090"
runs_dir: /tmp/gf-runs
max_concurrent_runs: 4
enrichment:
  provider: ollama
  model: qwen2.5-coder:7b
`)), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/gf-runs", cfg.RunsDir)
	assert.EqualValues(t, 4, cfg.MaxConcurrentRuns)
	assert.Equal(t, filepath.Join("/tmp/gf-runs", "gameforge.db"), cfg.DBPath)
	require.NotNil(t, cfg.Enrichment)
	assert.Equal(t, "ollama", cfg.Enrichment.Provider)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "runs", cfg.RunsDir)
	assert.EqualValues(t, 2, cfg.MaxConcurrentRuns)
	assert.Equal(t, fmt.Sprintf("runs%cgameforge.db", os.PathSeparator), cfg.DBPath)
}
