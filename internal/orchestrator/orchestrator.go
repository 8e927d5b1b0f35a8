// Package orchestrator sequences the generation pipeline: constraints ->
// spec -> design doc (optional) -> assets -> scaffold -> validate (optional)
// -> zip. One progress event per stage, cancellation checked at every stage
// boundary, and every failure surfaced through the tracker before being
// returned to the caller.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/gameforge/internal/assets"
	"github.com/roach88/gameforge/internal/enrich"
	"github.com/roach88/gameforge/internal/export"
	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/genre"
	"github.com/roach88/gameforge/internal/run"
	"github.com/roach88/gameforge/internal/scaffold"
	"github.com/roach88/gameforge/internal/schema"
	"github.com/roach88/gameforge/internal/tree"
	"github.com/roach88/gameforge/internal/validator"
)

// Request is the normalized input of one run. It is persisted verbatim as
// request.json and accepted as the POST /generate body.
type Request struct {
	Prompt    string `json:"prompt"`
	AssetsDir string `json:"assets_dir,omitempty"`

	Platform string `json:"platform,omitempty"`
	Scope    string `json:"scope,omitempty"`
	ArtStyle string `json:"art_style,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Online   *bool  `json:"online,omitempty"`
	Seed     *int64 `json:"seed,omitempty"`

	DesignDoc       bool   `json:"design_doc,omitempty"`
	DesignDocFormat string `json:"design_doc_format,omitempty"`

	Validate  bool `json:"validate,omitempty"`
	AutoFix   bool `json:"auto_fix,omitempty"`
	SmokeTest bool `json:"smoke_test,omitempty"`

	// Enrichment selects the model backend for spec enrichment and design
	// doc generation. Nil means heuristic spec + template design doc.
	Enrichment *enrich.Config `json:"enrichment,omitempty"`

	// Out overrides where the archive is written. Empty means the run
	// directory's output.zip. Not part of the persisted request.
	Out string `json:"-"`

	// Interactive enables constraint prompts on the orchestrator's
	// Stdin/Stdout. CLI only; never set by the server.
	Interactive bool `json:"-"`
}

// PipelineError wraps a stage failure with the stage that raised it.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *PipelineError) Unwrap() error { return e.Err }

// ValidationFailedError carries the failing state and the last tool output.
type ValidationFailedError struct {
	FailedAt validator.State
	Output   string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed at %s", e.FailedAt)
}

// Orchestrator owns the immutable configuration shared by all runs.
type Orchestrator struct {
	Registry  *genre.Registry
	Validator *validator.Validator
	Logger    *slog.Logger

	// Stdin/Stdout serve interactive constraint prompts.
	Stdin  io.Reader
	Stdout io.Writer

	// NewCompleter builds the enrichment backend for a run. Swappable so
	// tests can inject a fake without a network.
	NewCompleter func(enrich.Config) (gamespec.Completer, error)
}

// New returns an Orchestrator with the default registry, validator, and
// enrichment factory.
func New(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Registry:  genre.NewRegistry(),
		Validator: validator.New(validator.CommandRunner{}, logger),
		Logger:    logger,
		NewCompleter: func(cfg enrich.Config) (gamespec.Completer, error) {
			return enrich.New(cfg)
		},
	}
}

// Pipeline stages in execution order, with the percent emitted on entry.
var stages = []struct {
	name    string
	percent int
}{
	{"constraints", 5},
	{"spec", 20},
	{"design_doc", 35},
	{"assets", 50},
	{"scaffold", 65},
	{"validate", 80},
	{"zip", 95},
}

// Run executes the full pipeline for one request. On success the archive
// path is returned and the tracker left running (callers close it, which
// marks Completed). On failure a terminal event is emitted, the tracker is
// marked Failed (or Cancelled), and the error is returned.
func (o *Orchestrator) Run(ctx context.Context, req Request, tracker *run.Tracker) (string, error) {
	archive, err := o.run(ctx, req, tracker)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			tracker.Cancel()
			return "", err
		}
		if emitErr := tracker.Emit("error", err.Error()); emitErr != nil {
			o.Logger.Error("emit terminal event", "error", emitErr)
		}
		tracker.Fail(err.Error())
		return "", err
	}
	return archive, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, tracker *run.Tracker) (string, error) {
	if req.DesignDocFormat == "" {
		req.DesignDocFormat = scaffold.DocFormatJSON
	}

	requestJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", &PipelineError{Stage: "request", Err: err}
	}
	if err := tracker.WriteArtifact(run.RequestFile, requestJSON); err != nil {
		return "", &PipelineError{Stage: "request", Err: err}
	}

	// constraints
	if err := o.enterStage(ctx, tracker, 0, "resolving generation constraints"); err != nil {
		return "", err
	}
	resolver := &gamespec.Resolver{
		Interactive: req.Interactive,
		In:          o.Stdin,
		Out:         o.Stdout,
		Logger:      o.Logger,
	}
	cons, err := resolver.Resolve(gamespec.Overrides{
		Platform: req.Platform,
		Scope:    req.Scope,
		ArtStyle: req.ArtStyle,
		Online:   req.Online,
		Genre:    req.Genre,
		Seed:     req.Seed,
	})
	if err != nil {
		return "", &PipelineError{Stage: "constraints", Err: err}
	}

	// spec
	if err := o.enterStage(ctx, tracker, 1, "generating game spec"); err != nil {
		return "", err
	}
	completer := o.completer(req)
	generator := &gamespec.Generator{
		Genres:    o.Registry.Infos(),
		Completer: completer,
		Validate:  schema.ValidateGameSpec,
		Logger:    o.Logger,
	}
	spec, err := generator.Generate(ctx, req.Prompt, cons)
	if err != nil {
		return "", &PipelineError{Stage: "spec", Err: err}
	}
	spec.AssetsDir = req.AssetsDir

	specJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", &PipelineError{Stage: "spec", Err: err}
	}
	if err := tracker.WriteArtifact(run.SpecFile, specJSON); err != nil {
		return "", &PipelineError{Stage: "spec", Err: err}
	}

	// design doc
	var doc *gamespec.DesignDoc
	if req.DesignDoc {
		if err := o.enterStage(ctx, tracker, 2, "generating design document"); err != nil {
			return "", err
		}
		dg := &enrich.DesignGenerator{
			Completer: completer,
			Validate:  schema.ValidateDesignDoc,
			Logger:    o.Logger,
		}
		doc, err = dg.Generate(ctx, req.Prompt, cons.Seed)
		if err != nil {
			return "", &PipelineError{Stage: "design_doc", Err: err}
		}
	}

	// assets
	var imported tree.FileTree
	if req.AssetsDir != "" {
		if err := o.enterStage(ctx, tracker, 3, "matching assets from "+req.AssetsDir); err != nil {
			return "", err
		}
		candidates, err := assets.Scan(req.AssetsDir)
		if err != nil {
			return "", &PipelineError{Stage: "assets", Err: err}
		}
		matches := assets.MatchRoles(spec.RequiredAssets, candidates)
		for _, role := range spec.RequiredAssets {
			if _, ok := matches[role]; !ok {
				tracker.Log("WARNING", fmt.Sprintf("no asset matched role %q", role))
			}
		}
		imported, err = assets.Import(matches)
		if err != nil {
			return "", &PipelineError{Stage: "assets", Err: err}
		}
	}

	// scaffold
	if err := o.enterStage(ctx, tracker, 4, "assembling project tree"); err != nil {
		return "", err
	}
	plugin, ok := o.Registry.Lookup(spec.Genre)
	if !ok {
		return "", &PipelineError{Stage: "scaffold", Err: fmt.Errorf("no plugin registered for genre %q", spec.Genre)}
	}
	genreOut, err := plugin.Generate(spec, doc)
	if err != nil {
		return "", &PipelineError{Stage: "scaffold", Err: err}
	}
	in := scaffold.Input{Spec: spec, Genre: genreOut, Assets: imported}
	if doc != nil {
		in.Doc = doc
		in.DocFormat = req.DesignDocFormat
	}
	project, err := scaffold.Build(in)
	if err != nil {
		return "", &PipelineError{Stage: "scaffold", Err: err}
	}

	// validate
	if req.Validate {
		if err := o.enterStage(ctx, tracker, 5, "validating project with the Flutter toolchain"); err != nil {
			return "", err
		}
		projectDir := filepath.Join(tracker.Dir(), "project")
		res, err := o.Validator.Validate(ctx, projectDir, project, validator.Options{
			Testing: req.SmokeTest,
			AutoFix: req.AutoFix,
		})
		if err != nil {
			return "", &PipelineError{Stage: "validate", Err: err}
		}
		for _, w := range res.Warnings {
			tracker.Log("WARNING", w)
		}
		for _, p := range res.Patches {
			tracker.Log("INFO", "patch applied: "+p)
		}
		if res.State != validator.StatePassed {
			return "", &PipelineError{
				Stage: "validate",
				Err:   &ValidationFailedError{FailedAt: res.FailedAt, Output: res.Output},
			}
		}
		project = res.Tree
	}

	// zip
	if err := o.enterStage(ctx, tracker, 6, "writing archive"); err != nil {
		return "", err
	}
	archive := req.Out
	if archive == "" {
		archive = tracker.ArchivePath()
	}
	if err := export.WriteFile(archive, project); err != nil {
		return "", &PipelineError{Stage: "zip", Err: err}
	}

	if err := tracker.Emit("done", "archive ready at "+archive, run.WithPercent(100)); err != nil {
		return "", &PipelineError{Stage: "zip", Err: err}
	}
	return archive, nil
}

// enterStage checks for cancellation at the stage boundary and emits the
// stage's progress event.
func (o *Orchestrator) enterStage(ctx context.Context, tracker *run.Tracker, idx int, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := stages[idx]
	if err := tracker.Emit(s.name, message, run.WithPercent(s.percent), run.WithStep(idx+1, len(stages))); err != nil {
		return &PipelineError{Stage: s.name, Err: err}
	}
	return nil
}

func (o *Orchestrator) completer(req Request) gamespec.Completer {
	if req.Enrichment == nil || o.NewCompleter == nil {
		return nil
	}
	c, err := o.NewCompleter(*req.Enrichment)
	if err != nil {
		o.Logger.Warn("enrichment backend unavailable, continuing without it", "error", err)
		return nil
	}
	return c
}
