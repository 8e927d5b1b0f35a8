package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/gameforge/internal/enrich"
	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/orchestrator"
	"github.com/roach88/gameforge/internal/run"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions

	Out       string
	RunsDir   string
	AssetsDir string

	Platform string
	Scope    string
	ArtStyle string
	Genre    string
	Online   bool
	Seed     int64

	EnrichmentProvider string
	EnrichmentModel    string
	EnrichmentBaseURL  string

	DesignDoc       bool
	DesignDocFormat string

	Validate    bool
	AutoFix     bool
	SmokeTest   bool
	Interactive bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a complete game project from a prompt",
		Long: `Generate a buildable Flutter/Flame game project from a free-text
prompt and package it as a zip archive.

Example:
  gameforge generate "top down space shooter with asteroids" --out shooter.zip
  gameforge generate "idle RPG with upgrades" --seed 42 --design-doc --validate`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "game.zip", "output archive path")
	cmd.Flags().StringVar(&opts.RunsDir, "runs-dir", "runs", "base directory for run artifacts")
	cmd.Flags().StringVar(&opts.AssetsDir, "assets-dir", "", "local directory of candidate art/audio assets")

	cmd.Flags().StringVar(&opts.Platform, "platform", "", "target platform (android|android+ios)")
	cmd.Flags().StringVar(&opts.Scope, "scope", "", "project scope (prototype|vertical-slice)")
	cmd.Flags().StringVar(&opts.ArtStyle, "art-style", "", "art style hint")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "force a genre, skipping inference")
	cmd.Flags().BoolVar(&opts.Online, "online", false, "request online features")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for deterministic heuristic output")

	cmd.Flags().StringVar(&opts.EnrichmentProvider, "enrichment-provider", "", "LLM provider for enrichment (e.g. ollama, openai)")
	cmd.Flags().StringVar(&opts.EnrichmentModel, "enrichment-model", "", "LLM model for enrichment")
	cmd.Flags().StringVar(&opts.EnrichmentBaseURL, "enrichment-base-url", "", "LLM API base URL")

	cmd.Flags().BoolVar(&opts.DesignDoc, "design-doc", false, "generate a design document")
	cmd.Flags().StringVar(&opts.DesignDocFormat, "design-doc-format", "json", "design doc rendering (json|md)")

	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "validate the project with the Flutter toolchain")
	cmd.Flags().BoolVar(&opts.AutoFix, "auto-fix", false, "apply patch rules and retry on validation failure")
	cmd.Flags().BoolVar(&opts.SmokeTest, "smoke-test", false, "run flutter test during validation")
	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "prompt for unset constraints")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, prompt string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	req := buildRequest(cmd, opts, prompt)

	runID := uuid.NewString()
	tracker, err := run.NewTracker(opts.RunsDir, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create run directory", err)
	}
	defer tracker.Close()

	o := orchestrator.New(slog.Default())
	o.Stdin = cmd.InOrStdin()
	o.Stdout = cmd.OutOrStdout()

	ctx := signalContext(cmd)
	archive, err := o.Run(ctx, req, tracker)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "generation cancelled", err)
		}
		formatter.Error("E100", "generation failed", pipelineDetails(err))
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	return formatter.Success(map[string]string{
		"run_id":  runID,
		"archive": archive,
	})
}

// pipelineDetails maps a pipeline failure to structured details: the stage
// that raised it, per-field errors when constraints or the schema rejected
// input, and the failing toolchain state for validation errors.
func pipelineDetails(err error) []ErrorDetail {
	var details []ErrorDetail
	var stageErr *orchestrator.PipelineError
	if errors.As(err, &stageErr) {
		details = append(details, ErrorDetail{Field: "stage", Message: stageErr.Stage})
	}
	var fieldErrs gamespec.FieldErrors
	if errors.As(err, &fieldErrs) {
		details = append(details, FieldErrorDetails(fieldErrs)...)
	}
	var valErr *orchestrator.ValidationFailedError
	if errors.As(err, &valErr) {
		details = append(details, ErrorDetail{Field: "failed_at", Message: string(valErr.FailedAt)})
	}
	if details == nil {
		details = []ErrorDetail{{Message: err.Error()}}
	}
	return details
}

// buildRequest converts flags into the normalized pipeline request. Flags
// the user never set stay out of the request so resolver defaults apply.
func buildRequest(cmd *cobra.Command, opts *GenerateOptions, prompt string) orchestrator.Request {
	req := orchestrator.Request{
		Prompt:          prompt,
		Out:             opts.Out,
		AssetsDir:       opts.AssetsDir,
		Platform:        opts.Platform,
		Scope:           opts.Scope,
		ArtStyle:        opts.ArtStyle,
		Genre:           opts.Genre,
		DesignDoc:       opts.DesignDoc,
		DesignDocFormat: opts.DesignDocFormat,
		Validate:        opts.Validate,
		AutoFix:         opts.AutoFix,
		SmokeTest:       opts.SmokeTest,
		Interactive:     opts.Interactive,
	}
	if cmd.Flags().Changed("online") {
		req.Online = &opts.Online
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &opts.Seed
	}
	if opts.EnrichmentProvider != "" || opts.EnrichmentModel != "" {
		req.Enrichment = &enrich.Config{
			Provider: opts.EnrichmentProvider,
			Model:    opts.EnrichmentModel,
			BaseURL:  opts.EnrichmentBaseURL,
		}
	}
	return req
}

// signalContext derives a context cancelled on SIGINT/SIGTERM so a run can
// stop at the next stage boundary.
func signalContext(cmd *cobra.Command) context.Context {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx
}
