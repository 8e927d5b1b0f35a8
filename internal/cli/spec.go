package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/genre"
	"github.com/roach88/gameforge/internal/schema"
)

// SpecOptions holds flags for the spec command.
type SpecOptions struct {
	*RootOptions

	Platform string
	Scope    string
	ArtStyle string
	Genre    string
	Online   bool
	Seed     int64
}

// NewSpecCommand creates the spec command, which prints the generated
// GameSpec as JSON without scaffolding a project.
func NewSpecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "spec <prompt>",
		Short: "Print the generated game spec without scaffolding",
		Example: `  gameforge spec "idle RPG with upgrades"
  gameforge spec "space shooter" --genre top_down_shooter --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpec(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Platform, "platform", "", "target platform (android|android+ios)")
	cmd.Flags().StringVar(&opts.Scope, "scope", "", "project scope (prototype|vertical-slice)")
	cmd.Flags().StringVar(&opts.ArtStyle, "art-style", "", "art style hint")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "force a genre, skipping inference")
	cmd.Flags().BoolVar(&opts.Online, "online", false, "request online features")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for deterministic heuristic output")

	return cmd
}

func runSpec(cmd *cobra.Command, opts *SpecOptions, prompt string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	overrides := gamespec.Overrides{
		Platform: opts.Platform,
		Scope:    opts.Scope,
		ArtStyle: opts.ArtStyle,
		Genre:    opts.Genre,
	}
	if cmd.Flags().Changed("online") {
		overrides.Online = &opts.Online
	}
	if cmd.Flags().Changed("seed") {
		overrides.Seed = &opts.Seed
	}

	resolver := &gamespec.Resolver{Logger: slog.Default()}
	cons, err := resolver.Resolve(overrides)
	if err != nil {
		formatter.Error("E201", "invalid constraints", fieldDetails(err))
		return WrapExitError(ExitFailure, "invalid constraints", err)
	}

	generator := &gamespec.Generator{
		Genres:   genre.NewRegistry().Infos(),
		Validate: schema.ValidateGameSpec,
		Logger:   slog.Default(),
	}
	spec, err := generator.Generate(cmd.Context(), prompt, cons)
	if err != nil {
		formatter.Error("E203", "spec generation failed", fieldDetails(err))
		return WrapExitError(ExitFailure, "spec generation failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(spec)
	}
	pretty, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render spec", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	return nil
}
