package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/gameforge/internal/orchestrator"
	"github.com/roach88/gameforge/internal/server"
	"github.com/roach88/gameforge/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Config string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the asynchronous generation service",
		Long: `Start the HTTP service exposing POST /generate, GET /status/{id},
and GET /download/{id}. Run state is durable: artifacts live under the
runs directory and the run index survives restarts.

Example:
  gameforge serve
  gameforge serve --config config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config file")
	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := server.DefaultConfig()
	if opts.Config != "" {
		var err error
		cfg, err = server.LoadConfig(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	if err := os.MkdirAll(cfg.RunsDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create runs directory", err)
	}

	slog.Info("opening run index", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run index", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing run index", "error", closeErr)
		}
	}()

	srv := server.New(cfg, orchestrator.New(slog.Default()), st, slog.Default())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := srv.Recover(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to recover interrupted runs", err)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
