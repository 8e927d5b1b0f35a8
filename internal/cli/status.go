package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gameforge/internal/run"
	"github.com/roach88/gameforge/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	RunsDir string
	DBPath  string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status and event history of a run",
		Example: `  gameforge status 6f1c9b7e-...
  gameforge status 6f1c9b7e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.RunsDir, "runs-dir", "runs", "base directory for run artifacts")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the sqlite run index (fallback lookup)")
	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions, runID string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rec, err := loadRecord(cmd.Context(), opts, runID)
	if err != nil {
		formatter.Error("E404", fmt.Sprintf("run %s not found", runID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:     %s\n", rec.RunID)
	fmt.Fprintf(out, "Status:  %s\n", rec.Status)
	fmt.Fprintf(out, "Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Updated: %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:   %s\n", rec.Error)
	}
	fmt.Fprintf(out, "Events:  %d\n", len(rec.Events))
	for _, ev := range rec.Events {
		pct := ""
		if ev.Percent != nil {
			pct = fmt.Sprintf(" (%d%%)", *ev.Percent)
		}
		fmt.Fprintf(out, "  %s [%s]%s %s\n", ev.Timestamp.Format("15:04:05"), ev.Stage, pct, ev.Message)
	}
	return nil
}

// loadRecord reads the on-disk snapshot first (full event history), falling
// back to the sqlite index when a db path was supplied.
func loadRecord(ctx context.Context, opts *StatusOptions, runID string) (run.Record, error) {
	rec, err := run.ReadRecord(opts.RunsDir, runID)
	if err == nil {
		return rec, nil
	}
	if opts.DBPath == "" {
		return rec, err
	}

	st, openErr := store.Open(opts.DBPath)
	if openErr != nil {
		return rec, openErr
	}
	defer st.Close()
	return st.GetRun(ctx, runID)
}
