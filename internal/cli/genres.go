package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gameforge/internal/genre"
)

// NewGenresCommand creates the genres command, which lists the registered
// genre plugins and their inference keywords.
func NewGenresCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List available genre plugins",
		Example: `  gameforge genres
  gameforge genres --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenres(cmd, rootOpts)
		},
	}
}

func runGenres(cmd *cobra.Command, opts *RootOptions) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	infos := genre.NewRegistry().Infos()

	if opts.Format == "json" {
		type genreEntry struct {
			ID          string   `json:"id"`
			Orientation string   `json:"orientation"`
			Keywords    []string `json:"keywords"`
		}
		entries := make([]genreEntry, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, genreEntry{
				ID:          info.ID,
				Orientation: info.Orientation,
				Keywords:    info.Keywords,
			})
		}
		return formatter.Success(map[string]any{"genres": entries})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Available genres (%d):\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(out, "  %-20s %-10s keywords: %s\n",
			info.ID, info.Orientation, strings.Join(info.Keywords, ", "))
	}
	return nil
}
