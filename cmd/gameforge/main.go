// Command gameforge generates buildable Flutter/Flame game projects from
// free-text prompts, as a one-shot CLI or a long-running HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gameforge/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
