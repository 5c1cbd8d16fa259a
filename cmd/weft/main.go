package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weft",
		Short: "Fine-grained reactive state for Go",
		Long: `Weft is a fine-grained reactive runtime for Go.

Signals hold state, memos derive from it, and effects push changes out
to the rest of the program. Updates propagate glitch-free: a dependent
recomputes at most once per change, and only when its inputs actually
changed.

This CLI benchmarks the runtime and serves a live inspection endpoint
for a demo graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
