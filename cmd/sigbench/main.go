// Command sigbench runs reactive workloads described in YAML files and
// reports what the runtime did, once or continuously behind a metrics
// endpoint.
package main

import (
	"fmt"
	"log/slog"
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
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "sigbench",
		Short: "Run reactive workloads against the sig runtime",
		Long: `sigbench builds reactive graphs described in YAML workload files,
drives them with batched writes, store updates and scheduled tasks,
and reports the flushes, computations and effects they caused.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	logger := func() (*slog.Logger, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
	}

	cmd.AddCommand(
		runCmd(logger),
		serveCmd(logger),
		versionCmd(),
	)

	return cmd
}
