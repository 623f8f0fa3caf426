package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/config"
	"github.com/demes-dev/demes-go/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "demes",
		Short: "Demes - demographic model toolkit",
		Long: `demes loads, validates, and runs demographic models written in the
demes YAML format.

It resolves models to fully-specified graphs, evaluates deme sizes
through time, and iterates models forward generation by generation,
optionally recording runs for later export.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, or trace")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newDescribeCmd(),
		newSizeCmd(),
		newForwardCmd(),
		newRecordCmd(),
		newRunsCmd(),
		newExportCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "demes version %s\n", version)
			}
		},
	}
}

// loadToolConfig loads the tool configuration and applies the command's
// flag overrides.
func loadToolConfig(cmd *cobra.Command) (*config.DemesConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCmdLogger builds the operational logger for a command.
func newCmdLogger(cfg *config.DemesConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}
