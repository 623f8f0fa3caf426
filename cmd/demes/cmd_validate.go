package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/loader"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model.yaml>",
		Short: "Validate a demographic model file",
		Long: `Validate a demographic model file.

The model is parsed, resolved against the format's default rules, and
checked against all structural constraints: epoch time ordering,
ancestry proportions, pulse and migration intervals.

Examples:
  demes validate model.yaml
  demes validate --json model.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			g, err := loader.Load(args[0])
			if jsonOut {
				out := map[string]any{"file": args[0], "valid": err == nil}
				if err != nil {
					out["error"] = err.Error()
				} else {
					out["demes"] = g.NumDemes()
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(out)
			}

			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d demes, %d pulses, %d migrations\n",
				args[0], g.NumDemes(), g.NumPulses(), g.NumMigrations())
			return nil
		},
	}
}
