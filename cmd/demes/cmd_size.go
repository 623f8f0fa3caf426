package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/loader"
)

func newSizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size <model.yaml>",
		Short: "Evaluate a deme's population size at a backwards time",
		Long: `Evaluate a deme's population size at a backwards time.

The time is interpreted in the model's own time units; 0 is the present.

Examples:
  demes size model.yaml --deme ancestral --time 100
  demes size model.yaml --deme derived --time 0 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			demeName, _ := cmd.Flags().GetString("deme")
			t, _ := cmd.Flags().GetFloat64("time")

			g, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			d, err := g.DemeByName(demeName)
			if err != nil {
				return err
			}
			size, err := d.SizeAt(t)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"deme": demeName, "time": t, "size": size,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at time %g: %g\n", demeName, t, size)
			return nil
		},
	}

	cmd.Flags().String("deme", "", "Deme name")
	cmd.Flags().Float64("time", 0, "Backwards time to evaluate at")
	cmd.MarkFlagRequired("deme")

	return cmd
}
