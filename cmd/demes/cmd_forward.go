package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/forward"
	"github.com/demes-dev/demes-go/internal/loader"
	"github.com/demes-dev/demes-go/internal/logging"
)

// forwardSummary is the JSON view of a completed forward run.
type forwardSummary struct {
	File       string    `json:"file"`
	Burnin     float64   `json:"burnin"`
	EndTime    float64   `json:"end_time"`
	Steps      int       `json:"steps"`
	DemeNames  []string  `json:"deme_names"`
	FinalSizes []float64 `json:"final_sizes"`
}

func newForwardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forward <model.yaml>",
		Short: "Iterate a model forward in time and summarize the run",
		Long: `Iterate a model forward in time and summarize the run.

The model is converted to generations, prefixed with a burn-in period,
and stepped one generation at a time from the oldest event to the
present. At trace log level every generation is logged.

Examples:
  demes forward model.yaml
  demes forward model.yaml --burnin 500 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadToolConfig(cmd)
			if err != nil {
				return err
			}
			logger := newCmdLogger(cfg)
			trace := logging.NewTraceLogger(cfg.History.Dir, cfg.Logging.Level)
			defer trace.Close()

			burnin := cfg.Forward.Burnin
			if cmd.Flags().Changed("burnin") {
				burnin, _ = cmd.Flags().GetFloat64("burnin")
			}

			g, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			f, err := forward.New(g, burnin)
			if err != nil {
				return err
			}

			summary := forwardSummary{
				File:    args[0],
				Burnin:  burnin,
				EndTime: f.ModelEndTime(),
			}
			for _, d := range f.Model().DemeIter() {
				summary.DemeNames = append(summary.DemeNames, d.Name())
			}

			logger.Debug("starting forward run",
				"file", args[0], "burnin", burnin, "end_time", f.ModelEndTime())

			if err := f.BeginTimeIteration(); err != nil {
				return err
			}
			for {
				t, ok, err := f.NextTime()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if err := f.UpdateState(t); err != nil {
					return fmt.Errorf("at forward time %g: %w", t, err)
				}
				sizes, err := f.ParentalDemeSizes()
				if err != nil {
					return err
				}
				summary.FinalSizes = sizes
				summary.Steps++
				logger.Log(cmd.Context(), logging.LevelTrace, "step",
					"time", t, "parental_sizes", sizes)
				trace.Log(map[string]any{
					"event":          "step",
					"file":           args[0],
					"forward_time":   t,
					"parental_sizes": sizes,
				})
			}

			logger.Debug("forward run finished", "steps", summary.Steps)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ran %d generations (burn-in %g)\n", summary.Steps, burnin)
			for i, name := range summary.DemeNames {
				fmt.Fprintf(out, "  %s: final size %g\n", name, summary.FinalSizes[i])
			}
			return nil
		},
	}

	cmd.Flags().Float64("burnin", 100, "Burn-in length in generations")

	return cmd
}
