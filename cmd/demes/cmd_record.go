package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/forward"
	"github.com/demes-dev/demes-go/internal/history"
	"github.com/demes-dev/demes-go/internal/loader"
	"github.com/demes-dev/demes-go/internal/logging"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <model.yaml>",
		Short: "Run a model forward and record every generation",
		Long: `Run a model forward and record every generation to the run database.

Runs are stored in the history directory (default .demes/history.db)
and can be listed with 'demes runs' and exported with 'demes export'.

Examples:
  demes record model.yaml
  demes record model.yaml --burnin 500 --label "long burn-in"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			label, _ := cmd.Flags().GetString("label")

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
			if label == "" {
				label = filepath.Base(args[0])
			}

			g, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			f, err := forward.New(g, burnin)
			if err != nil {
				return err
			}

			store, err := history.NewStore(cfg.History.Dir)
			if err != nil {
				return err
			}
			defer store.Close()

			runID, err := store.RecordRun(cmd.Context(), f, label, func(step history.Step) {
				trace.Log(map[string]any{
					"event":          "step",
					"label":          label,
					"forward_time":   step.Time,
					"parental_sizes": step.ParentalSizes,
				})
			})
			if err != nil {
				return err
			}
			logger.Info("recorded run", "id", runID, "label", label, "steps", f.ModelEndTime())

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id": runID, "label": label, "steps": f.ModelEndTime(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded run %d (%s): %g generations\n",
				runID, label, f.ModelEndTime())
			return nil
		},
	}

	cmd.Flags().Float64("burnin", 100, "Burn-in length in generations")
	cmd.Flags().String("label", "", "Run label (defaults to the model file name)")

	return cmd
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadToolConfig(cmd)
			if err != nil {
				return err
			}
			store, err := history.NewStore(cfg.History.Dir)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			for _, run := range runs {
				status := "unfinished"
				if run.FinishedAt != nil {
					status = run.FinishedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(out, "  %d: %s, %d demes, %g generations, %s\n",
					run.ID, run.Label, len(run.DemeNames), run.EndTime, status)
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a recorded run as JSONL or Arrow IPC",
		Long: `Export a recorded run as JSONL or Arrow IPC.

Examples:
  demes export 1 --output run1.jsonl
  demes export 1 --format arrow --output run1.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}

			cfg, err := loadToolConfig(cmd)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.History.Format
			}

			store, err := history.NewStore(cfg.History.Dir)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				w = file
			}

			switch format {
			case "jsonl":
				return store.ExportJSONL(cmd.Context(), runID, w)
			case "arrow":
				return store.ExportArrow(cmd.Context(), runID, w)
			default:
				return fmt.Errorf("unknown format %q (valid: jsonl, arrow)", format)
			}
		},
	}

	cmd.Flags().String("format", "", "Export format: jsonl or arrow (default from config)")
	cmd.Flags().String("output", "", "Output file (defaults to stdout)")

	return cmd
}
