package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demes-dev/demes-go/internal/loader"
	"github.com/demes-dev/demes-go/internal/model"
)

// demeDescription is the JSON view of one deme. Times are rendered as
// strings because a deme's start may be infinite, which JSON numbers
// cannot carry.
type demeDescription struct {
	Name      string   `json:"name"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Epochs    int      `json:"epochs"`
	Ancestors []string `json:"ancestors,omitempty"`
}

// graphDescription is the JSON view of a model.
type graphDescription struct {
	Description string            `json:"description,omitempty"`
	TimeUnits   string            `json:"time_units"`
	Demes       []demeDescription `json:"demes"`
	Pulses      int               `json:"pulses"`
	Migrations  int               `json:"migrations"`
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <model.yaml>",
		Short: "Describe a model's demes, epochs, and gene flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			g, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			desc := describeGraph(g)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(desc)
			}

			out := cmd.OutOrStdout()
			if desc.Description != "" {
				fmt.Fprintln(out, desc.Description)
			}
			fmt.Fprintf(out, "time units: %s\n", desc.TimeUnits)
			for _, d := range desc.Demes {
				line := fmt.Sprintf("  %s: %s -> %s, %d epoch(s)",
					d.Name, d.StartTime, d.EndTime, d.Epochs)
				if len(d.Ancestors) > 0 {
					line += fmt.Sprintf(", ancestors: %s", strings.Join(d.Ancestors, ", "))
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "pulses: %d, migrations: %d\n", desc.Pulses, desc.Migrations)
			return nil
		},
	}
}

// describeGraph flattens a graph into its description view.
func describeGraph(g *model.Graph) graphDescription {
	desc := graphDescription{
		Description: g.Description(),
		TimeUnits:   g.TimeUnits(),
		Pulses:      g.NumPulses(),
		Migrations:  g.NumMigrations(),
	}
	for i, d := range g.DemeIter() {
		dd := demeDescription{
			Name:      d.Name(),
			StartTime: formatTime(d.StartTime()),
			EndTime:   formatTime(d.EndTime()),
			Epochs:    d.NumEpochs(),
		}
		if ancestry, err := g.Ancestry(i); err == nil {
			for anc := range ancestry {
				dd.Ancestors = append(dd.Ancestors, anc.Name())
			}
		}
		desc.Demes = append(desc.Demes, dd)
	}
	return desc
}

// formatTime renders a backwards time, using "inf" for infinite starts.
func formatTime(t float64) string {
	if math.IsInf(t, 1) {
		return "inf"
	}
	return fmt.Sprintf("%g", t)
}
