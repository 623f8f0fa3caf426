package simulation

import (
	"errors"
	"testing"

	"github.com/demes-dev/demes-go/internal/forward"
	"github.com/demes-dev/demes-go/internal/loader"
)

// Runner drives whole forward runs against real loaded models.
type Runner struct {
	t *testing.T
}

// NewRunner creates a simulation runner.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run executes the scenario's full time sequence and returns the
// collected per-generation results.
func (r *Runner) Run(scenario Scenario) RunResult {
	r.t.Helper()

	g, err := loader.Loads(scenario.Model)
	if err != nil {
		r.t.Fatalf("%s: loading model: %v", scenario.Name, err)
	}
	f, err := forward.New(g, scenario.Burnin)
	if err != nil {
		r.t.Fatalf("%s: forward.New: %v", scenario.Name, err)
	}

	if err := f.BeginTimeIteration(); err != nil {
		r.t.Fatalf("%s: BeginTimeIteration: %v", scenario.Name, err)
	}

	var steps []StepResult
	for {
		t, ok, err := f.NextTime()
		if err != nil {
			r.t.Fatalf("%s: NextTime: %v", scenario.Name, err)
		}
		if !ok {
			break
		}
		if scenario.BeforeStep != nil {
			scenario.BeforeStep(t, f)
		}
		if err := f.UpdateState(t); err != nil {
			r.t.Fatalf("%s: UpdateState(%v): %v (graph state %s)",
				scenario.Name, t, err, f.State())
		}
		steps = append(steps, r.capture(scenario, t, f))
	}

	if f.State() != forward.StateFinished {
		r.t.Fatalf("%s: run ended in state %s", scenario.Name, f.State())
	}
	return RunResult{Steps: steps, Graph: f}
}

// capture snapshots the graph's per-generation quantities.
func (r *Runner) capture(scenario Scenario, t float64, f *forward.Graph) StepResult {
	r.t.Helper()

	sr := StepResult{Time: t}
	var err error
	if sr.Parental, err = f.ParentalDemeSizes(); err != nil {
		r.t.Fatalf("%s: ParentalDemeSizes at %v: %v", scenario.Name, t, err)
	}
	if sr.Offspring, err = f.OffspringDemeSizes(); err != nil {
		r.t.Fatalf("%s: OffspringDemeSizes at %v: %v", scenario.Name, t, err)
	}
	if sr.Offspring == nil {
		return sr
	}

	sr.Ancestry = make([][]float64, f.NumDemes())
	for child := range f.NumDemes() {
		row, err := f.AncestryProportions(child)
		if err != nil {
			if errors.Is(err, forward.ErrNotComputed) {
				continue
			}
			r.t.Fatalf("%s: AncestryProportions(%d) at %v: %v", scenario.Name, child, t, err)
		}
		sr.Ancestry[child] = row
	}
	return sr
}
