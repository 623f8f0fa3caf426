package simulation

import (
	"testing"

	"github.com/demes-dev/demes-go/internal/forward"
)

// Scenario defines a complete forward-run experiment.
type Scenario struct {
	Name   string
	Model  string // YAML model text
	Burnin float64

	// BeforeStep, when non-nil, is called with each forward time before
	// the state update. Use this to interleave checks mid-run.
	BeforeStep func(t float64, f *forward.Graph)
}

// StepResult captures the quantities of one generation.
// Offspring and Ancestry are nil at the final time step; Ancestry rows of
// demes with zero offspring size are nil.
type StepResult struct {
	Time      float64
	Parental  []float64
	Offspring []float64
	Ancestry  [][]float64
}

// RunResult captures all generations and the finished graph.
type RunResult struct {
	Steps []StepResult
	Graph *forward.Graph
}

// DemeIndex resolves a deme name against the run's model.
func (r RunResult) DemeIndex(t *testing.T, name string) int {
	t.Helper()
	i, err := r.Graph.Model().DemeIndex(name)
	if err != nil {
		t.Fatalf("DemeIndex(%s): %v", name, err)
	}
	return i
}
