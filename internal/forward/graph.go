// Package forward drives a demographic model graph forward in time. A
// Graph wraps an immutable model.Graph and recomputes, per discrete
// generation, the parental and offspring deme sizes and the per-child
// ancestry proportion vectors that a forward simulation consumes.
//
// A Graph moves through the states Ready, Stepping, and Finished; any
// invariant violation during stepping puts it into the absorbing Errored
// state. A Graph is not safe for concurrent use; the model.Graph it reads
// is never mutated.
package forward

import (
	"fmt"
	"math"
	"slices"

	"github.com/demes-dev/demes-go/internal/constants"
	"github.com/demes-dev/demes-go/internal/model"
)

// State is the lifecycle state of a forward Graph.
type State int

const (
	// StateUninitialized is the zero value; only New produces usable graphs.
	StateUninitialized State = iota
	// StateReady means the graph validated and time iteration has not begun.
	StateReady
	// StateStepping means time iteration is in progress.
	StateStepping
	// StateFinished means the time sequence is exhausted.
	StateFinished
	// StateErrored means a stepping invariant was violated; the instance
	// must be discarded.
	StateErrored
)

// String returns a short lower-case name for the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateStepping:
		return "stepping"
	case StateFinished:
		return "finished"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Graph is a time-stepping view over a demographic model. All mutation is
// confined to the Graph itself.
type Graph struct {
	model *model.Graph
	time  ModelTime
	state State
	err   error

	cursor float64 // last forward time produced by NextTime

	hasUpdate      bool
	parentalSizes  []float64
	offspringSizes []float64 // nil when the last update was at the final step
	ancestry       *squareMatrix
}

// New validates the model graph, converts it to generations if needed,
// and returns a Ready forward graph with the given burn-in length.
func New(g *model.Graph, burnin float64) (*Graph, error) {
	gens, err := g.ToGenerations()
	if err != nil {
		return nil, err
	}
	mt, err := NewModelTime(burnin, gens)
	if err != nil {
		return nil, err
	}
	return &Graph{
		model:         gens,
		time:          mt,
		state:         StateReady,
		parentalSizes: make([]float64, gens.NumDemes()),
		ancestry:      newSquareMatrix(gens.NumDemes()),
	}, nil
}

// Model returns the underlying graph, in generations.
func (f *Graph) Model() *model.Graph { return f.model }

// State returns the current lifecycle state.
func (f *Graph) State() State { return f.state }

// Err returns the error that moved the graph into StateErrored, or nil.
func (f *Graph) Err() error { return f.err }

// NumDemes returns the number of demes in the underlying model.
func (f *Graph) NumDemes() int { return f.model.NumDemes() }

// Burnin returns the burn-in length in generations.
func (f *Graph) Burnin() float64 { return f.time.Burnin() }

// ModelEndTime returns the total forward length of the model, burn-in
// included. The final time produced by NextTime is ModelEndTime() - 1.
func (f *Graph) ModelEndTime() float64 { return f.time.EndTime() }

// BeginTimeIteration establishes the sequence of discrete forward times
// and moves the graph from Ready to Stepping.
func (f *Graph) BeginTimeIteration() error {
	if f.state != StateReady {
		return fmt.Errorf("%w: BeginTimeIteration in state %s", ErrInvalidState, f.state)
	}
	f.cursor = -1
	f.state = StateStepping
	return nil
}

// NextTime produces the next forward time, or false when the sequence is
// exhausted, which moves the graph to Finished. The sequence is lazy and
// non-restartable: 0, 1, ..., ModelEndTime()-1.
func (f *Graph) NextTime() (float64, bool, error) {
	switch f.state {
	case StateStepping:
	case StateFinished:
		return 0, false, nil
	default:
		return 0, false, fmt.Errorf("%w: NextTime in state %s", ErrInvalidState, f.state)
	}
	if f.cursor < f.time.EndTime()-1 {
		f.cursor++
		return f.cursor, true, nil
	}
	f.state = StateFinished
	return 0, false, nil
}

// UpdateState recomputes the per-generation quantities for forward time t:
// parental deme sizes always, offspring deme sizes and ancestry proportion
// rows when t < ModelEndTime()-1. Fails with ErrInvalidState outside
// Stepping; an invariant violation moves the graph to Errored.
func (f *Graph) UpdateState(t float64) error {
	if f.state != StateStepping {
		return fmt.Errorf("%w: UpdateState in state %s", ErrInvalidState, f.state)
	}
	bt, ok := f.time.Convert(t)
	if !ok {
		return fmt.Errorf("%w: forward time %v is past the model end %v",
			model.ErrOutOfBounds, t, f.time.EndTime())
	}

	for i, d := range f.model.DemeIter() {
		f.parentalSizes[i] = f.parentalSize(d, bt)
	}

	if t < f.time.EndTime()-1 {
		ot := bt - 1 // backwards time of the offspring generation
		if f.offspringSizes == nil {
			f.offspringSizes = make([]float64, f.model.NumDemes())
		}
		f.ancestry.fill(0)
		for i, d := range f.model.DemeIter() {
			f.offspringSizes[i] = f.currentSize(d, ot)
			if f.offspringSizes[i] > 0 {
				f.updateAncestry(i, d, bt, ot)
			}
		}
		if err := f.checkAncestryInvariants(); err != nil {
			f.state = StateErrored
			f.err = err
			return err
		}
	} else {
		f.offspringSizes = nil
	}

	f.hasUpdate = true
	return nil
}

// currentSize evaluates a deme's size at backwards time t, or 0 when the
// deme does not exist then.
func (f *Graph) currentSize(d *model.Deme, t float64) float64 {
	if !d.AliveAt(t) {
		return 0
	}
	size, err := d.SizeAt(t)
	if err != nil {
		// Alive demes always have a defined size; a failure here is a
		// construction-time defect.
		panic(fmt.Sprintf("deme %q has no size at %v: %v", d.Name(), t, err))
	}
	return size
}

// parentalSize is currentSize extended for ancestor-less demes that enter
// the model at a finite time: at its start time such a deme sources its
// own first generation, so it counts as a parent there.
func (f *Graph) parentalSize(d *model.Deme, t float64) float64 {
	if !d.AliveAt(t) && d.NumAncestors() == 0 && t == d.StartTime() {
		size, err := d.SizeAt(t)
		if err != nil {
			return 0
		}
		return size
	}
	return f.currentSize(d, t)
}

// updateAncestry fills the ancestry row of child deme i for parents at
// backwards time bt. The base row is the child's own ancestors in its
// first generation and the identity otherwise. Pulses and migrations
// apply at the offspring time ot, one generation closer to the present
// than the parents: a pulse at time T changes the ancestry of children
// born at T. Each event rescales the row and adds its inflow.
func (f *Graph) updateAncestry(i int, child *model.Deme, bt, ot float64) {
	row := f.ancestry.row(i)

	if !child.AliveAt(bt) {
		// First generation of the child: ancestry comes entirely from
		// its ancestors, or from itself for a mid-model root.
		if child.NumAncestors() == 0 {
			row[i] = 1.0
		} else {
			for a, p := range child.AncestorIter() {
				row[a] += p
			}
		}
	} else {
		row[i] = 1.0
	}

	for p := range f.model.PulseIter() {
		if p.Dest() != i || p.Time() != ot {
			continue
		}
		inflow := 0.0
		for _, prop := range p.SourceIter() {
			inflow += prop
		}
		rescale(row, 1.0-inflow)
		for s, prop := range p.SourceIter() {
			row[s] += prop
		}
	}

	inflow := 0.0
	for m := range f.model.MigrationIter() {
		if m.Dest() == i && m.ActiveAt(ot) {
			inflow += m.Rate()
		}
	}
	if inflow > 0 {
		rescale(row, 1.0-inflow)
		for m := range f.model.MigrationIter() {
			if m.Dest() == i && m.ActiveAt(ot) {
				row[m.Source()] += m.Rate()
			}
		}
	}
}

// checkAncestryInvariants verifies every computed ancestry row: entries
// finite and in [0, 1], the row summing to 1, and positive entries backed
// by a positive parental deme size.
func (f *Graph) checkAncestryInvariants() error {
	for child := range f.model.NumDemes() {
		if f.offspringSizes[child] <= 0 {
			continue
		}
		row := f.ancestry.row(child)
		sum := 0.0
		for parent, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
				return fmt.Errorf("ancestry proportion %v of child %d from parent %d is invalid",
					p, child, parent)
			}
			if p > 0 && f.parentalSizes[parent] <= 0 {
				return fmt.Errorf("child %d draws ancestry %v from parent %d whose size is zero",
					child, p, parent)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > constants.ProportionTolerance {
			return fmt.Errorf("ancestry proportions of child %d sum to %v, not 1", child, sum)
		}
	}
	return nil
}

// ParentalDemeSizes returns a copy of the per-deme parental sizes from
// the last UpdateState.
func (f *Graph) ParentalDemeSizes() ([]float64, error) {
	if f.state != StateStepping || !f.hasUpdate {
		return nil, fmt.Errorf("%w: no state update in state %s", ErrInvalidState, f.state)
	}
	return slices.Clone(f.parentalSizes), nil
}

// OffspringDemeSizes returns a copy of the per-deme offspring sizes from
// the last UpdateState, or nil (with no error) when the last update was
// at the final time step, where no offspring generation exists.
func (f *Graph) OffspringDemeSizes() ([]float64, error) {
	if f.state != StateStepping || !f.hasUpdate {
		return nil, fmt.Errorf("%w: no state update in state %s", ErrInvalidState, f.state)
	}
	if f.offspringSizes == nil {
		return nil, nil
	}
	return slices.Clone(f.offspringSizes), nil
}

// AncestryProportions returns a copy of the ancestry proportion vector of
// the given child deme from the last UpdateState. Fails with
// ErrNotComputed when the child's offspring size is zero or the model is
// past ModelEndTime()-1.
func (f *Graph) AncestryProportions(child int) ([]float64, error) {
	if f.state != StateStepping || !f.hasUpdate {
		return nil, fmt.Errorf("%w: no state update in state %s", ErrInvalidState, f.state)
	}
	if child < 0 || child >= f.model.NumDemes() {
		return nil, fmt.Errorf("%w: child %d (have %d)", model.ErrIndexOutOfRange,
			child, f.model.NumDemes())
	}
	if f.offspringSizes == nil {
		return nil, fmt.Errorf("%w: no offspring generation at the final time step", ErrNotComputed)
	}
	if f.offspringSizes[child] <= 0 {
		return nil, fmt.Errorf("%w: child %d has zero offspring size", ErrNotComputed, child)
	}
	return slices.Clone(f.ancestry.row(child)), nil
}

// AnyExtantParents reports whether any deme has a positive parental size
// in the last updated state.
func (f *Graph) AnyExtantParents() bool {
	if !f.hasUpdate {
		return false
	}
	for _, s := range f.parentalSizes {
		if s > 0 {
			return true
		}
	}
	return false
}

// AnyExtantOffspring reports whether any deme has a positive offspring
// size in the last updated state.
func (f *Graph) AnyExtantOffspring() bool {
	if !f.hasUpdate || f.offspringSizes == nil {
		return false
	}
	for _, s := range f.offspringSizes {
		if s > 0 {
			return true
		}
	}
	return false
}

func rescale(row []float64, factor float64) {
	for i := range row {
		row[i] *= factor
	}
}
