package model

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// Deme is a modeled population: an ordered sequence of epochs spanning its
// lifetime plus non-owning ancestry links into the graph's deme table.
//
// Epochs are ordered oldest to youngest and contiguous: each epoch's end
// time equals the next epoch's start time. Ancestors and Proportions are
// parallel slices preserved exactly in construction order.
type Deme struct {
	name        string
	description string
	epochs      []Epoch
	ancestors   []int
	proportions []float64
}

// Name returns the deme's name, unique within its graph.
func (d *Deme) Name() string { return d.name }

// Description returns the deme's free-form description.
func (d *Deme) Description() string { return d.description }

// StartTime returns the oldest time of the deme's first epoch. May be +Inf.
func (d *Deme) StartTime() float64 { return d.epochs[0].startTime }

// EndTime returns the youngest time of the deme's last epoch.
func (d *Deme) EndTime() float64 { return d.epochs[len(d.epochs)-1].endTime }

// NumEpochs returns the number of epochs.
func (d *Deme) NumEpochs() int { return len(d.epochs) }

// Epoch returns the i-th epoch, oldest first.
// Fails with ErrIndexOutOfRange when i >= NumEpochs().
func (d *Deme) Epoch(i int) (Epoch, error) {
	if i < 0 || i >= len(d.epochs) {
		return Epoch{}, fmt.Errorf("%w: epoch %d of deme %q (have %d)",
			ErrIndexOutOfRange, i, d.name, len(d.epochs))
	}
	return d.epochs[i], nil
}

// Epochs returns a copy of the epoch sequence, oldest first.
func (d *Deme) Epochs() []Epoch { return slices.Clone(d.epochs) }

// EpochIter returns a fresh forward-only cursor over the epochs, oldest
// first. Each call yields an independent cursor; the sequence and order
// are identical to Epochs().
func (d *Deme) EpochIter() iter.Seq[Epoch] {
	return func(yield func(Epoch) bool) {
		for _, e := range d.epochs {
			if !yield(e) {
				return
			}
		}
	}
}

// NumAncestors returns the number of ancestor links.
func (d *Deme) NumAncestors() int { return len(d.ancestors) }

// Ancestors returns a copy of the ancestor deme indices, in construction
// order.
func (d *Deme) Ancestors() []int { return slices.Clone(d.ancestors) }

// Proportions returns a copy of the ancestry proportions parallel to
// Ancestors().
func (d *Deme) Proportions() []float64 { return slices.Clone(d.proportions) }

// AncestorIter returns a fresh cursor yielding (ancestor deme index,
// proportion) pairs in construction order.
func (d *Deme) AncestorIter() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, a := range d.ancestors {
			if !yield(a, d.proportions[i]) {
				return
			}
		}
	}
}

// AliveAt reports whether the deme exists at backwards time t. The deme's
// existence interval is half open, [EndTime, StartTime): at its start time
// the deme does not yet exist, its ancestors do.
func (d *Deme) AliveAt(t float64) bool {
	if math.IsInf(t, 1) {
		return false
	}
	return t >= d.EndTime() && t < d.StartTime()
}

// SizeAt evaluates the deme's size at backwards time t, delegating to the
// epoch whose closed interval contains t. Epochs are scanned oldest to
// youngest, so a time on a boundary shared by two epochs resolves to the
// older epoch. Fails with ErrOutOfBounds when t is outside the deme's
// lifetime.
func (d *Deme) SizeAt(t float64) (float64, error) {
	for _, e := range d.epochs {
		if e.containsTime(t) {
			return e.SizeAt(t)
		}
	}
	return 0, fmt.Errorf("%w: time %v is outside the lifetime of deme %q",
		ErrOutOfBounds, t, d.name)
}
