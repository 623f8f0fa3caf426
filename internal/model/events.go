package model

import (
	"iter"
	"math"
	"slices"
)

// Pulse is an instantaneous transfer of ancestry into a destination deme
// at a single backwards time. Sources and Proportions are parallel slices
// in construction order.
type Pulse struct {
	time        float64
	dest        int
	sources     []int
	proportions []float64
}

// Time returns the backwards time of the pulse.
func (p Pulse) Time() float64 { return p.time }

// Dest returns the destination deme index.
func (p Pulse) Dest() int { return p.dest }

// Sources returns a copy of the source deme indices.
func (p Pulse) Sources() []int { return slices.Clone(p.sources) }

// Proportions returns a copy of the per-source ancestry proportions.
func (p Pulse) Proportions() []float64 { return slices.Clone(p.proportions) }

// SourceIter returns a fresh cursor yielding (source deme index,
// proportion) pairs in construction order.
func (p Pulse) SourceIter() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, s := range p.sources {
			if !yield(s, p.proportions[i]) {
				return
			}
		}
	}
}

// AsymmetricMigration is a continuous one-directional gene-flow rate from
// a source deme into a destination deme over a backwards time interval.
type AsymmetricMigration struct {
	source    int
	dest      int
	rate      float64
	startTime float64
	endTime   float64
}

// Source returns the source deme index.
func (m AsymmetricMigration) Source() int { return m.source }

// Dest returns the destination deme index.
func (m AsymmetricMigration) Dest() int { return m.dest }

// Rate returns the per-generation migration rate.
func (m AsymmetricMigration) Rate() float64 { return m.rate }

// StartTime returns the oldest time the migration is active. May be +Inf.
func (m AsymmetricMigration) StartTime() float64 { return m.startTime }

// EndTime returns the youngest time the migration is active.
func (m AsymmetricMigration) EndTime() float64 { return m.endTime }

// ActiveAt reports whether the migration is active at backwards time t.
// The interval is half open, [EndTime, StartTime), matching deme
// existence.
func (m AsymmetricMigration) ActiveAt(t float64) bool {
	if math.IsInf(t, 1) {
		return false
	}
	return t >= m.endTime && t < m.startTime
}
