// Package model implements the time-indexed demographic graph: demes made
// of epochs, ancestry links, pulses, and continuous migrations. A Graph is
// built once from a fully resolved specification, validated at
// construction, and immutable afterwards, so it is safe to share across
// concurrent readers without locking.
package model

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/demes-dev/demes-go/internal/constants"
)

// TimeUnitsGenerations is the canonical time unit. Graphs in other units
// carry a generation time and can be converted with ToGenerations.
const TimeUnitsGenerations = "generations"

// EpochSpec is the resolved description of one epoch.
type EpochSpec struct {
	StartTime    float64
	EndTime      float64
	StartSize    float64
	EndSize      float64
	SizeFunction SizeFunction
}

// DemeSpec is the resolved description of one deme. Ancestors holds
// indices into the graph's deme list; Proportions is parallel to it.
type DemeSpec struct {
	Name        string
	Description string
	Epochs      []EpochSpec
	Ancestors   []int
	Proportions []float64
}

// PulseSpec is the resolved description of one pulse.
type PulseSpec struct {
	Time        float64
	Dest        int
	Sources     []int
	Proportions []float64
}

// MigrationSpec is the resolved description of one asymmetric migration.
type MigrationSpec struct {
	Source    int
	Dest      int
	Rate      float64
	StartTime float64
	EndTime   float64
}

// GraphSpec is the resolved description of a whole graph, as produced by
// the loader or assembled directly in tests.
type GraphSpec struct {
	Description    string
	Doi            []string
	TimeUnits      string
	GenerationTime float64
	Demes          []DemeSpec
	Pulses         []PulseSpec
	Migrations     []MigrationSpec
}

// Graph owns an ordered sequence of demes plus the pulses and migrations
// connecting them. Demes are addressable by index and by name.
type Graph struct {
	description    string
	doi            []string
	timeUnits      string
	generationTime float64
	demes          []Deme
	nameIndex      map[string]int
	pulses         []Pulse
	migrations     []AsymmetricMigration
}

// New builds and validates a Graph from a resolved specification.
// Any structural invariant violation fails with ErrInvalidModel.
func New(spec GraphSpec) (*Graph, error) {
	if len(spec.Demes) == 0 {
		return nil, fmt.Errorf("%w: no demes", ErrInvalidModel)
	}
	timeUnits := spec.TimeUnits
	if timeUnits == "" {
		timeUnits = TimeUnitsGenerations
	}
	if timeUnits != TimeUnitsGenerations && !(spec.GenerationTime > 0) {
		return nil, fmt.Errorf("%w: time_units %q requires a positive generation_time",
			ErrInvalidModel, timeUnits)
	}

	g := &Graph{
		description:    spec.Description,
		doi:            slices.Clone(spec.Doi),
		timeUnits:      timeUnits,
		generationTime: spec.GenerationTime,
		nameIndex:      make(map[string]int, len(spec.Demes)),
	}

	for i, ds := range spec.Demes {
		if err := validateDemeName(ds.Name); err != nil {
			return nil, err
		}
		if _, dup := g.nameIndex[ds.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate deme name %q", ErrInvalidModel, ds.Name)
		}
		d, err := buildDeme(ds)
		if err != nil {
			return nil, err
		}
		g.demes = append(g.demes, d)
		g.nameIndex[ds.Name] = i
	}

	for i := range g.demes {
		if err := g.validateAncestry(i); err != nil {
			return nil, err
		}
	}

	for i, ps := range spec.Pulses {
		p, err := g.buildPulse(i, ps)
		if err != nil {
			return nil, err
		}
		g.pulses = append(g.pulses, p)
	}

	for i, ms := range spec.Migrations {
		m, err := g.buildMigration(i, ms)
		if err != nil {
			return nil, err
		}
		g.migrations = append(g.migrations, m)
	}
	if err := g.validateMigrationRateSums(); err != nil {
		return nil, err
	}

	return g, nil
}

// Description returns the graph's free-form description.
func (g *Graph) Description() string { return g.description }

// Doi returns a copy of the graph's DOI list.
func (g *Graph) Doi() []string { return slices.Clone(g.doi) }

// TimeUnits returns the graph's time units.
func (g *Graph) TimeUnits() string { return g.timeUnits }

// GenerationTime returns the generation time, or 0 when the graph is
// already in generations and none was given.
func (g *Graph) GenerationTime() float64 { return g.generationTime }

// NumDemes returns the number of demes.
func (g *Graph) NumDemes() int { return len(g.demes) }

// Deme returns the i-th deme. Fails with ErrIndexOutOfRange when
// i >= NumDemes().
func (g *Graph) Deme(i int) (*Deme, error) {
	if i < 0 || i >= len(g.demes) {
		return nil, fmt.Errorf("%w: deme %d (have %d)", ErrIndexOutOfRange, i, len(g.demes))
	}
	return &g.demes[i], nil
}

// DemeByName returns the deme with the given name.
// Fails with ErrNotFound when no deme has that name.
func (g *Graph) DemeByName(name string) (*Deme, error) {
	i, ok := g.nameIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: deme %q", ErrNotFound, name)
	}
	return &g.demes[i], nil
}

// DemeIndex returns the index of the deme with the given name.
// Fails with ErrNotFound when no deme has that name.
func (g *Graph) DemeIndex(name string) (int, error) {
	i, ok := g.nameIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: deme %q", ErrNotFound, name)
	}
	return i, nil
}

// DemeIter returns a fresh cursor yielding (index, deme) pairs in graph
// order.
func (g *Graph) DemeIter() iter.Seq2[int, *Deme] {
	return func(yield func(int, *Deme) bool) {
		for i := range g.demes {
			if !yield(i, &g.demes[i]) {
				return
			}
		}
	}
}

// NumPulses returns the number of pulses.
func (g *Graph) NumPulses() int { return len(g.pulses) }

// Pulse returns the i-th pulse, in construction order.
func (g *Graph) Pulse(i int) (Pulse, error) {
	if i < 0 || i >= len(g.pulses) {
		return Pulse{}, fmt.Errorf("%w: pulse %d (have %d)", ErrIndexOutOfRange, i, len(g.pulses))
	}
	return g.pulses[i], nil
}

// PulseIter returns a fresh cursor over the pulses in construction order.
func (g *Graph) PulseIter() iter.Seq[Pulse] {
	return func(yield func(Pulse) bool) {
		for _, p := range g.pulses {
			if !yield(p) {
				return
			}
		}
	}
}

// NumMigrations returns the number of asymmetric migrations.
func (g *Graph) NumMigrations() int { return len(g.migrations) }

// Migration returns the i-th migration, in construction order.
func (g *Graph) Migration(i int) (AsymmetricMigration, error) {
	if i < 0 || i >= len(g.migrations) {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d (have %d)",
			ErrIndexOutOfRange, i, len(g.migrations))
	}
	return g.migrations[i], nil
}

// MigrationIter returns a fresh cursor over the migrations in
// construction order.
func (g *Graph) MigrationIter() iter.Seq[AsymmetricMigration] {
	return func(yield func(AsymmetricMigration) bool) {
		for _, m := range g.migrations {
			if !yield(m) {
				return
			}
		}
	}
}

// Ancestry returns a fresh cursor yielding (ancestor deme, proportion)
// pairs for the child deme, in construction order.
func (g *Graph) Ancestry(child int) (iter.Seq2[*Deme, float64], error) {
	d, err := g.Deme(child)
	if err != nil {
		return nil, err
	}
	return func(yield func(*Deme, float64) bool) {
		for i, a := range d.ancestors {
			if !yield(&g.demes[a], d.proportions[i]) {
				return
			}
		}
	}, nil
}

// ToGenerations returns an equivalent graph with all times expressed in
// generations. A graph already in generations is returned unchanged. The
// conversion divides every time by the generation time and fails with
// ErrInvalidModel when it collapses an epoch or migration interval to
// zero length.
func (g *Graph) ToGenerations() (*Graph, error) {
	if g.timeUnits == TimeUnitsGenerations {
		return g, nil
	}
	scale := g.generationTime

	spec := GraphSpec{
		Description: g.description,
		Doi:         slices.Clone(g.doi),
		TimeUnits:   TimeUnitsGenerations,
	}
	for i := range g.demes {
		d := &g.demes[i]
		ds := DemeSpec{
			Name:        d.name,
			Description: d.description,
			Ancestors:   slices.Clone(d.ancestors),
			Proportions: slices.Clone(d.proportions),
		}
		for _, e := range d.epochs {
			es := EpochSpec{
				StartTime:    e.startTime / scale,
				EndTime:      e.endTime / scale,
				StartSize:    e.startSize,
				EndSize:      e.endSize,
				SizeFunction: e.sizeFunction,
			}
			if !(es.StartTime > es.EndTime) {
				return nil, fmt.Errorf("%w: conversion to generations collapses an epoch of deme %q",
					ErrInvalidModel, d.name)
			}
			ds.Epochs = append(ds.Epochs, es)
		}
		spec.Demes = append(spec.Demes, ds)
	}
	for _, p := range g.pulses {
		spec.Pulses = append(spec.Pulses, PulseSpec{
			Time:        p.time / scale,
			Dest:        p.dest,
			Sources:     slices.Clone(p.sources),
			Proportions: slices.Clone(p.proportions),
		})
	}
	for _, m := range g.migrations {
		spec.Migrations = append(spec.Migrations, MigrationSpec{
			Source:    m.source,
			Dest:      m.dest,
			Rate:      m.rate,
			StartTime: m.startTime / scale,
			EndTime:   m.endTime / scale,
		})
	}
	return New(spec)
}

func validTime(t float64) bool {
	return !math.IsNaN(t) && t >= 0
}

func validateDemeName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty deme name", ErrInvalidModel)
	}
	for i, r := range name {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !(isDigit && i > 0) {
			return fmt.Errorf("%w: deme name %q is not a valid identifier", ErrInvalidModel, name)
		}
	}
	return nil
}

func buildDeme(ds DemeSpec) (Deme, error) {
	if len(ds.Epochs) == 0 {
		return Deme{}, fmt.Errorf("%w: deme %q has no epochs", ErrInvalidModel, ds.Name)
	}
	d := Deme{
		name:        ds.Name,
		description: ds.Description,
		ancestors:   slices.Clone(ds.Ancestors),
		proportions: slices.Clone(ds.Proportions),
	}
	for i, es := range ds.Epochs {
		if !validTime(es.StartTime) || !validTime(es.EndTime) || math.IsInf(es.EndTime, 1) {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d has invalid times [%v, %v]",
				ErrInvalidModel, ds.Name, i, es.EndTime, es.StartTime)
		}
		if !(es.StartTime > es.EndTime) {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d start_time %v must exceed end_time %v",
				ErrInvalidModel, ds.Name, i, es.StartTime, es.EndTime)
		}
		if i > 0 && math.IsInf(es.StartTime, 1) {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d has infinite start_time",
				ErrInvalidModel, ds.Name, i)
		}
		if i > 0 && es.StartTime != ds.Epochs[i-1].EndTime {
			return Deme{}, fmt.Errorf("%w: deme %q epochs %d and %d are not contiguous",
				ErrInvalidModel, ds.Name, i-1, i)
		}
		if !positiveFinite(es.StartSize) || !positiveFinite(es.EndSize) {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d has non-positive size",
				ErrInvalidModel, ds.Name, i)
		}
		if math.IsInf(es.StartTime, 1) && es.SizeFunction != SizeFunctionConstant {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d has infinite start_time but %s size function",
				ErrInvalidModel, ds.Name, i, es.SizeFunction)
		}
		if es.SizeFunction == SizeFunctionConstant && es.StartSize != es.EndSize {
			return Deme{}, fmt.Errorf("%w: deme %q epoch %d is constant but start_size != end_size",
				ErrInvalidModel, ds.Name, i)
		}
		d.epochs = append(d.epochs, Epoch{
			startTime:    es.StartTime,
			endTime:      es.EndTime,
			startSize:    es.StartSize,
			endSize:      es.EndSize,
			sizeFunction: es.SizeFunction,
		})
	}
	return d, nil
}

// validateAncestry checks the ancestor links of deme i after all demes
// are in place.
func (g *Graph) validateAncestry(i int) error {
	d := &g.demes[i]
	if len(d.ancestors) != len(d.proportions) {
		return fmt.Errorf("%w: deme %q has %d ancestors but %d proportions",
			ErrInvalidModel, d.name, len(d.ancestors), len(d.proportions))
	}
	if len(d.ancestors) == 0 {
		return nil
	}
	if math.IsInf(d.StartTime(), 1) {
		return fmt.Errorf("%w: deme %q has ancestors but infinite start_time",
			ErrInvalidModel, d.name)
	}
	seen := make(map[int]bool, len(d.ancestors))
	sum := 0.0
	for k, a := range d.ancestors {
		if a < 0 || a >= len(g.demes) {
			return fmt.Errorf("%w: deme %q ancestor index %d out of range",
				ErrInvalidModel, d.name, a)
		}
		if a == i {
			return fmt.Errorf("%w: deme %q lists itself as an ancestor", ErrInvalidModel, d.name)
		}
		if seen[a] {
			return fmt.Errorf("%w: deme %q lists ancestor %q more than once",
				ErrInvalidModel, d.name, g.demes[a].name)
		}
		seen[a] = true
		anc := &g.demes[a]
		// The ancestor must exist at the child's start time.
		if !(d.StartTime() >= anc.EndTime() && d.StartTime() < anc.StartTime()) {
			return fmt.Errorf("%w: ancestor %q does not exist at deme %q start_time %v",
				ErrInvalidModel, anc.name, d.name, d.StartTime())
		}
		p := d.proportions[k]
		if !(p >= 0 && p <= 1) || math.IsNaN(p) {
			return fmt.Errorf("%w: deme %q ancestry proportion %v is not in [0, 1]",
				ErrInvalidModel, d.name, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > constants.ProportionTolerance {
		return fmt.Errorf("%w: deme %q ancestry proportions sum to %v, not 1",
			ErrInvalidModel, d.name, sum)
	}
	return nil
}

func (g *Graph) buildPulse(i int, ps PulseSpec) (Pulse, error) {
	if len(ps.Sources) == 0 {
		return Pulse{}, fmt.Errorf("%w: pulse %d has no sources", ErrInvalidModel, i)
	}
	if len(ps.Sources) != len(ps.Proportions) {
		return Pulse{}, fmt.Errorf("%w: pulse %d has %d sources but %d proportions",
			ErrInvalidModel, i, len(ps.Sources), len(ps.Proportions))
	}
	if !validTime(ps.Time) || math.IsInf(ps.Time, 1) {
		return Pulse{}, fmt.Errorf("%w: pulse %d has invalid time %v", ErrInvalidModel, i, ps.Time)
	}
	dest, err := g.Deme(ps.Dest)
	if err != nil {
		return Pulse{}, fmt.Errorf("%w: pulse %d dest: %v", ErrInvalidModel, i, err)
	}
	// The destination must exist in the generation receiving the pulse:
	// its interval must contain the pulse time with an inclusive start.
	if !(ps.Time > dest.EndTime() && ps.Time <= dest.StartTime()) {
		return Pulse{}, fmt.Errorf("%w: pulse %d at time %v does not overlap with dest %q",
			ErrInvalidModel, i, ps.Time, dest.name)
	}
	sum := 0.0
	seen := make(map[int]bool, len(ps.Sources))
	for k, s := range ps.Sources {
		src, err := g.Deme(s)
		if err != nil {
			return Pulse{}, fmt.Errorf("%w: pulse %d source: %v", ErrInvalidModel, i, err)
		}
		if s == ps.Dest {
			return Pulse{}, fmt.Errorf("%w: pulse %d dest %q is also a source",
				ErrInvalidModel, i, dest.name)
		}
		if seen[s] {
			return Pulse{}, fmt.Errorf("%w: pulse %d source %q listed more than once",
				ErrInvalidModel, i, src.name)
		}
		seen[s] = true
		// Sources provide parents at the pulse time.
		if !src.AliveAt(ps.Time) {
			return Pulse{}, fmt.Errorf("%w: pulse %d at time %v does not overlap with source %q",
				ErrInvalidModel, i, ps.Time, src.name)
		}
		p := ps.Proportions[k]
		if !(p >= 0 && p <= 1) || math.IsNaN(p) {
			return Pulse{}, fmt.Errorf("%w: pulse %d proportion %v is not in [0, 1]",
				ErrInvalidModel, i, p)
		}
		sum += p
	}
	if sum > 1.0+constants.ProportionTolerance {
		return Pulse{}, fmt.Errorf("%w: pulse %d proportions sum to %v, which exceeds 1",
			ErrInvalidModel, i, sum)
	}
	return Pulse{
		time:        ps.Time,
		dest:        ps.Dest,
		sources:     slices.Clone(ps.Sources),
		proportions: slices.Clone(ps.Proportions),
	}, nil
}

func (g *Graph) buildMigration(i int, ms MigrationSpec) (AsymmetricMigration, error) {
	src, err := g.Deme(ms.Source)
	if err != nil {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d source: %v", ErrInvalidModel, i, err)
	}
	dest, err := g.Deme(ms.Dest)
	if err != nil {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d dest: %v", ErrInvalidModel, i, err)
	}
	if ms.Source == ms.Dest {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d has source == dest (%q)",
			ErrInvalidModel, i, src.name)
	}
	if !(ms.Rate >= 0) || math.IsInf(ms.Rate, 1) {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d has invalid rate %v",
			ErrInvalidModel, i, ms.Rate)
	}
	if !validTime(ms.StartTime) || !validTime(ms.EndTime) || math.IsInf(ms.EndTime, 1) {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d has invalid interval [%v, %v]",
			ErrInvalidModel, i, ms.EndTime, ms.StartTime)
	}
	if !(ms.StartTime > ms.EndTime) {
		return AsymmetricMigration{}, fmt.Errorf("%w: migration %d start_time %v must exceed end_time %v",
			ErrInvalidModel, i, ms.StartTime, ms.EndTime)
	}
	// The interval must lie within the overlapping lifetimes of both demes.
	for _, d := range []*Deme{src, dest} {
		if ms.StartTime > d.StartTime() || ms.EndTime < d.EndTime() {
			return AsymmetricMigration{}, fmt.Errorf(
				"%w: migration %d interval [%v, %v] is outside the lifetime of deme %q",
				ErrInvalidModel, i, ms.EndTime, ms.StartTime, d.name)
		}
	}
	return AsymmetricMigration{
		source:    ms.Source,
		dest:      ms.Dest,
		rate:      ms.Rate,
		startTime: ms.StartTime,
		endTime:   ms.EndTime,
	}, nil
}

// validateMigrationRateSums rejects models where the rates of all
// migrations into one deme sum past 1 over some stretch of time. The
// finite migration interval endpoints partition time into
// non-overlapping intervals; inbound rates accumulate per destination
// within each.
func (g *Graph) validateMigrationRateSums() error {
	if len(g.migrations) == 0 {
		return nil
	}

	var ends []float64
	for _, m := range g.migrations {
		if !math.IsInf(m.startTime, 1) {
			ends = append(ends, m.startTime)
		}
		ends = append(ends, m.endTime)
	}
	slices.Sort(ends)
	ends = slices.Compact(ends)

	rates := make([]float64, len(g.demes))
	for i, end := range ends {
		start := math.Inf(1)
		if i < len(ends)-1 {
			start = ends[i+1]
		}
		clear(rates)
		for _, m := range g.migrations {
			// Overlap of (end, start] with the migration's interval.
			if m.startTime > end && start > m.endTime {
				rates[m.dest] += m.rate
				if rates[m.dest] > 1+constants.ProportionTolerance {
					return fmt.Errorf(
						"%w: migration rates into deme %q sum to %v in the interval (%v, %v]",
						ErrInvalidModel, g.demes[m.dest].name, rates[m.dest], start, end)
				}
			}
		}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
