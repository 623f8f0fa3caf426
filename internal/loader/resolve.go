package loader

import (
	"fmt"
	"math"

	"github.com/demes-dev/demes-go/internal/model"
)

// resolve applies the demes data-model resolution rules to a raw document
// and builds the validated graph.
func resolve(raw *yamlGraph) (*model.Graph, error) {
	if raw.TimeUnits == "" {
		return nil, fmt.Errorf("%w: time_units is required", model.ErrInvalidModel)
	}
	spec := model.GraphSpec{
		Description: raw.Description,
		Doi:         raw.Doi,
		TimeUnits:   raw.TimeUnits,
	}
	if raw.GenerationTime != nil {
		spec.GenerationTime = *raw.GenerationTime
	}
	if raw.TimeUnits != model.TimeUnitsGenerations && raw.GenerationTime == nil {
		return nil, fmt.Errorf("%w: time_units %q requires generation_time",
			model.ErrInvalidModel, raw.TimeUnits)
	}

	if len(raw.Demes) == 0 {
		return nil, fmt.Errorf("%w: no demes", model.ErrInvalidModel)
	}

	// Deme names must resolve before ancestors, migrations, and pulses
	// can be turned into indices.
	nameIndex := make(map[string]int, len(raw.Demes))
	for i, d := range raw.Demes {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: deme %d has no name", model.ErrInvalidModel, i)
		}
		if _, dup := nameIndex[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate deme name %q", model.ErrInvalidModel, d.Name)
		}
		nameIndex[d.Name] = i
	}

	for i := range raw.Demes {
		ds, err := resolveDeme(raw, i, nameIndex)
		if err != nil {
			return nil, err
		}
		spec.Demes = append(spec.Demes, ds)
	}

	for i, m := range raw.Migrations {
		expanded, err := resolveMigration(i, m, nameIndex, spec.Demes)
		if err != nil {
			return nil, err
		}
		spec.Migrations = append(spec.Migrations, expanded...)
	}

	for i, p := range raw.Pulses {
		ps, err := resolvePulse(i, p, nameIndex)
		if err != nil {
			return nil, err
		}
		spec.Pulses = append(spec.Pulses, ps)
	}

	return model.New(spec)
}

func resolveDeme(raw *yamlGraph, i int, nameIndex map[string]int) (model.DemeSpec, error) {
	d := raw.Demes[i]
	ds := model.DemeSpec{Name: d.Name, Description: d.Description}
	if ds.Description == "" {
		ds.Description = raw.Defaults.Deme.Description
	}

	ancestors := d.Ancestors
	if ancestors == nil {
		ancestors = raw.Defaults.Deme.Ancestors
	}
	proportions := d.Proportions
	if proportions == nil {
		proportions = raw.Defaults.Deme.Proportions
	}
	// A single ancestor defaults to full ancestry.
	if len(proportions) == 0 && len(ancestors) == 1 {
		proportions = []float64{1.0}
	}
	for _, name := range ancestors {
		idx, ok := nameIndex[name]
		if !ok {
			return model.DemeSpec{}, fmt.Errorf("%w: deme %q has unknown ancestor %q",
				model.ErrInvalidModel, d.Name, name)
		}
		ds.Ancestors = append(ds.Ancestors, idx)
	}
	ds.Proportions = append(ds.Proportions, proportions...)

	startTime, err := resolveStartTime(raw, d, ancestors, nameIndex)
	if err != nil {
		return model.DemeSpec{}, err
	}

	if len(d.Epochs) == 0 {
		return model.DemeSpec{}, fmt.Errorf("%w: deme %q has no epochs",
			model.ErrInvalidModel, d.Name)
	}

	prevEnd := startTime
	var prevEndSize float64
	for k, e := range d.Epochs {
		es := model.EpochSpec{StartTime: prevEnd}

		switch {
		case e.EndTime != nil:
			es.EndTime = *e.EndTime
		case k == len(d.Epochs)-1:
			es.EndTime = 0
		default:
			return model.DemeSpec{}, fmt.Errorf("%w: deme %q epoch %d needs an end_time",
				model.ErrInvalidModel, d.Name, k)
		}

		startSize := firstSet(e.StartSize, d.Defaults.Epoch.StartSize, raw.Defaults.Epoch.StartSize)
		endSize := firstSet(e.EndSize, d.Defaults.Epoch.EndSize, raw.Defaults.Epoch.EndSize)
		switch {
		case startSize == nil && k > 0:
			es.StartSize = prevEndSize
		case startSize == nil && endSize != nil:
			es.StartSize = *endSize
		case startSize != nil:
			es.StartSize = *startSize
		default:
			return model.DemeSpec{}, fmt.Errorf("%w: deme %q epoch %d needs a start_size",
				model.ErrInvalidModel, d.Name, k)
		}
		if endSize != nil {
			es.EndSize = *endSize
		} else {
			es.EndSize = es.StartSize
		}

		sizeFunction := e.SizeFunction
		if sizeFunction == "" {
			sizeFunction = d.Defaults.Epoch.SizeFunction
		}
		if sizeFunction == "" {
			sizeFunction = raw.Defaults.Epoch.SizeFunction
		}
		if sizeFunction == "" {
			if es.StartSize == es.EndSize {
				sizeFunction = "constant"
			} else {
				sizeFunction = "exponential"
			}
		}
		sf, err := model.ParseSizeFunction(sizeFunction)
		if err != nil {
			return model.DemeSpec{}, fmt.Errorf("deme %q epoch %d: %w", d.Name, k, err)
		}
		es.SizeFunction = sf

		ds.Epochs = append(ds.Epochs, es)
		prevEnd = es.EndTime
		prevEndSize = es.EndSize
	}

	return ds, nil
}

// resolveStartTime applies the demes default rules: an explicit value wins,
// then the graph-level deme default, then the single ancestor's end time,
// then infinity for a deme with no ancestors.
func resolveStartTime(raw *yamlGraph, d yamlDeme, ancestors []string, nameIndex map[string]int) (float64, error) {
	if d.StartTime != nil {
		return *d.StartTime, nil
	}
	if raw.Defaults.Deme.StartTime != nil {
		return *raw.Defaults.Deme.StartTime, nil
	}
	switch len(ancestors) {
	case 0:
		return math.Inf(1), nil
	case 1:
		anc := raw.Demes[nameIndex[ancestors[0]]]
		end, err := demeEndTime(anc)
		if err != nil {
			return 0, err
		}
		return end, nil
	default:
		return 0, fmt.Errorf("%w: deme %q has multiple ancestors and needs an explicit start_time",
			model.ErrInvalidModel, d.Name)
	}
}

// demeEndTime returns a raw deme's final end time (defaulting to 0).
func demeEndTime(d yamlDeme) (float64, error) {
	if len(d.Epochs) == 0 {
		return 0, fmt.Errorf("%w: deme %q has no epochs", model.ErrInvalidModel, d.Name)
	}
	last := d.Epochs[len(d.Epochs)-1]
	if last.EndTime != nil {
		return *last.EndTime, nil
	}
	return 0, nil
}

func resolveMigration(i int, m yamlMigration, nameIndex map[string]int, demes []model.DemeSpec) ([]model.MigrationSpec, error) {
	if m.Rate == nil {
		return nil, fmt.Errorf("%w: migration %d has no rate", model.ErrInvalidModel, i)
	}

	var pairs [][2]int
	switch {
	case len(m.Demes) > 0:
		if m.Source != "" || m.Dest != "" {
			return nil, fmt.Errorf("%w: migration %d mixes demes with source/dest",
				model.ErrInvalidModel, i)
		}
		if len(m.Demes) < 2 {
			return nil, fmt.Errorf("%w: migration %d needs at least two demes",
				model.ErrInvalidModel, i)
		}
		idx := make([]int, 0, len(m.Demes))
		for _, name := range m.Demes {
			k, ok := nameIndex[name]
			if !ok {
				return nil, fmt.Errorf("%w: migration %d names unknown deme %q",
					model.ErrInvalidModel, i, name)
			}
			idx = append(idx, k)
		}
		// Symmetric migration expands to every ordered pair.
		for _, a := range idx {
			for _, b := range idx {
				if a != b {
					pairs = append(pairs, [2]int{a, b})
				}
			}
		}
	case m.Source != "" && m.Dest != "":
		src, ok := nameIndex[m.Source]
		if !ok {
			return nil, fmt.Errorf("%w: migration %d has unknown source %q",
				model.ErrInvalidModel, i, m.Source)
		}
		dest, ok := nameIndex[m.Dest]
		if !ok {
			return nil, fmt.Errorf("%w: migration %d has unknown dest %q",
				model.ErrInvalidModel, i, m.Dest)
		}
		pairs = append(pairs, [2]int{src, dest})
	default:
		return nil, fmt.Errorf("%w: migration %d needs either demes or source and dest",
			model.ErrInvalidModel, i)
	}

	var out []model.MigrationSpec
	for _, pr := range pairs {
		src, dest := demes[pr[0]], demes[pr[1]]
		ms := model.MigrationSpec{Source: pr[0], Dest: pr[1], Rate: *m.Rate}
		if m.StartTime != nil {
			ms.StartTime = *m.StartTime
		} else {
			// Oldest time both demes exist.
			ms.StartTime = math.Min(demeSpecStart(src), demeSpecStart(dest))
		}
		if m.EndTime != nil {
			ms.EndTime = *m.EndTime
		} else {
			ms.EndTime = math.Max(demeSpecEnd(src), demeSpecEnd(dest))
		}
		out = append(out, ms)
	}
	return out, nil
}

func resolvePulse(i int, p yamlPulse, nameIndex map[string]int) (model.PulseSpec, error) {
	if p.Time == nil {
		return model.PulseSpec{}, fmt.Errorf("%w: pulse %d has no time", model.ErrInvalidModel, i)
	}
	if p.Dest == "" {
		return model.PulseSpec{}, fmt.Errorf("%w: pulse %d has no dest", model.ErrInvalidModel, i)
	}
	dest, ok := nameIndex[p.Dest]
	if !ok {
		return model.PulseSpec{}, fmt.Errorf("%w: pulse %d has unknown dest %q",
			model.ErrInvalidModel, i, p.Dest)
	}
	ps := model.PulseSpec{Time: *p.Time, Dest: dest, Proportions: p.Proportions}
	for _, name := range p.Sources {
		src, ok := nameIndex[name]
		if !ok {
			return model.PulseSpec{}, fmt.Errorf("%w: pulse %d has unknown source %q",
				model.ErrInvalidModel, i, name)
		}
		ps.Sources = append(ps.Sources, src)
	}
	return ps, nil
}

func demeSpecStart(d model.DemeSpec) float64 { return d.Epochs[0].StartTime }

func demeSpecEnd(d model.DemeSpec) float64 { return d.Epochs[len(d.Epochs)-1].EndTime }

// firstSet returns the first non-nil value, or nil when all are omitted.
func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
