package model

import (
	"errors"
	"math"
	"slices"
	"testing"
)

// twoDemeSpec builds an ancestral deme spanning [50, Inf) and a derived
// deme spanning [0, 50) with two epochs.
func twoDemeSpec() GraphSpec {
	return GraphSpec{
		TimeUnits: TimeUnitsGenerations,
		Demes: []DemeSpec{
			{
				Name: "ancestral",
				Epochs: []EpochSpec{{
					StartTime: math.Inf(1), EndTime: 50,
					StartSize: 100, EndSize: 100,
					SizeFunction: SizeFunctionConstant,
				}},
			},
			{
				Name:        "derived",
				Ancestors:   []int{0},
				Proportions: []float64{1.0},
				Epochs: []EpochSpec{
					{
						StartTime: 50, EndTime: 20,
						StartSize: 100, EndSize: 200,
						SizeFunction: SizeFunctionLinear,
					},
					{
						StartTime: 20, EndTime: 0,
						StartSize: 200, EndSize: 50,
						SizeFunction: SizeFunctionExponential,
					},
				},
			},
		},
	}
}

func TestDemeTimes(t *testing.T) {
	g := mustGraph(t, twoDemeSpec())

	d, err := g.DemeByName("derived")
	if err != nil {
		t.Fatalf("DemeByName: %v", err)
	}
	if d.StartTime() != 50 {
		t.Errorf("StartTime = %v, want 50", d.StartTime())
	}
	if d.EndTime() != 0 {
		t.Errorf("EndTime = %v, want 0", d.EndTime())
	}

	anc, err := g.DemeByName("ancestral")
	if err != nil {
		t.Fatalf("DemeByName: %v", err)
	}
	if !math.IsInf(anc.StartTime(), 1) {
		t.Errorf("ancestral StartTime = %v, want +Inf", anc.StartTime())
	}
}

func TestDemeEpochCursorMatchesBulk(t *testing.T) {
	g := mustGraph(t, twoDemeSpec())
	d, _ := g.DemeByName("derived")

	bulk := d.Epochs()
	var fromCursor []Epoch
	for e := range d.EpochIter() {
		fromCursor = append(fromCursor, e)
	}
	if !slices.Equal(bulk, fromCursor) {
		t.Errorf("cursor produced %v, bulk produced %v", fromCursor, bulk)
	}

	// A second cursor starts from the beginning again.
	var again []Epoch
	for e := range d.EpochIter() {
		again = append(again, e)
		break
	}
	if len(again) != 1 || again[0] != bulk[0] {
		t.Errorf("fresh cursor did not restart at the first epoch")
	}
}

func TestDemeAncestorOrderPreserved(t *testing.T) {
	spec := GraphSpec{
		TimeUnits: TimeUnitsGenerations,
		Demes: []DemeSpec{
			{Name: "b", Epochs: []EpochSpec{{StartTime: math.Inf(1), EndTime: 0,
				StartSize: 10, EndSize: 10, SizeFunction: SizeFunctionConstant}}},
			{Name: "a", Epochs: []EpochSpec{{StartTime: math.Inf(1), EndTime: 0,
				StartSize: 10, EndSize: 10, SizeFunction: SizeFunctionConstant}}},
			{
				// Ancestors deliberately not in index or alphabetical order.
				Name:        "c",
				Ancestors:   []int{1, 0},
				Proportions: []float64{0.3, 0.7},
				Epochs: []EpochSpec{{StartTime: 30, EndTime: 0,
					StartSize: 10, EndSize: 10, SizeFunction: SizeFunctionConstant}},
			},
		},
	}
	g := mustGraph(t, spec)
	d, _ := g.DemeByName("c")

	if got := d.Ancestors(); !slices.Equal(got, []int{1, 0}) {
		t.Errorf("Ancestors = %v, want [1 0]", got)
	}
	if got := d.Proportions(); !slices.Equal(got, []float64{0.3, 0.7}) {
		t.Errorf("Proportions = %v, want [0.3 0.7]", got)
	}

	var idx []int
	var props []float64
	for a, p := range d.AncestorIter() {
		idx = append(idx, a)
		props = append(props, p)
	}
	if !slices.Equal(idx, []int{1, 0}) || !slices.Equal(props, []float64{0.3, 0.7}) {
		t.Errorf("AncestorIter yielded (%v, %v), want ([1 0], [0.3 0.7])", idx, props)
	}

	ancestry, err := g.Ancestry(2)
	if err != nil {
		t.Fatalf("Ancestry: %v", err)
	}
	var names []string
	for anc := range ancestry {
		names = append(names, anc.Name())
	}
	if !slices.Equal(names, []string{"a", "b"}) {
		t.Errorf("Ancestry order = %v, want [a b]", names)
	}
}

func TestDemeSizeAtBoundaryUsesOlderEpoch(t *testing.T) {
	g := mustGraph(t, twoDemeSpec())
	d, _ := g.DemeByName("derived")

	// Time 20 is shared by both epochs; the older epoch wins, so the
	// value is its end size (200), not the younger epoch's start size
	// evaluated mid-decay.
	size, err := d.SizeAt(20)
	if err != nil {
		t.Fatalf("SizeAt(20): %v", err)
	}
	if size != 200 {
		t.Errorf("SizeAt(20) = %v, want 200", size)
	}
}

func TestDemeSizeAtOutsideLifetime(t *testing.T) {
	g := mustGraph(t, twoDemeSpec())
	d, _ := g.DemeByName("derived")

	if _, err := d.SizeAt(60); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SizeAt(60): got %v, want ErrOutOfBounds", err)
	}
}

func TestDemeAliveAt(t *testing.T) {
	g := mustGraph(t, twoDemeSpec())
	d, _ := g.DemeByName("derived")

	tests := []struct {
		time float64
		want bool
	}{
		{0, true},
		{49.999, true},
		{50, false}, // at its start time the deme does not yet exist
		{60, false},
	}
	for _, tc := range tests {
		if got := d.AliveAt(tc.time); got != tc.want {
			t.Errorf("AliveAt(%v) = %v, want %v", tc.time, got, tc.want)
		}
	}

	anc, _ := g.DemeByName("ancestral")
	if !anc.AliveAt(1e12) {
		t.Errorf("infinite-start deme should be alive at any finite time above its end")
	}
	if anc.AliveAt(10) {
		t.Errorf("ancestral deme ends at 50, should not be alive at 10")
	}
}
