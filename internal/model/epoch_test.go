package model

import (
	"errors"
	"math"
	"testing"
)

func mustGraph(t *testing.T, spec GraphSpec) *Graph {
	t.Helper()
	g, err := New(spec)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func singleDemeSpec(epochs ...EpochSpec) GraphSpec {
	return GraphSpec{
		TimeUnits: TimeUnitsGenerations,
		Demes:     []DemeSpec{{Name: "deme0", Epochs: epochs}},
	}
}

func epochOf(t *testing.T, g *Graph, deme, epoch int) Epoch {
	t.Helper()
	d, err := g.Deme(deme)
	if err != nil {
		t.Fatalf("Deme(%d): %v", deme, err)
	}
	e, err := d.Epoch(epoch)
	if err != nil {
		t.Fatalf("Epoch(%d): %v", epoch, err)
	}
	return e
}

func TestSizeAtConstant(t *testing.T) {
	g := mustGraph(t, singleDemeSpec(EpochSpec{
		StartTime: 50, EndTime: 0,
		StartSize: 100, EndSize: 100,
		SizeFunction: SizeFunctionConstant,
	}))
	e := epochOf(t, g, 0, 0)

	for _, tm := range []float64{0, 12.5, 25, 49.999, 50} {
		size, err := e.SizeAt(tm)
		if err != nil {
			t.Fatalf("SizeAt(%v): %v", tm, err)
		}
		if size != 100 {
			t.Errorf("SizeAt(%v) = %v, want 100", tm, size)
		}
	}
}

func TestSizeAtLinear(t *testing.T) {
	g := mustGraph(t, singleDemeSpec(EpochSpec{
		StartTime: 100, EndTime: 0,
		StartSize: 100, EndSize: 200,
		SizeFunction: SizeFunctionLinear,
	}))
	e := epochOf(t, g, 0, 0)

	tests := []struct {
		time float64
		want float64
	}{
		{100, 100}, // oldest endpoint
		{50, 150},  // midpoint is the arithmetic mean
		{0, 200},   // present
		{75, 125},
	}
	for _, tc := range tests {
		size, err := e.SizeAt(tc.time)
		if err != nil {
			t.Fatalf("SizeAt(%v): %v", tc.time, err)
		}
		if math.Abs(size-tc.want) > 1e-12 {
			t.Errorf("SizeAt(%v) = %v, want %v", tc.time, size, tc.want)
		}
	}
}

func TestSizeAtExponential(t *testing.T) {
	g := mustGraph(t, singleDemeSpec(EpochSpec{
		StartTime: 100, EndTime: 0,
		StartSize: 100, EndSize: 1000,
		SizeFunction: SizeFunctionExponential,
	}))
	e := epochOf(t, g, 0, 0)

	// Endpoints are exact.
	if size, err := e.SizeAt(100); err != nil || size != 100 {
		t.Errorf("SizeAt(start) = %v, %v; want exactly 100", size, err)
	}
	if size, err := e.SizeAt(0); err != nil || size != 1000 {
		t.Errorf("SizeAt(end) = %v, %v; want exactly 1000", size, err)
	}

	// Interior values are strictly monotonic toward the present.
	prev := 100.0
	for tm := 99.0; tm > 0; tm-- {
		size, err := e.SizeAt(tm)
		if err != nil {
			t.Fatalf("SizeAt(%v): %v", tm, err)
		}
		if size <= prev {
			t.Fatalf("SizeAt(%v) = %v, not strictly increasing from %v", tm, size, prev)
		}
		prev = size
	}
}

func TestSizeAtOutOfBounds(t *testing.T) {
	g := mustGraph(t, singleDemeSpec(EpochSpec{
		StartTime: 50, EndTime: 10,
		StartSize: 100, EndSize: 100,
		SizeFunction: SizeFunctionConstant,
	}))
	e := epochOf(t, g, 0, 0)

	for _, tm := range []float64{9.999, 50.001, -1, math.Inf(1), math.NaN()} {
		if _, err := e.SizeAt(tm); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SizeAt(%v): got %v, want ErrOutOfBounds", tm, err)
		}
	}
}

func TestSizeAtInfiniteStart(t *testing.T) {
	g := mustGraph(t, singleDemeSpec(EpochSpec{
		StartTime: math.Inf(1), EndTime: 0,
		StartSize: 500, EndSize: 500,
		SizeFunction: SizeFunctionConstant,
	}))
	e := epochOf(t, g, 0, 0)

	size, err := e.SizeAt(math.Inf(1))
	if err != nil {
		t.Fatalf("SizeAt(+Inf): %v", err)
	}
	if size != 500 {
		t.Errorf("SizeAt(+Inf) = %v, want 500", size)
	}

	size, err = e.SizeAt(1e9)
	if err != nil {
		t.Fatalf("SizeAt(1e9): %v", err)
	}
	if size != 500 {
		t.Errorf("SizeAt(1e9) = %v, want 500", size)
	}
}

func TestEpochValidation(t *testing.T) {
	tests := []struct {
		name  string
		epoch EpochSpec
	}{
		{
			name: "start not after end",
			epoch: EpochSpec{StartTime: 10, EndTime: 10,
				StartSize: 1, EndSize: 1, SizeFunction: SizeFunctionConstant},
		},
		{
			name: "negative end time",
			epoch: EpochSpec{StartTime: 10, EndTime: -1,
				StartSize: 1, EndSize: 1, SizeFunction: SizeFunctionConstant},
		},
		{
			name: "zero size",
			epoch: EpochSpec{StartTime: 10, EndTime: 0,
				StartSize: 0, EndSize: 1, SizeFunction: SizeFunctionLinear},
		},
		{
			name: "infinite start with linear growth",
			epoch: EpochSpec{StartTime: math.Inf(1), EndTime: 0,
				StartSize: 1, EndSize: 2, SizeFunction: SizeFunctionLinear},
		},
		{
			name: "constant with differing sizes",
			epoch: EpochSpec{StartTime: 10, EndTime: 0,
				StartSize: 1, EndSize: 2, SizeFunction: SizeFunctionConstant},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(singleDemeSpec(tc.epoch))
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("got %v, want ErrInvalidModel", err)
			}
		})
	}
}
