package simulation

import (
	"math"
	"testing"
)

// AssertStepCount asserts that the run produced exactly n generations.
func AssertStepCount(t *testing.T, result RunResult, n int) {
	t.Helper()
	if len(result.Steps) != n {
		t.Errorf("AssertStepCount: got %d steps, want %d", len(result.Steps), n)
	}
}

// AssertProportionsSumToOne asserts that every computed ancestry row sums
// to one within tolerance.
func AssertProportionsSumToOne(t *testing.T, result RunResult) {
	t.Helper()
	for _, sr := range result.Steps {
		for child, row := range sr.Ancestry {
			if row == nil {
				continue
			}
			sum := 0.0
			for _, p := range row {
				sum += p
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("AssertProportionsSumToOne: time %v: child %d sums to %.12f", sr.Time, child, sum)
			}
		}
	}
}

// AssertNoOrphanAncestry asserts that every positive ancestry entry points
// at a deme with a positive parental size.
func AssertNoOrphanAncestry(t *testing.T, result RunResult) {
	t.Helper()
	for _, sr := range result.Steps {
		for child, row := range sr.Ancestry {
			for parent, p := range row {
				if p > 0 && sr.Parental[parent] <= 0 {
					t.Errorf("AssertNoOrphanAncestry: time %v: child %d draws %.4f from empty parent %d",
						sr.Time, child, p, parent)
				}
			}
		}
	}
}

// AssertDemeAppears asserts that a deme first has positive offspring size
// at exactly the given forward time.
func AssertDemeAppears(t *testing.T, result RunResult, deme int, at float64) {
	t.Helper()
	for _, sr := range result.Steps {
		if sr.Offspring == nil || sr.Offspring[deme] <= 0 {
			continue
		}
		if sr.Time != at {
			t.Errorf("AssertDemeAppears: deme %d first has offspring at %v, want %v", deme, sr.Time, at)
		}
		return
	}
	t.Errorf("AssertDemeAppears: deme %d never has offspring", deme)
}

// AssertParentalSizeAt asserts a deme's parental size at one forward time.
func AssertParentalSizeAt(t *testing.T, result RunResult, deme int, at, want float64) {
	t.Helper()
	for _, sr := range result.Steps {
		if sr.Time != at {
			continue
		}
		if math.Abs(sr.Parental[deme]-want) > 1e-9 {
			t.Errorf("AssertParentalSizeAt: deme %d at %v: got %v, want %v", deme, at, sr.Parental[deme], want)
		}
		return
	}
	t.Errorf("AssertParentalSizeAt: no step at time %v", at)
}

// AssertAncestryAt asserts one child's ancestry row at one forward time.
func AssertAncestryAt(t *testing.T, result RunResult, child int, at float64, want []float64) {
	t.Helper()
	for _, sr := range result.Steps {
		if sr.Time != at {
			continue
		}
		row := sr.Ancestry[child]
		if row == nil {
			t.Errorf("AssertAncestryAt: child %d has no ancestry at %v", child, at)
			return
		}
		for parent, p := range want {
			if math.Abs(row[parent]-p) > 1e-9 {
				t.Errorf("AssertAncestryAt: child %d at %v: row %v, want %v", child, at, row, want)
				return
			}
		}
		return
	}
	t.Errorf("AssertAncestryAt: no step at time %v", at)
}
