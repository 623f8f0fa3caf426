package simulation

import (
	"testing"
)

func TestPulseGeneration(t *testing.T) {
	r := NewRunner(t)
	result := r.Run(Scenario{
		Name: "single-pulse",
		Model: `
time_units: generations
demes:
 - name: a
   epochs:
    - start_size: 100
 - name: b
   epochs:
    - start_size: 100
pulses:
 - sources: [a]
   dest: b
   time: 25
   proportions: [0.1]
`,
		Burnin: 1,
	})

	// Model start 26 plus one burn-in generation; the children of forward
	// time t are born at backwards time 25-t.
	AssertStepCount(t, result, 27)
	AssertProportionsSumToOne(t, result)
	AssertNoOrphanAncestry(t, result)

	a := result.DemeIndex(t, "a")
	b := result.DemeIndex(t, "b")

	// Only the children born at the pulse time carry the pulse.
	AssertAncestryAt(t, result, b, 0, []float64{0.1, 0.9})
	AssertAncestryAt(t, result, b, 1, []float64{0, 1})
	AssertAncestryAt(t, result, a, 0, []float64{1, 0})
}

func TestTwoPulsesSameGeneration(t *testing.T) {
	r := NewRunner(t)
	result := r.Run(Scenario{
		Name: "two-source-pulse",
		Model: `
time_units: generations
demes:
 - name: a
   epochs:
    - start_size: 100
 - name: b
   epochs:
    - start_size: 100
 - name: c
   epochs:
    - start_size: 100
pulses:
 - sources: [a, b]
   dest: c
   time: 5
   proportions: [0.2, 0.3]
`,
		Burnin: 1,
	})

	AssertProportionsSumToOne(t, result)
	c := result.DemeIndex(t, "c")

	// Both sources contribute, the remainder stays local.
	AssertAncestryAt(t, result, c, 0, []float64{0.2, 0.3, 0.5})
}

func TestMigrationWindow(t *testing.T) {
	r := NewRunner(t)
	result := r.Run(Scenario{
		Name: "bounded-migration",
		Model: `
time_units: generations
demes:
 - name: a
   epochs:
    - start_size: 100
 - name: b
   epochs:
    - start_size: 100
migrations:
 - source: a
   dest: b
   rate: 0.05
   start_time: 20
   end_time: 10
`,
		Burnin: 0,
	})

	// Model start 21; the children of forward time t are born at
	// backwards time 19-t.
	AssertStepCount(t, result, 21)
	AssertProportionsSumToOne(t, result)
	AssertNoOrphanAncestry(t, result)

	b := result.DemeIndex(t, "b")

	// Children born in the window (backwards times [10, 20)).
	AssertAncestryAt(t, result, b, 0, []float64{0.05, 0.95})
	AssertAncestryAt(t, result, b, 9, []float64{0.05, 0.95})
	// Children born after the window closes.
	AssertAncestryAt(t, result, b, 10, []float64{0, 1})
	AssertAncestryAt(t, result, b, 11, []float64{0, 1})
}

func TestSymmetricMigrationRows(t *testing.T) {
	r := NewRunner(t)
	result := r.Run(Scenario{
		Name: "symmetric-migration",
		Model: `
time_units: generations
demes:
 - name: left
   epochs:
    - start_size: 100
 - name: right
   epochs:
    - start_size: 100
migrations:
 - demes: [left, right]
   rate: 0.02
`,
		Burnin: 2,
	})

	AssertProportionsSumToOne(t, result)
	left := result.DemeIndex(t, "left")
	right := result.DemeIndex(t, "right")

	// Continuous migration adjusts both rows every generation but the last.
	for _, sr := range result.Steps {
		if sr.Ancestry == nil {
			continue
		}
		AssertAncestryAt(t, result, left, sr.Time, []float64{0.98, 0.02})
		AssertAncestryAt(t, result, right, sr.Time, []float64{0.02, 0.98})
	}
}
