// Package simulation provides a test harness for validating whole forward
// runs over demographic models.
//
// The simulation exercises the real loader and forward Graph, no mocks.
// Scenarios are YAML model texts plus a burn-in length; the runner drives
// the full time sequence and captures every generation's sizes and
// ancestry rows for property-based assertions.
//
// Usage:
//
//	func TestSplitModel(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:   "two-way-split",
//	        Model:  splitYAML,
//	        Burnin: 100,
//	    })
//	    simulation.AssertProportionsSumToOne(t, result)
//	    simulation.AssertNoOrphanAncestry(t, result)
//	}
package simulation
