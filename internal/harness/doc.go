// Package harness runs lifetime scenarios described in YAML.
//
// A scenario carries a small dataset, the fit configuration and the expected
// outcome:
//
//	name: linear-fixed-thyp
//	description: Linear shifted intensity with a known t_hyp
//	dataset:
//	  velocity: 0.5
//	  datapoints:
//	    - distance: 0
//	      shifted: [2, 1]
//	      unshifted: [6, 1]
//	fit:
//	  degree: 1
//	  fixed_t_hyp: 2
//	expect:
//	  tau: 2
//	  tolerance: 0.001
//
// Each scenario runs against a fresh in-memory store. The computed run is
// recorded and read back, so a passing scenario also exercises persistence.
// Run ids and timestamps are deterministic.
//
// Scenarios that expect a failure set expect.error to a substring of the
// error message instead of numeric expectations.
package harness
