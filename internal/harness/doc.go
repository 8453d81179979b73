// Package harness runs end-to-end scenarios of the feedback loop with a
// scripted oracle and a scripted prover.
//
// The harness wires the real sampler, loop, prover bridge, result table and
// attempt ledger together; only the two external processes are replaced.
// Each scenario runs against a fresh in-memory ledger and a temporary prover
// root, so scenarios are isolated from each other and from the file system.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: refinement_bound
//	description: "Prover rejects every counterexample; third answer is kept"
//	contract: payment_splitter
//	prompt: "Does {property} hold on version {version}?"
//	tokens: 500
//	ground_truth:
//	  - { property: always-positive, version: "1", truth: "0" }
//	sampling:
//	  no_sample: true
//	oracle:
//	  responses:
//	    - "ANSWER: FALSE\nEXPLANATION: a\nCOUNTEREXAMPLE: test one"
//	  repeat: true
//	prover:
//	  accept_on: pass
//	  outputs: ["[FAIL. Reason: revert] test_x()"]
//	assertions:
//	  - type: oracle_calls
//	    count: 3
//	  - type: attempts
//	    property: always-positive
//	    version: "1"
//	    count: 3
//
// # Assertion Types
//
//   - oracle_calls: the oracle was queried exactly count times
//   - attempts: the ledger holds count attempts for property/version
//   - record: the final table holds a row for property/version with answer
//   - table_rows: the final table has count rows
//   - tasks: the sampled (and filtered) task list equals tasks
//   - error: the run aborted with the given error code
//
// A run that aborts without an error assertion fails the scenario.
//
// # Deterministic Testing
//
// The loop is stamped with testutil.DeterministicClock and measures latency
// with testutil.SteppingTime, so every query takes exactly one second and the
// merged result table is byte-stable. RunWithGolden compares that table
// against testdata/golden/<name>.golden.
package harness
