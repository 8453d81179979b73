// Package engine implements the propcheck feedback loop.
//
// For every task the loop runs a small state machine:
//
//	QUERY → PARSE → (VALIDATE?) → {ACCEPT, REFINE → QUERY, ABORT}
//
// QUERY sends the current prompt to the oracle. PARSE always yields a
// verdict. VALIDATE runs only when prover checking is enabled; an outcome
// the accept policy rejects leads to REFINE, which folds the prior prompt,
// the model output and the prover log into a new prompt. A task gets at
// most MaxAttempts queries; the last one is accepted whatever the prover
// said.
//
// Oracle and prover failures abort the run. A task without a known ground
// truth is a configuration error and is rejected before any query is sent.
//
// Tasks run one at a time, in the order given. Every accepted record is
// appended to the checkpoint before the next task starts, so a crash loses
// at most the task in flight.
//
// Attempts are stamped from a logical Clock and, when a ledger is attached,
// written to it under the run ID; ordering never depends on wall time.
package engine
