package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/propcheck/internal/ir"
)

// ErrMissingGroundTruth is returned when a task handed to the loop has no
// known ground truth. It is a configuration error, never a soft skip.
var ErrMissingGroundTruth = errors.New("missing ground truth")

// RunError is a fatal failure that aborted a run while working on a task.
//
// Run errors include:
//   - Oracle failure: the model API returned an error
//   - Prover failure: the prover could not be run or printed neither marker
//   - Prompt failure: the prompt for the task could not be built
//   - Checkpoint failure: the accepted record could not be persisted
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Task is the task in flight.
	Task ir.Task

	// Iteration is the 1-based attempt number, 0 when no attempt started.
	Iteration int

	// Err is the underlying cause.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeOracle indicates the oracle call failed.
	ErrCodeOracle RunErrorCode = "ORACLE_FAILED"

	// ErrCodeProver indicates the prover run failed or was unreadable.
	ErrCodeProver RunErrorCode = "PROVER_FAILED"

	// ErrCodePrompt indicates the task prompt could not be built.
	ErrCodePrompt RunErrorCode = "PROMPT_FAILED"

	// ErrCodeCheckpoint indicates a record could not be checkpointed.
	ErrCodeCheckpoint RunErrorCode = "CHECKPOINT_FAILED"

	// ErrCodeLedger indicates an attempt could not be recorded.
	ErrCodeLedger RunErrorCode = "LEDGER_FAILED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("%s: task %s iteration %d: %v", e.Code, e.Task, e.Iteration, e.Err)
	}
	return fmt.Sprintf("%s: task %s: %v", e.Code, e.Task, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsOracleError reports whether err is an aborted oracle call.
// Uses errors.As to handle wrapped errors.
func IsOracleError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeOracle
}

// IsProverError reports whether err is an aborted prover run.
func IsProverError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeProver
}

// MissingGroundTruthError lists the tasks that lack a known ground truth.
type MissingGroundTruthError struct {
	Tasks []ir.Task
}

// Error implements the error interface.
func (e *MissingGroundTruthError) Error() string {
	if len(e.Tasks) == 1 {
		return fmt.Sprintf("%v for task %s", ErrMissingGroundTruth, e.Tasks[0])
	}
	return fmt.Sprintf("%v for %d tasks (first %s)", ErrMissingGroundTruth, len(e.Tasks), e.Tasks[0])
}

// Is makes errors.Is(err, ErrMissingGroundTruth) match.
func (e *MissingGroundTruthError) Is(target error) bool {
	return target == ErrMissingGroundTruth
}
