package harness

import "github.com/roach88/propcheck/internal/ir"

// TraceEvent is one ledger attempt, in sequence order.
type TraceEvent struct {
	Seq          int64     `json:"seq"`
	Property     string    `json:"property"`
	Version      string    `json:"version"`
	Iteration    int       `json:"iteration"`
	Answer       ir.Answer `json:"answer"`
	ProverRan    bool      `json:"prover_ran"`
	ProverPassed bool      `json:"prover_passed"`
	Accepted     bool      `json:"accepted"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Tasks is the task list handed to the loop.
	Tasks []ir.Task `json:"tasks"`

	// Records are the records accepted during the run.
	Records []ir.Record `json:"records"`

	// Table is the prior table with Records merged in.
	Table []ir.Record `json:"table"`

	// Trace lists every attempt the ledger recorded.
	Trace []TraceEvent `json:"trace"`

	// OracleCalls counts oracle queries.
	OracleCalls int `json:"oracle_calls"`

	// ErrorCode classifies the error that aborted the run, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AttemptCount returns the number of attempts recorded for task.
func (r *Result) AttemptCount(task ir.Task) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Property == task.Property && ev.Version == task.Version {
			n++
		}
	}
	return n
}
