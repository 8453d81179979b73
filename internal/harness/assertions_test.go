package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

func sampleResult() *Result {
	r := NewResult()
	r.Tasks = []ir.Task{{Property: "p", Version: "1"}, {Property: "p", Version: "2"}}
	r.OracleCalls = 3
	r.Table = []ir.Record{
		{ContractID: "1", PropertyID: "p", Answer: ir.AnswerTrue},
		{ContractID: "2", PropertyID: "p", Answer: ir.AnswerFalse},
	}
	r.Trace = []TraceEvent{
		{Seq: 1, Property: "p", Version: "1", Iteration: 1, Answer: ir.AnswerTrue, Accepted: true},
		{Seq: 2, Property: "p", Version: "2", Iteration: 1, Answer: ir.AnswerFalse},
		{Seq: 3, Property: "p", Version: "2", Iteration: 2, Answer: ir.AnswerFalse, Accepted: true},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertOracleCalls, Count: 3},
		{Type: AssertAttempts, Property: "p", Version: "2", Count: 2},
		{Type: AssertAttempts, Property: "p", Version: "3", Count: 0},
		{Type: AssertRecord, Property: "p", Version: "1", Answer: "TRUE"},
		{Type: AssertTableRows, Count: 2},
		{Type: AssertTasks, Tasks: []ir.Task{{Property: "p", Version: "1"}, {Property: "p", Version: "2"}}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		contains  string
	}{
		{"oracle calls", Assertion{Type: AssertOracleCalls, Count: 1}, "Actual: 3 oracle calls"},
		{"attempts", Assertion{Type: AssertAttempts, Property: "p", Version: "1", Count: 2}, "Actual: 1 attempts"},
		{"record answer", Assertion{Type: AssertRecord, Property: "p", Version: "2", Answer: "TRUE"}, "Actual: answer FALSE"},
		{"record missing", Assertion{Type: AssertRecord, Property: "q", Version: "1", Answer: "TRUE"}, "not found in table"},
		{"table rows", Assertion{Type: AssertTableRows, Count: 0}, "Actual: 2 rows"},
		{"tasks", Assertion{Type: AssertTasks}, "-want +got"},
		{"error", Assertion{Type: AssertError, Code: "ORACLE_FAILED"}, "Actual: run completed"},
		{"unknown", Assertion{Type: "final_state"}, `unknown assertion type "final_state"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.contains)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertAttempts,
		Expected: "1 attempts",
		Actual:   "2 attempts",
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: attempts")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[3] (p, 2) #2 FALSE accepted=true")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
