package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/propcheck/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the attempt trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] (%s, %s) #%d %s accepted=%t\n",
				ev.Seq, ev.Property, ev.Version, ev.Iteration, ev.Answer, ev.Accepted)
		}
	}
	return buf.String()
}

func assertOracleCalls(result *Result, a Assertion) error {
	if result.OracleCalls == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertOracleCalls,
		Expected: fmt.Sprintf("%d oracle calls", a.Count),
		Actual:   fmt.Sprintf("%d oracle calls", result.OracleCalls),
		Trace:    result.Trace,
	}
}

func assertAttempts(result *Result, a Assertion) error {
	task := ir.Task{Property: a.Property, Version: a.Version}
	if got := result.AttemptCount(task); got != a.Count {
		return &AssertionError{
			Type:     AssertAttempts,
			Expected: fmt.Sprintf("%d attempts for %s", a.Count, task),
			Actual:   fmt.Sprintf("%d attempts", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertRecord(result *Result, a Assertion) error {
	for _, r := range result.Table {
		if r.PropertyID != a.Property || r.ContractID != a.Version {
			continue
		}
		if string(r.Answer) == a.Answer {
			return nil
		}
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("answer %s for (%s, %s)", a.Answer, a.Property, a.Version),
			Actual:   fmt.Sprintf("answer %s", r.Answer),
			Trace:    result.Trace,
		}
	}
	return &AssertionError{
		Type:     AssertRecord,
		Expected: fmt.Sprintf("row for (%s, %s)", a.Property, a.Version),
		Actual:   "not found in table",
		Trace:    result.Trace,
	}
}

func assertTableRows(result *Result, a Assertion) error {
	if len(result.Table) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTableRows,
		Expected: fmt.Sprintf("%d rows", a.Count),
		Actual:   fmt.Sprintf("%d rows", len(result.Table)),
	}
}

func assertTasks(result *Result, a Assertion) error {
	want := a.Tasks
	if want == nil {
		want = []ir.Task{}
	}
	got := result.Tasks
	if got == nil {
		got = []ir.Task{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return &AssertionError{
			Type:     AssertTasks,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v (-want +got)\n%s", got, diff),
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	if result.ErrorCode == a.Code {
		return nil
	}
	actual := result.ErrorCode
	if actual == "" {
		actual = "run completed"
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("abort with %s", a.Code),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertOracleCalls:
			err = assertOracleCalls(result, a)
		case AssertAttempts:
			err = assertAttempts(result, a)
		case AssertRecord:
			err = assertRecord(result, a)
		case AssertTableRows:
			err = assertTableRows(result, a)
		case AssertTasks:
			err = assertTasks(result, a)
		case AssertError:
			err = assertError(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
