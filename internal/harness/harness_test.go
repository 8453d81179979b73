package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_GoldenScenarios(t *testing.T) {
	for _, name := range []string{
		"e2e_no_sample",
		"refinement_bound",
		"refine_then_accept",
		"oracle_failure",
		"prior_merge",
		"prover_unexpected",
	} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_EndToEndWithoutProver(t *testing.T) {
	result, err := Run(loadTestScenario(t, "e2e_no_sample"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []ir.Task{
		{Property: "always-positive", Version: "1"},
		{Property: "always-positive", Version: "2"},
	}, result.Tasks)
	assert.Equal(t, 2, result.OracleCalls)
	require.Len(t, result.Records, 2)
	assert.Equal(t, ir.Holds, result.Records[0].GroundTruth)
	assert.Equal(t, ir.Violated, result.Records[1].GroundTruth)

	require.Len(t, result.Trace, 2)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, 1, ev.Iteration)
		assert.False(t, ev.ProverRan)
		assert.True(t, ev.Accepted)
	}
}

func TestRun_RefinementBound(t *testing.T) {
	result, err := Run(loadTestScenario(t, "refinement_bound"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 3)
	for i, ev := range result.Trace {
		assert.Equal(t, i+1, ev.Iteration)
		assert.True(t, ev.ProverRan)
		assert.False(t, ev.ProverPassed)
	}
	assert.False(t, result.Trace[0].Accepted)
	assert.False(t, result.Trace[1].Accepted)
	assert.True(t, result.Trace[2].Accepted, "last attempt is kept")
}

func TestRun_AcceptOnFailPolarity(t *testing.T) {
	s := loadTestScenario(t, "refinement_bound")
	s.Prover.AcceptOn = "fail"
	s.Assertions = []Assertion{
		{Type: AssertOracleCalls, Count: 1},
		{Type: AssertAttempts, Property: "always-positive", Version: "2", Count: 1},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ForceOverwrite(t *testing.T) {
	s := loadTestScenario(t, "prior_merge")
	s.ForceOverwrite = true
	s.Oracle.Repeat = true
	s.Assertions = []Assertion{
		{Type: AssertOracleCalls, Count: 2},
		{Type: AssertTableRows, Count: 2},
		{Type: AssertRecord, Property: "always-positive", Version: "1", Answer: "UNKNOWN"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Tasks, 2)
}

func TestRun_BalancedSample(t *testing.T) {
	result, err := Run(loadTestScenario(t, "balanced_sample"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "always-positive", result.Tasks[0].Property)
	assert.Contains(t, []string{"1", "2", "3"}, result.Tasks[0].Version)
	assert.Equal(t, "4", result.Tasks[1].Version)
}

func TestRun_SameSeedSameTasks(t *testing.T) {
	first, err := Run(loadTestScenario(t, "balanced_sample"))
	require.NoError(t, err)
	second, err := Run(loadTestScenario(t, "balanced_sample"))
	require.NoError(t, err)

	assert.Equal(t, first.Tasks, second.Tasks)
}

func TestRun_ManifestSkipsUnlabelled(t *testing.T) {
	s := loadTestScenario(t, "e2e_no_sample")
	s.Sampling = Sampling{Manifest: []ir.Task{
		{Property: "always-positive", Version: "2"},
		{Property: "always-positive", Version: "9"},
	}}
	s.Oracle.Responses = s.Oracle.Responses[1:]
	s.Assertions = []Assertion{
		{Type: AssertTasks, Tasks: []ir.Task{{Property: "always-positive", Version: "2"}}},
		{Type: AssertOracleCalls, Count: 1},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedAbortFails(t *testing.T) {
	s := loadTestScenario(t, "oracle_failure")
	s.Assertions = []Assertion{{Type: AssertOracleCalls, Count: 2}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "ORACLE_FAILED", result.ErrorCode)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "run aborted")
}

func TestRun_FailedAssertionReported(t *testing.T) {
	s := loadTestScenario(t, "e2e_no_sample")
	s.Assertions = []Assertion{{Type: AssertOracleCalls, Count: 5}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: 5 oracle calls")
	assert.Contains(t, result.Errors[0], "Actual: 2 oracle calls")
}
