package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

const minimalScenario = `
name: minimal
description: "one task"
contract: payment_splitter
prompt: "check {property} on {version}"
ground_truth:
  - { property: p, version: "1", truth: "1" }
oracle:
  responses: ["ANSWER: TRUE\nEXPLANATION: ok\nCOUNTEREXAMPLE: none"]
assertions:
  - type: oracle_calls
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "payment_splitter", s.Contract)
	assert.Nil(t, s.Prover)
	assert.Nil(t, s.Sampling.Seed)
	require.Len(t, s.GroundTruth, 1)
	assert.Equal(t, Label{Property: "p", Version: "1", Truth: "1"}, s.GroundTruth[0])
	assert.Equal(t, "ANSWER: TRUE\nEXPLANATION: ok\nCOUNTEREXAMPLE: none", s.Oracle.Responses[0])
}

func TestParseScenario_ManifestAndSeed(t *testing.T) {
	data := minimalScenario + `
sampling:
  seed: 7
  manifest:
    - { property: p, version: "1" }
`
	s, err := ParseScenario([]byte(data))
	require.NoError(t, err)

	require.NotNil(t, s.Sampling.Seed)
	assert.Equal(t, uint64(7), *s.Sampling.Seed)
	assert.Equal(t, []ir.Task{{Property: "p", Version: "1"}}, s.Sampling.Manifest)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\ncontract: c\nprompt: p\n",
			wantErr: "name is required",
		},
		{
			name:    "missing ground truth",
			yaml:    "name: n\ndescription: d\ncontract: c\nprompt: p\n",
			wantErr: "ground_truth list is required",
		},
		{
			name: "no assertions",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
`,
			wantErr: "assertions list is required",
		},
		{
			name: "fail_on without message",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [], fail_on: 1 }
assertions: [{ type: oracle_calls, count: 1 }]
`,
			wantErr: "oracle.fail is required",
		},
		{
			name: "prover without outputs",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
prover: { accept_on: pass, outputs: [] }
assertions: [{ type: oracle_calls, count: 1 }]
`,
			wantErr: "prover.outputs is required",
		},
		{
			name: "bad accept policy",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
prover: { accept_on: maybe, outputs: ["[PASS]"] }
assertions: [{ type: oracle_calls, count: 1 }]
`,
			wantErr: "prover.accept_on must be pass or fail",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
assertions: [{ type: trace_contains }]
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "record without answer",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
assertions: [{ type: record, property: p, version: "1" }]
`,
			wantErr: "answer is required for record",
		},
		{
			name: "error without code",
			yaml: `name: n
description: d
contract: c
prompt: p
ground_truth: [{ property: p, version: "1", truth: "1" }]
oracle: { responses: [] }
assertions: [{ type: error }]
`,
			wantErr: "code is required for error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Files(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		s, err := LoadScenario(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, s.Assertions, f)
	}
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
