package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateValidConfig(t *testing.T) {
	path := writeConfig(t, `contract: vault
prompt: zero_shot.txt
prover:
  enabled: true
  accept_on: fail
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Equal(t, "✓ Config valid\n", out)
}

func TestValidateReportsWarnings(t *testing.T) {
	path := writeConfig(t, `contract: vault
prompt: zero_shot.txt
no_sample: true
at_least_n: 10
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.Valid)
	assert.Equal(t, []string{"at_least_n has no effect when no_sample is enabled"}, response.Data.Warnings)
	require.NotNil(t, response.Data.Config)
	assert.Equal(t, 0, response.Data.Config.AtLeastN)
}

func TestValidateSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing prompt",
			content: "contract: vault\n",
			want:    "prompt",
		},
		{
			name:    "bad provider",
			content: "contract: vault\nprompt: p.txt\nprovider: claude\n",
			want:    "provider",
		},
		{
			name:    "zero attempts",
			content: "contract: vault\nprompt: p.txt\nprover:\n  max_attempts: 0\n",
			want:    "max_attempts",
		},
		{
			name:    "conflicting modes",
			content: "contract: vault\nprompt: p.txt\nversion: \"3\"\ntask_manifest: tasks.csv\n",
			want:    "conflicting modes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidateJSONError(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), writeConfig(t, "contract: vault\n"))
	require.Error(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeConfig, response.Error.Code)
}

func TestValidateUnknownKey(t *testing.T) {
	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), writeConfig(t, "contract: vault\npromt: p.txt\n"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestValidateMissingFile(t *testing.T) {
	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
