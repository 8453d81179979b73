package sampler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

func TestLoadManifestSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := "Property,version\nwithdraw-ok, 3\nlonely\ndeposit-ok,4,extra\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tasks, err := LoadManifest(path, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []ir.Task{
		{Property: "withdraw-ok", Version: "3"},
		{Property: "deposit-ok", Version: "4"},
	}, tasks)
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.csv"), quietLogger())
	assert.Error(t, err)
}

func TestAppendManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tasks.csv")
	first := []ir.Task{{Property: "a", Version: "1"}}
	second := []ir.Task{{Property: "b", Version: "2"}}

	require.NoError(t, AppendManifest(path, first))
	require.NoError(t, AppendManifest(path, second))

	tasks, err := LoadManifest(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), tasks)
}
