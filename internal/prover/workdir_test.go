package prover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInDirRestoresOnSuccess(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)
	target, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	var inside string
	err = InDir(target, func() error {
		inside, _ = os.Getwd()
		return nil
	})
	require.NoError(t, err)

	after, _ := os.Getwd()
	assert.Equal(t, target, inside)
	assert.Equal(t, before, after)
}

func TestInDirRestoresOnError(t *testing.T) {
	before, _ := os.Getwd()
	boom := errors.New("boom")

	err := InDir(t.TempDir(), func() error { return boom })

	assert.ErrorIs(t, err, boom)
	after, _ := os.Getwd()
	assert.Equal(t, before, after)
}

func TestInDirRestoresOnPanic(t *testing.T) {
	before, _ := os.Getwd()

	assert.Panics(t, func() {
		_ = InDir(t.TempDir(), func() error { panic("prover crashed") })
	})

	after, _ := os.Getwd()
	assert.Equal(t, before, after)
}

func TestInDirMissingDirectory(t *testing.T) {
	before, _ := os.Getwd()
	called := false

	err := InDir(filepath.Join(t.TempDir(), "missing"), func() error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	after, _ := os.Getwd()
	assert.Equal(t, before, after)
}
