package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propcheck/internal/ir"
)

func TestAttemptBudget_WithinLimit(t *testing.T) {
	b := NewAttemptBudget(3)
	task := ir.Task{Property: "p", Version: "1"}

	for want := 1; want <= 3; want++ {
		assert.False(t, b.Last(), "attempt %d", want)
		got, err := b.Take(task)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, b.Last())
	assert.Equal(t, 3, b.Current())
	assert.Equal(t, 3, b.Max())
}

func TestAttemptBudget_Exceeded(t *testing.T) {
	b := NewAttemptBudget(1)
	task := ir.Task{Property: "p", Version: "1"}

	_, err := b.Take(task)
	require.NoError(t, err)

	_, err = b.Take(task)
	var exceeded *AttemptsExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "(p, 1)", exceeded.Task)
	assert.Equal(t, 1, exceeded.Limit)
}

func TestAttemptBudget_FloorOfOne(t *testing.T) {
	assert.Equal(t, 1, NewAttemptBudget(0).Max())
	assert.Equal(t, 1, NewAttemptBudget(-5).Max())
}
