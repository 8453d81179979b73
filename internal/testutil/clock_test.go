package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), NewDeterministicClock().Current())
}

func TestDeterministicClock_NextIncrementsMonotonically(t *testing.T) {
	clock := NewDeterministicClock()

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const goroutines = 50
	const calls = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make([][]int64, goroutines)
	for i := 0; i < goroutines; i++ {
		results[i] = make([]int64, calls)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				results[idx][j] = clock.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, row := range results {
		for _, v := range row {
			require.False(t, seen[v], "duplicate value %d", v)
			seen[v] = true
		}
	}
	for i := int64(1); i <= goroutines*calls; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

func TestSteppingTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewSteppingTime(start, 250*time.Millisecond)

	first := clock.Now()
	second := clock.Now()

	assert.Equal(t, start, first)
	assert.Equal(t, 250*time.Millisecond, second.Sub(first))
}
