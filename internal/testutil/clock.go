package testutil

import (
	"sync"
	"time"
)

// DeterministicClock provides a thread-safe monotonic logical clock for tests.
//
// Unlike engine.Clock, DeterministicClock can be reset for test reuse, so
// the same scenario run twice stamps its attempts identically.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
// Implements engine.SeqSource.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset resets the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// SteppingTime is a wall clock that advances by a fixed step on every
// reading. Wired into the feedback loop with engine.WithNow it makes every
// measured query take exactly one step.
type SteppingTime struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingTime creates a clock whose first reading is start.
func NewSteppingTime(start time.Time, step time.Duration) *SteppingTime {
	return &SteppingTime{now: start, step: step}
}

// Now returns the current reading and advances the clock.
func (s *SteppingTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now
	s.now = s.now.Add(s.step)
	return t
}
