package engine

import "fmt"

// DefaultMaxAttempts bounds the queries spent on one task.
const DefaultMaxAttempts = 3

// AttemptBudget counts the attempts made on one task and enforces the cap.
//
// A fresh budget is created per task. Take is called before every query;
// Last reports whether the attempt just taken was the final one allowed,
// at which point the loop must accept whatever it has.
type AttemptBudget struct {
	max     int
	current int
}

// NewAttemptBudget creates a budget allowing max attempts. Values below 1
// are raised to 1: every task gets at least one query.
func NewAttemptBudget(max int) *AttemptBudget {
	if max < 1 {
		max = 1
	}
	return &AttemptBudget{max: max}
}

// Take consumes one attempt and returns its 1-based number.
// Returns AttemptsExceededError once the cap has been used up.
func (b *AttemptBudget) Take(task fmt.Stringer) (int, error) {
	if b.current >= b.max {
		return b.current, &AttemptsExceededError{Task: task.String(), Limit: b.max}
	}
	b.current++
	return b.current, nil
}

// Last reports whether no attempts remain.
func (b *AttemptBudget) Last() bool {
	return b.current >= b.max
}

// Current returns the number of attempts taken.
func (b *AttemptBudget) Current() int {
	return b.current
}

// Max returns the cap.
func (b *AttemptBudget) Max() int {
	return b.max
}

// AttemptsExceededError is returned by Take past the cap. The loop never
// produces it; it guards against a refinement path that forgets to stop.
type AttemptsExceededError struct {
	Task  string
	Limit int
}

// Error implements the error interface.
func (e *AttemptsExceededError) Error() string {
	return fmt.Sprintf("task %s exceeded max attempts: limit %d", e.Task, e.Limit)
}
