package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted is returned by Scripted once every response has been served.
var ErrExhausted = errors.New("scripted oracle: all responses consumed")

// Call records one query made to a Scripted oracle.
type Call struct {
	Prompt    string
	MaxTokens int
}

// Scripted replays predetermined responses in order, for tests and harness
// scenarios. When Repeat is set the last response is served forever.
//
// Thread-safety: Scripted is safe for concurrent use via internal mutex.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
	calls     []Call
	Repeat    bool

	// FailOn makes call number FailOn (1-based) return Fail instead of a
	// response.
	FailOn int
	Fail   error
}

// NewScripted creates an oracle that returns responses in order.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// Query implements Oracle.
func (s *Scripted) Query(_ context.Context, prompt string, maxTokens int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Prompt: prompt, MaxTokens: maxTokens})
	if s.FailOn == len(s.calls) && s.Fail != nil {
		return "", s.Fail
	}
	if s.next >= len(s.responses) {
		if s.Repeat && len(s.responses) > 0 {
			return s.responses[len(s.responses)-1], nil
		}
		return "", fmt.Errorf("%w (call %d)", ErrExhausted, len(s.calls))
	}
	resp := s.responses[s.next]
	s.next++
	return resp, nil
}

// Calls returns a copy of the recorded queries.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
