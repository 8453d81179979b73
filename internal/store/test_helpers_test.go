package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/propcheck/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun inserts a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id, startedAt string) ir.Run {
	t.Helper()
	run := ir.Run{
		ID:         id,
		Contract:   "vault",
		Model:      "gpt-4o",
		Prompt:     "zero_shot.txt",
		TokenLimit: 500,
		Seed:       42,
		StartedAt:  startedAt,
	}
	if err := s.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return run
}

// createTestAttempt builds an attempt with minimal required fields.
func createTestAttempt(runID, property, version string, iteration int, seq int64) ir.Attempt {
	return ir.Attempt{
		RunID:      runID,
		Task:       ir.Task{Property: property, Version: version},
		Iteration:  iteration,
		Seq:        seq,
		PromptHash: ir.PromptHash("prompt"),
		Verdict: ir.Verdict{
			Answer:         ir.AnswerFalse,
			Explanation:    "reentrancy",
			Counterexample: "pragma solidity ^0.8.0;\ncontract T {}",
		},
		RawOutput: "ANSWER: FALSE",
		ElapsedMS: 1200,
	}
}
