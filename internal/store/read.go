package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/propcheck/internal/ir"
)

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, contract, model, prompt, tokens, seed, started_at, finished_at, status, tasks, engine_version`

const attemptColumns = `id, run_id, property, version, iteration, seq, prompt_hash, verdict, raw_output,
	elapsed_ms, prover_ran, prover_passed, artifact_path, accepted`

// ListRuns returns every run, oldest first.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run. A missing run yields ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// ReadAttempts returns the attempts of a run in logical-clock order.
func (s *Store) ReadAttempts(ctx context.Context, runID string) ([]ir.Attempt, error) {
	return s.queryAttempts(ctx, `
		SELECT `+attemptColumns+`
		FROM attempts
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// AttemptsForTask returns every recorded attempt at task across all runs.
func (s *Store) AttemptsForTask(ctx context.Context, task ir.Task) ([]ir.Attempt, error) {
	return s.queryAttempts(ctx, `
		SELECT `+attemptColumns+`
		FROM attempts
		WHERE property = ? AND version = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC
	`, task.Property, task.Version)
}

func (s *Store) queryAttempts(ctx context.Context, query string, args ...any) ([]ir.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []ir.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	var seed int64
	err := row.Scan(
		&run.ID,
		&run.Contract,
		&run.Model,
		&run.Prompt,
		&run.TokenLimit,
		&seed,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Status,
		&run.Tasks,
		&run.EngineVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Seed = uint64(seed)
	return run, nil
}

func scanAttempt(row scanner) (ir.Attempt, error) {
	var a ir.Attempt
	var verdictJSON string
	var proverRan, proverPassed, accepted int
	err := row.Scan(
		&a.ID,
		&a.RunID,
		&a.Task.Property,
		&a.Task.Version,
		&a.Iteration,
		&a.Seq,
		&a.PromptHash,
		&verdictJSON,
		&a.RawOutput,
		&a.ElapsedMS,
		&proverRan,
		&proverPassed,
		&a.ArtifactPath,
		&accepted,
	)
	if err != nil {
		return ir.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	if a.Verdict, err = unmarshalVerdict(verdictJSON); err != nil {
		return ir.Attempt{}, err
	}
	a.ProverRan = proverRan != 0
	a.ProverPassed = proverPassed != 0
	a.Accepted = accepted != 0
	return a, nil
}
