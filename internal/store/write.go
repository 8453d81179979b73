package store

import (
	"context"
	"fmt"

	"github.com/roach88/propcheck/internal/ir"
)

// BeginRun inserts a run record. Tasks starts at zero and counts accepted
// attempts as they are written.
// Uses ON CONFLICT(id) DO NOTHING - beginning the same run twice is a no-op.
func (s *Store) BeginRun(ctx context.Context, run ir.Run) error {
	if run.Status == "" {
		run.Status = ir.RunRunning
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, contract, model, prompt, tokens, seed, started_at, status, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Contract,
		run.Model,
		run.Prompt,
		run.TokenLimit,
		int64(run.Seed),
		run.StartedAt,
		run.Status,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the terminal status of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status, finishedAt string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, status, finishedAt, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// WriteAttempt inserts an attempt record and reports whether a new row was
// written. An empty ID is filled in from ir.AttemptID.
//
// Uses ON CONFLICT DO NOTHING for idempotency: the same (run, task,
// iteration) is recorded once.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteAttempt(ctx context.Context, a ir.Attempt) (inserted bool, err error) {
	if a.ID == "" {
		if a.ID, err = ir.AttemptID(a.RunID, a.Task, a.Iteration); err != nil {
			return false, fmt.Errorf("write attempt: %w", err)
		}
	}
	verdictJSON, err := marshalVerdict(a.Verdict)
	if err != nil {
		return false, fmt.Errorf("write attempt: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts
		(id, run_id, property, version, iteration, seq, prompt_hash, verdict, raw_output,
		 elapsed_ms, prover_ran, prover_passed, artifact_path, accepted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		a.ID,
		a.RunID,
		a.Task.Property,
		a.Task.Version,
		a.Iteration,
		a.Seq,
		a.PromptHash,
		verdictJSON,
		a.RawOutput,
		a.ElapsedMS,
		boolInt(a.ProverRan),
		boolInt(a.ProverPassed),
		a.ArtifactPath,
		boolInt(a.Accepted),
	)
	if err != nil {
		return false, fmt.Errorf("write attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write attempt: rows affected: %w", err)
	}
	if n > 0 {
		if _, err := s.db.ExecContext(ctx, `UPDATE runs SET tasks = tasks + ? WHERE id = ?`,
			boolInt(a.Accepted), a.RunID); err != nil {
			return true, fmt.Errorf("write attempt: count task: %w", err)
		}
	}
	return n > 0, nil
}
