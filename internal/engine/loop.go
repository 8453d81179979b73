package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/propcheck/internal/groundtruth"
	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/oracle"
	"github.com/roach88/propcheck/internal/parser"
	"github.com/roach88/propcheck/internal/prover"
)

// Validator runs a counterexample through the prover.
// Implemented by *prover.Bridge.
type Validator interface {
	Validate(ctx context.Context, req prover.Request) (ir.ProverOutcome, error)
}

// PromptSource builds the initial prompt for a task.
// Implemented by *corpus.Prompter.
type PromptSource interface {
	Prompt(task ir.Task) (string, error)
}

// Checkpointer durably appends accepted records.
// Implemented by *results.Checkpoint.
type Checkpointer interface {
	Append(r ir.Record) error
}

// Ledger records every attempt.
// Implemented by *store.Store.
type Ledger interface {
	WriteAttempt(ctx context.Context, a ir.Attempt) (bool, error)
}

// SeqSource stamps attempts with logical time.
// Implemented by *Clock and *testutil.DeterministicClock.
type SeqSource interface {
	Next() int64
}

// AcceptPolicy decides which prover outcome ends the refinement loop.
type AcceptPolicy string

const (
	// AcceptOnPass accepts when the prover's test run passed, i.e. the
	// counterexample test executed and asserted the violation.
	AcceptOnPass AcceptPolicy = "pass"

	// AcceptOnFail accepts when the prover reported a failing test.
	AcceptOnFail AcceptPolicy = "fail"
)

// Accepts reports whether outcome ends the loop under the policy.
func (p AcceptPolicy) Accepts(outcome ir.ProverOutcome) bool {
	if p == AcceptOnFail {
		return !outcome.Passed
	}
	return outcome.Passed
}

// Options configures the loop.
type Options struct {
	// Contract names the contract under test; it namespaces prover artifacts.
	Contract string

	// MaxTokens is the oracle output budget per query.
	MaxTokens int

	// CheckWithProver enables the VALIDATE state.
	CheckWithProver bool

	// MaxAttempts caps queries per task. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// AcceptOn selects the accepting prover outcome. Empty means AcceptOnPass.
	AcceptOn AcceptPolicy
}

// Loop runs the query-and-verify feedback loop over tasks.
//
// A Loop is single-threaded: Run and RunTask must not be called concurrently.
type Loop struct {
	oracle     oracle.Oracle
	prompts    PromptSource
	truths     *groundtruth.Index
	opts       Options
	validator  Validator
	checkpoint Checkpointer
	ledger     Ledger
	runID      string
	clock      SeqSource
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures optional collaborators of a Loop.
type Option func(*Loop)

// WithValidator attaches the prover. Required when CheckWithProver is set.
func WithValidator(v Validator) Option {
	return func(l *Loop) { l.validator = v }
}

// WithCheckpoint appends every accepted record to c.
func WithCheckpoint(c Checkpointer) Option {
	return func(l *Loop) { l.checkpoint = c }
}

// WithLedger records every attempt in ledger under runID.
func WithLedger(ledger Ledger, runID string) Option {
	return func(l *Loop) {
		l.ledger = ledger
		l.runID = runID
	}
}

// WithClock sets the logical clock used to stamp attempts.
func WithClock(c SeqSource) Option {
	return func(l *Loop) { l.clock = c }
}

// WithNow overrides the wall clock used to measure query latency.
func WithNow(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithLogger sets the loop's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates a loop.
func New(o oracle.Oracle, prompts PromptSource, truths *groundtruth.Index, opts Options, options ...Option) *Loop {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.AcceptOn == "" {
		opts.AcceptOn = AcceptOnPass
	}
	l := &Loop{
		oracle:  o,
		prompts: prompts,
		truths:  truths,
		opts:    opts,
		clock:   NewClock(),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Run processes tasks in order and returns one record per task.
//
// Every task is checked for a known ground truth before the first query.
// On a fatal error the records accepted so far are returned with the error.
func (l *Loop) Run(ctx context.Context, tasks []ir.Task) ([]ir.Record, error) {
	if missing := l.truths.Missing(tasks); len(missing) > 0 {
		return nil, &MissingGroundTruthError{Tasks: missing}
	}
	if l.opts.CheckWithProver && l.validator == nil {
		return nil, fmt.Errorf("prover checking enabled without a prover")
	}

	records := make([]ir.Record, 0, len(tasks))
	for i, task := range tasks {
		l.logger.Info("running task", "task", task.String(), "n", i+1, "of", len(tasks))
		rec, err := l.RunTask(ctx, task)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// RunTask drives one task to acceptance.
func (l *Loop) RunTask(ctx context.Context, task ir.Task) (ir.Record, error) {
	truth := l.truths.Lookup(task)
	if !truth.Known() {
		return ir.Record{}, &MissingGroundTruthError{Tasks: []ir.Task{task}}
	}

	prompt, err := l.prompts.Prompt(task)
	if err != nil {
		return ir.Record{}, &RunError{Code: ErrCodePrompt, Task: task, Err: err}
	}

	budget := NewAttemptBudget(l.opts.MaxAttempts)
	for {
		iteration, err := budget.Take(task)
		if err != nil {
			return ir.Record{}, err
		}

		start := l.now()
		raw, err := l.oracle.Query(ctx, prompt, l.opts.MaxTokens)
		elapsed := l.now().Sub(start)
		if err != nil {
			return ir.Record{}, &RunError{Code: ErrCodeOracle, Task: task, Iteration: iteration, Err: err}
		}

		verdict := parser.Parse(raw)
		attempt := ir.Attempt{
			RunID:      l.runID,
			Task:       task,
			Iteration:  iteration,
			Seq:        l.clock.Next(),
			PromptHash: ir.PromptHash(prompt),
			Verdict:    verdict,
			RawOutput:  raw,
			ElapsedMS:  elapsed.Milliseconds(),
			Accepted:   true,
		}

		var proverLog string
		if l.opts.CheckWithProver {
			outcome, err := l.validator.Validate(ctx, prover.Request{
				Contract:       l.opts.Contract,
				Property:       task.Property,
				Version:        task.Version,
				Counterexample: verdict.Counterexample,
				Iteration:      iteration,
			})
			if err != nil {
				return ir.Record{}, &RunError{Code: ErrCodeProver, Task: task, Iteration: iteration, Err: err}
			}
			attempt.ProverRan = true
			attempt.ProverPassed = outcome.Passed
			attempt.ArtifactPath = outcome.ArtifactPath
			attempt.Accepted = l.opts.AcceptOn.Accepts(outcome)
			proverLog = outcome.Log

			if !attempt.Accepted && budget.Last() {
				l.logger.Warn("attempts exhausted, accepting last answer",
					"property", task.Property, "version", task.Version, "iteration", iteration)
				attempt.Accepted = true
			}
		}

		if err := l.record(ctx, attempt); err != nil {
			return ir.Record{}, err
		}

		if attempt.Accepted {
			rec := ir.Record{
				ContractID:     task.Version,
				PropertyID:     task.Property,
				GroundTruth:    truth,
				Answer:         verdict.Answer,
				Explanation:    verdict.Explanation,
				Counterexample: verdict.Counterexample,
				Elapsed:        elapsed,
				TokenLimit:     l.opts.MaxTokens,
				RawOutput:      raw,
			}
			if l.checkpoint != nil {
				if err := l.checkpoint.Append(rec); err != nil {
					return ir.Record{}, &RunError{Code: ErrCodeCheckpoint, Task: task, Iteration: iteration, Err: err}
				}
			}
			l.logger.Info("task accepted", "property", task.Property, "version", task.Version,
				"answer", string(verdict.Answer), "ground_truth", truth.String(), "iterations", iteration)
			return rec, nil
		}

		l.logger.Warn("counterexample rejected by prover, refining",
			"property", task.Property, "version", task.Version, "iteration", iteration)
		prompt = Refine(prompt, raw, proverLog)
	}
}

func (l *Loop) record(ctx context.Context, a ir.Attempt) error {
	if l.ledger == nil {
		return nil
	}
	if _, err := l.ledger.WriteAttempt(ctx, a); err != nil {
		return &RunError{Code: ErrCodeLedger, Task: a.Task, Iteration: a.Iteration, Err: err}
	}
	return nil
}
