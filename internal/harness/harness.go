package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/roach88/propcheck/internal/engine"
	"github.com/roach88/propcheck/internal/groundtruth"
	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/oracle"
	"github.com/roach88/propcheck/internal/prover"
	"github.com/roach88/propcheck/internal/results"
	"github.com/roach88/propcheck/internal/sampler"
	"github.com/roach88/propcheck/internal/store"
	"github.com/roach88/propcheck/internal/testutil"
)

// Epoch is the wall-clock origin of every scenario run.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Error codes for aborts that are not engine.RunErrors.
const (
	ErrCodeMissingGroundTruth = "MISSING_GROUND_TRUTH"
	ErrCodeAttemptsExceeded   = "ATTEMPTS_EXCEEDED"
	ErrCodeRunFailed          = "RUN_FAILED"
)

// Harness holds the per-scenario collaborators.
type Harness struct {
	store  *store.Store
	runIDs engine.RunIDGenerator
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory ledger and a temporary prover
// root. An error is returned only when the scenario cannot be set up; a run
// that aborts is reported through Result.ErrorCode.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		runIDs: testutil.NewFixedRunIDGenerator(scenario.RunID),
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()

	truths := groundtruth.New(labels(s.GroundTruth))
	properties, versions := universe(s)

	seed := sampler.DefaultSeed
	if s.Sampling.Seed != nil {
		seed = *s.Sampling.Seed
	}
	smp := sampler.New(seed, sampler.Options{
		NoSample: s.Sampling.NoSample,
		AtLeastN: s.Sampling.AtLeastN,
		Manifest: s.Sampling.Manifest,
	}, h.logger)
	tasks := smp.SampleAll(properties, func(string) []string { return versions }, truths)

	prior := results.NewTable(priorRecords(s.Prior, s.Tokens))
	if !s.ForceOverwrite {
		pending := tasks[:0:0]
		for _, t := range tasks {
			if !prior.Done(t) {
				pending = append(pending, t)
			}
		}
		tasks = pending
	}
	result.Tasks = tasks

	runID := h.runIDs.Generate()
	if err := h.store.BeginRun(ctx, ir.Run{
		ID:         runID,
		Contract:   s.Contract,
		Model:      "scripted",
		Prompt:     s.Name,
		TokenLimit: s.Tokens,
		Seed:       seed,
		StartedAt:  Epoch.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("failed to begin run: %w", err)
	}

	orc := oracle.NewScripted(s.Oracle.Responses...)
	orc.Repeat = s.Oracle.Repeat
	if s.Oracle.FailOn > 0 {
		orc.FailOn = s.Oracle.FailOn
		orc.Fail = errors.New(s.Oracle.Fail)
	}

	opts := engine.Options{Contract: s.Contract, MaxTokens: s.Tokens}
	options := []engine.Option{
		engine.WithLedger(h.store, runID),
		engine.WithClock(h.clock),
		engine.WithNow(testutil.NewSteppingTime(Epoch, time.Second).Now),
		engine.WithLogger(h.logger),
	}
	if p := s.Prover; p != nil {
		root, err := os.MkdirTemp("", "propcheck-harness-")
		if err != nil {
			return nil, fmt.Errorf("failed to create prover root: %w", err)
		}
		defer os.RemoveAll(root)

		opts.CheckWithProver = true
		opts.AcceptOn = engine.AcceptPolicy(p.AcceptOn)
		opts.MaxAttempts = p.MaxAttempts
		bridge := prover.New(prover.Config{Binary: "forge", Root: root}, &scriptedRunner{outputs: p.Outputs}, h.logger)
		options = append(options, engine.WithValidator(bridge))
	}

	loop := engine.New(orc, templatePrompter(s.Prompt), truths, opts, options...)
	records, runErr := loop.Run(ctx, tasks)

	status := ir.RunFinished
	if runErr != nil {
		status = ir.RunAborted
		result.ErrorCode = errorCode(runErr)
	}
	if err := h.store.FinishRun(ctx, runID, status, Epoch.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}

	result.Records = records
	prior.Merge(records)
	result.Table = prior.Records()
	result.OracleCalls = len(orc.Calls())

	attempts, err := h.store.ReadAttempts(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}
	for _, a := range attempts {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:          a.Seq,
			Property:     a.Task.Property,
			Version:      a.Task.Version,
			Iteration:    a.Iteration,
			Answer:       a.Verdict.Answer,
			ProverRan:    a.ProverRan,
			ProverPassed: a.ProverPassed,
			Accepted:     a.Accepted,
		})
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	if runErr != nil && !expectsError(s.Assertions) {
		result.AddError(fmt.Sprintf("run aborted: %v", runErr))
	}
	return result, nil
}

// errorCode classifies an error returned by the loop.
func errorCode(err error) string {
	var re *engine.RunError
	var ae *engine.AttemptsExceededError
	switch {
	case errors.As(err, &re):
		return string(re.Code)
	case errors.Is(err, engine.ErrMissingGroundTruth):
		return ErrCodeMissingGroundTruth
	case errors.As(err, &ae):
		return ErrCodeAttemptsExceeded
	default:
		return ErrCodeRunFailed
	}
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}

func labels(rows []Label) map[ir.Task]ir.Truth {
	m := make(map[ir.Task]ir.Truth, len(rows))
	for _, l := range rows {
		m[ir.Task{Property: l.Property, Version: l.Version}] = ir.ParseTruth(l.Truth)
	}
	return m
}

// universe returns the scenario's properties and versions, defaulting to the
// ground-truth rows in order of first appearance.
func universe(s *Scenario) (properties, versions []string) {
	properties, versions = s.Properties, s.Versions
	seenP := map[string]bool{}
	seenV := map[string]bool{}
	for _, l := range s.GroundTruth {
		if len(s.Properties) == 0 && !seenP[l.Property] {
			seenP[l.Property] = true
			properties = append(properties, l.Property)
		}
		v := groundtruth.NormalizeVersion(l.Version)
		if len(s.Versions) == 0 && !seenV[v] {
			seenV[v] = true
			versions = append(versions, v)
		}
	}
	return properties, versions
}

func priorRecords(rows []PriorRow, tokens int) []ir.Record {
	records := make([]ir.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, ir.Record{
			ContractID:  row.Version,
			PropertyID:  row.Property,
			GroundTruth: ir.ParseTruth(row.GroundTruth),
			Answer:      ir.Answer(row.Answer),
			TokenLimit:  tokens,
		})
	}
	return records
}

// templatePrompter fills {property} and {version} into a fixed template.
type templatePrompter string

func (p templatePrompter) Prompt(task ir.Task) (string, error) {
	return strings.NewReplacer("{property}", task.Property, "{version}", task.Version).Replace(string(p)), nil
}

// scriptedRunner stands in for the prover binary. It serves outputs in order
// and repeats the last one.
type scriptedRunner struct {
	mu      sync.Mutex
	outputs []string
	next    int
}

func (r *scriptedRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.outputs[min(r.next, len(r.outputs)-1)]
	r.next++
	return []byte(out), nil
}
