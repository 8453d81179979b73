package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/config"
	"github.com/roach88/propcheck/internal/corpus"
	"github.com/roach88/propcheck/internal/engine"
	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/oracle"
	"github.com/roach88/propcheck/internal/prover"
	"github.com/roach88/propcheck/internal/results"
	"github.com/roach88/propcheck/internal/sampler"
	"github.com/roach88/propcheck/internal/store"
)

// runStamp formats run start times in file names.
const runStamp = "2006-01-02_15-04-05"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	flags config.Config

	// Oracle overrides the configured provider (for testing).
	Oracle oracle.Oracle

	// ProverRunner overrides the prover process runner (for testing).
	ProverRunner prover.Runner

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator

	// Now overrides the wall clock (for testing).
	Now func() time.Time
}

// RunSummary is the outcome of one run.
type RunSummary struct {
	RunID      string `json:"run_id"`
	Contract   string `json:"contract"`
	Results    string `json:"results"`
	Checkpoint string `json:"checkpoint,omitempty"`
	Manifest   string `json:"manifest,omitempty"`
	Planned    int    `json:"planned"`
	Skipped    int    `json:"skipped"`
	Completed  int    `json:"completed"`
	Agreeing   int    `json:"agreeing"`
	Rows       int    `json:"rows"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand builds the run command around opts, so tests can set the
// oracle, prover and clock hooks before executing it.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Query the model over sampled tasks and record verdicts",
		Long: `Sample verification tasks for a contract, ask the model about each one
and merge the verdicts into the contract's result table.

With --prover, every counterexample is run through the prover and rejected
answers are refined, up to --max-attempts queries per task. Accepted records
are checkpointed as they arrive and every attempt is written to the ledger.

Tasks already present in the result table are skipped unless
--force-overwrite is given.

Exit codes:
  0 - Run completed
  1 - Run aborted by an oracle, prover or file-system failure
  2 - Configuration error

Examples:
  propcheck run --contract vault --prompt zero_shot.txt --no-sample
  propcheck run --contract vault --prompt zero_shot.txt --prover --accept-on fail
  propcheck run --config experiment.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(opts, cmd)
		},
	}

	bindTaskFlags(cmd, &opts.flags)
	bindRunFlags(cmd, &opts.flags)

	return cmd
}

func runExperiment(opts *RunOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveConfig(cmd, opts.Config, &opts.flags, config.Validate, logger)
	if err != nil {
		return err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	started := now()
	stamp := started.Format(runStamp)

	plan, err := planTasks(cfg, logger)
	if err != nil {
		return err
	}

	// Prior results
	resultStore := results.NewStore(cfg.ResultsDir, results.WithLogger(logger), results.WithClock(now))
	resultsPath := resultStore.Path(results.Identity{
		Model:    cfg.Model,
		Prompt:   cfg.Prompt,
		Contract: plan.Contract.Name,
		Tokens:   cfg.Tokens,
	})
	prior, err := resultStore.Load(resultsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load result table", err)
	}

	summary := RunSummary{
		Contract: plan.Contract.Name,
		Results:  resultsPath,
		Planned:  len(plan.Tasks),
	}
	tasks := plan.Tasks
	if !cfg.ForceOverwrite {
		tasks = pendingTasks(plan.Tasks, prior, logger)
	}
	summary.Skipped = len(plan.Tasks) - len(tasks)

	if len(tasks) == 0 {
		logger.Info("nothing to run", "planned", summary.Planned, "skipped", summary.Skipped)
		summary.Rows = prior.Len()
		return outputRunSummary(formatter, summary)
	}

	summary.Manifest = filepath.Join(cfg.ManifestDir, fmt.Sprintf("tasks_%s.csv", stamp))
	if err := sampler.AppendManifest(summary.Manifest, tasks); err != nil {
		return WrapExitError(ExitFailure, "failed to save task manifest", err)
	}
	formatter.VerboseLog("Saved %d task(s) to %s", len(tasks), summary.Manifest)

	template, err := corpus.LoadPromptTemplate(cfg.PromptsDir, cfg.Prompt)
	if err != nil {
		return ClassifyError("failed to load prompt template", err)
	}
	prompter := &corpus.Prompter{Contract: plan.Contract, Template: template, Mode: corpus.Mode(cfg.PromptMode)}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	orc := opts.Oracle
	if orc == nil {
		orc, err = oracle.New(ctx, oracle.Config{
			Provider: oracle.Provider(cfg.Provider),
			Model:    cfg.Model,
			KeyFile:  cfg.KeyFile,
			BaseURL:  cfg.BaseURL,
		})
		if err != nil {
			return ClassifyError("failed to create oracle", err)
		}
	}

	checkpoint, err := results.OpenCheckpoint(filepath.Join(cfg.CheckpointDir, results.CheckpointName(stamp)))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open checkpoint", err)
	}
	summary.Checkpoint = checkpoint.Path()

	loopOpts := []engine.Option{
		engine.WithCheckpoint(checkpoint),
		engine.WithNow(now),
		engine.WithLogger(logger),
	}

	// Attempt ledger
	var ledger *store.Store
	if cfg.Ledger != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Ledger), 0755); err != nil {
			return WrapExitError(ExitFailure, "failed to create ledger directory", err)
		}
		ledger, err = store.Open(cfg.Ledger)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := ledger.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()

		runIDs := opts.RunIDs
		if runIDs == nil {
			runIDs = engine.UUIDv7Generator{}
		}
		summary.RunID = runIDs.Generate()
		if err := ledger.BeginRun(ctx, ir.Run{
			ID:         summary.RunID,
			Contract:   plan.Contract.Name,
			Model:      cfg.Model,
			Prompt:     cfg.Prompt,
			TokenLimit: cfg.Tokens,
			Seed:       cfg.Seed,
			StartedAt:  started.UTC().Format(time.RFC3339),
		}); err != nil {
			return WrapExitError(ExitFailure, "failed to record run", err)
		}
		loopOpts = append(loopOpts, engine.WithLedger(ledger, summary.RunID))
	}

	engineOpts := engine.Options{
		Contract:        plan.Contract.Name,
		MaxTokens:       cfg.Tokens,
		CheckWithProver: cfg.Prover.Enabled,
		AcceptOn:        engine.AcceptPolicy(cfg.Prover.AcceptOn),
	}
	if cfg.Prover.Enabled {
		engineOpts.MaxAttempts = cfg.Prover.MaxAttempts
		bridge := prover.New(prover.Config{Binary: cfg.Prover.Binary, Root: cfg.Prover.Root}, opts.ProverRunner, logger)
		loopOpts = append(loopOpts, engine.WithValidator(bridge))
	}

	logger.Info("run starting", "run_id", summary.RunID, "contract", plan.Contract.Name,
		"model", cfg.Model, "tasks", len(tasks), "prover", cfg.Prover.Enabled)
	loop := engine.New(orc, prompter, plan.Truths, engineOpts, loopOpts...)
	records, runErr := loop.Run(ctx, tasks)

	summary.Completed = len(records)
	summary.Agreeing = agreeing(records)

	// Commit whatever was accepted, even on abort; the checkpoint holds the
	// same rows.
	if len(records) > 0 {
		table, err := resultStore.Commit(resultsPath, records)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to write result table", err)
		}
		summary.Rows = table.Len()
	} else {
		summary.Rows = prior.Len()
	}

	if ledger != nil {
		status := ir.RunFinished
		if runErr != nil {
			status = ir.RunAborted
		}
		if err := ledger.FinishRun(context.WithoutCancel(ctx), summary.RunID, status, now().UTC().Format(time.RFC3339)); err != nil {
			logger.Error("failed to finish run", "run_id", summary.RunID, "error", err)
		}
	}

	if runErr != nil {
		return ClassifyError(fmt.Sprintf("run aborted after %d of %d task(s)", len(records), len(tasks)), runErr)
	}
	return outputRunSummary(formatter, summary)
}

// pendingTasks drops tasks the table already answers.
func pendingTasks(tasks []ir.Task, prior *results.Table, logger *slog.Logger) []ir.Task {
	pending := make([]ir.Task, 0, len(tasks))
	for _, t := range tasks {
		if prior.Done(t) {
			logger.Debug("skipping task with existing result", "property", t.Property, "version", t.Version)
			continue
		}
		pending = append(pending, t)
	}
	return pending
}

// agreeing counts records whose answer matches the ground truth.
func agreeing(records []ir.Record) int {
	n := 0
	for _, r := range records {
		if (r.Answer == ir.AnswerTrue && r.GroundTruth == ir.Holds) ||
			(r.Answer == ir.AnswerFalse && r.GroundTruth == ir.Violated) {
			n++
		}
	}
	return n
}

// signalContext cancels on SIGINT/SIGTERM. Uses the command's context if
// available (for testing).
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func outputRunSummary(formatter *OutputFormatter, summary RunSummary) error {
	if formatter.Format == "json" {
		return writeJSON(formatter.Writer, CLIResponse{
			Status: "ok",
			Data:   summary,
			RunID:  summary.RunID,
		})
	}

	w := formatter.Writer
	if summary.Planned > 0 && summary.Skipped == summary.Planned {
		fmt.Fprintf(w, "Nothing to run: all %d task(s) already have results.\n", summary.Planned)
	} else if summary.Planned == 0 {
		fmt.Fprintln(w, "Nothing to run: no tasks sampled.")
	} else {
		fmt.Fprintf(w, "Completed %d task(s) for %s (%d skipped)\n", summary.Completed, summary.Contract, summary.Skipped)
		fmt.Fprintf(w, "  Agreeing with ground truth: %d/%d\n", summary.Agreeing, summary.Completed)
		if summary.RunID != "" {
			fmt.Fprintf(w, "  Run ID: %s\n", summary.RunID)
		}
	}
	fmt.Fprintf(w, "  Results: %s (%d rows)\n", summary.Results, summary.Rows)
	return nil
}
