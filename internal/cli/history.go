package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/store"
)

// HistoryResult holds either the run list or one run with its attempts.
type HistoryResult struct {
	Runs     []ir.Run     `json:"runs,omitempty"`
	Run      *ir.Run      `json:"run,omitempty"`
	Attempts []ir.Attempt `json:"attempts,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <ledger.db> [run-id]",
		Short: "Show runs and attempts recorded in the ledger",
		Long: `List the runs recorded in an attempt ledger, or show every attempt of
one run in order: iteration, parsed answer, prover outcome and whether the
attempt was accepted.

Examples:
  propcheck history logs_results/ledger.db
  propcheck history logs_results/ledger.db 01932c4e-7d3f-7b6a-9c1e-2f4a5b6c7d8e
  propcheck history logs_results/ledger.db --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 2 {
				runID = args[1]
			}
			return runHistory(rootOpts, args[0], runID, cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, dbPath, runID string, cmd *cobra.Command) error {
	ctx := context.Background()

	// store.Open would create a missing database
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("ledger not found: %s", dbPath))
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer st.Close()

	var result HistoryResult
	if runID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list runs", err)
		}
		result.Runs = runs
	} else {
		run, err := st.ReadRun(ctx, runID)
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "unknown run", err)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read run", err)
		}
		attempts, err := st.ReadAttempts(ctx, runID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read attempts", err)
		}
		result.Run = &run
		result.Attempts = attempts
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: runID})
	}
	if result.Run != nil {
		outputAttemptsText(cmd.OutOrStdout(), *result.Run, result.Attempts, opts.Verbose)
		return nil
	}
	outputRunsText(cmd.OutOrStdout(), result.Runs)
	return nil
}

func outputRunsText(w io.Writer, runs []ir.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintln(w, "=== Runs ===")
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  %s/%s  %s  tasks=%d\n",
			truncateID(r.ID), r.StartedAt, r.Contract, r.Model, r.Status, r.Tasks)
	}
}

func outputAttemptsText(w io.Writer, run ir.Run, attempts []ir.Attempt, verbose bool) {
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Contract: %s  Model: %s  Prompt: %s  Tokens: %d  Seed: %d\n",
		run.Contract, run.Model, run.Prompt, run.TokenLimit, run.Seed)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Attempts ===")
	if len(attempts) == 0 {
		fmt.Fprintln(w, "  (no attempts)")
		return
	}
	for _, a := range attempts {
		fmt.Fprintf(w, "  [%d] %s #%d %s %s%s\n",
			a.Seq, a.Task, a.Iteration, a.Verdict.Answer, proverStatus(a), acceptedMark(a.Accepted))
		if verbose {
			fmt.Fprintf(w, "       Prompt: %s  Elapsed: %dms\n", truncateID(a.PromptHash), a.ElapsedMS)
			if a.ArtifactPath != "" {
				fmt.Fprintf(w, "       Artifact: %s\n", a.ArtifactPath)
			}
			fmt.Fprintf(w, "       Explanation: %s\n", oneLine(a.Verdict.Explanation))
		}
	}
}

func proverStatus(a ir.Attempt) string {
	switch {
	case !a.ProverRan:
		return "prover=skipped"
	case a.ProverPassed:
		return "prover=pass"
	default:
		return "prover=fail"
	}
}

func acceptedMark(accepted bool) string {
	if accepted {
		return " accepted"
	}
	return ""
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
