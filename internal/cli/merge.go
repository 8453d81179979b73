package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/results"
)

// MergeResult reports a merge of one result table into another.
type MergeResult struct {
	Into     string `json:"into"`
	From     string `json:"from"`
	Merged   int    `json:"merged"`
	Added    int    `json:"added"`
	Replaced int    `json:"replaced"`
	Rows     int    `json:"rows"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <into.csv> <from.csv>",
		Short: "Merge one result table into another",
		Long: `Merge the rows of <from.csv> into <into.csv>.

Rows sharing (contract_id, property_id) are replaced in place, the rest are
appended. The previous <into.csv> is moved to a timestamped backup first.
A checkpoint file from an interrupted run can be merged this way.

Examples:
  propcheck merge llms_results/results_gpt-4o_zero_shot_vault_500tok.csv logs_results/results_temp_2026-03-01_10-30-00.csv`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runMerge(opts *RootOptions, into, from string, cmd *cobra.Command) error {
	logger := newLogger(opts, cmd.ErrOrStderr())

	if _, err := os.Stat(from); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("result table not found: %s", from))
	}

	rs := results.NewStore(filepath.Dir(into), results.WithLogger(logger))
	source, err := rs.Load(from)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read source table", err)
	}
	target, err := rs.Load(into)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read target table", err)
	}

	records := source.Records()
	added, replaced := target.Merge(records)
	if err := rs.Write(into, target.Records()); err != nil {
		return WrapExitError(ExitFailure, "failed to write merged table", err)
	}

	result := MergeResult{
		Into:     into,
		From:     from,
		Merged:   len(records),
		Added:    added,
		Replaced: replaced,
		Rows:     target.Len(),
	}
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d row(s) into %s: %d added, %d replaced, %d total\n",
		result.Merged, result.Into, result.Added, result.Replaced, result.Rows)
	return nil
}
