package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/config"
	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/sampler"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	flags  config.Config
	Output string // manifest file to append the sample to
}

// SampleResult is the sampled task list.
type SampleResult struct {
	Contract string    `json:"contract"`
	Tasks    []ir.Task `json:"tasks"`
	Manifest string    `json:"manifest,omitempty"`
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print the sampled task list without querying the model",
		Long: `Sample verification tasks exactly as run would, and print them.

The sample is deterministic for a given --seed. With --output the tasks are
appended to a manifest file that run accepts via --task-manifest.

Examples:
  propcheck sample --contract vault
  propcheck sample --contract vault --at-least-n 10 --output tasks.csv
  propcheck sample --contract vault --no-sample --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, cmd)
		},
	}

	bindTaskFlags(cmd, &opts.flags)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "append the sample to this manifest file")

	return cmd
}

func runSample(opts *SampleOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := resolveConfig(cmd, opts.Config, &opts.flags, config.ValidateSelection, logger)
	if err != nil {
		return err
	}
	plan, err := planTasks(cfg, logger)
	if err != nil {
		return err
	}

	result := SampleResult{Contract: plan.Contract.Name, Tasks: plan.Tasks}
	if result.Tasks == nil {
		result.Tasks = []ir.Task{}
	}
	if opts.Output != "" {
		if err := sampler.AppendManifest(opts.Output, plan.Tasks); err != nil {
			return WrapExitError(ExitFailure, "failed to save task manifest", err)
		}
		result.Manifest = opts.Output
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d task(s) for %s\n", len(result.Tasks), result.Contract)
	for _, t := range result.Tasks {
		fmt.Fprintf(w, "  %s,%s\n", t.Property, t.Version)
	}
	if result.Manifest != "" {
		fmt.Fprintf(w, "Saved to %s\n", result.Manifest)
	}
	return nil
}
