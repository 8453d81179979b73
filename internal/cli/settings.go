package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/config"
	"github.com/roach88/propcheck/internal/corpus"
	"github.com/roach88/propcheck/internal/groundtruth"
	"github.com/roach88/propcheck/internal/ir"
	"github.com/roach88/propcheck/internal/sampler"
)

// configFlags copies a changed flag's value from the flag-bound config into
// the resolved one.
var configFlags = map[string]func(dst, src *config.Config){
	"contract":        func(d, s *config.Config) { d.Contract = s.Contract },
	"contracts-dir":   func(d, s *config.Config) { d.ContractsDir = s.ContractsDir },
	"prompts-dir":     func(d, s *config.Config) { d.PromptsDir = s.PromptsDir },
	"prompt":          func(d, s *config.Config) { d.Prompt = s.Prompt },
	"prompt-mode":     func(d, s *config.Config) { d.PromptMode = s.PromptMode },
	"provider":        func(d, s *config.Config) { d.Provider = s.Provider },
	"model":           func(d, s *config.Config) { d.Model = s.Model },
	"base-url":        func(d, s *config.Config) { d.BaseURL = s.BaseURL },
	"key-file":        func(d, s *config.Config) { d.KeyFile = s.KeyFile },
	"tokens":          func(d, s *config.Config) { d.Tokens = s.Tokens },
	"seed":            func(d, s *config.Config) { d.Seed = s.Seed },
	"property":        func(d, s *config.Config) { d.Property = s.Property },
	"version":         func(d, s *config.Config) { d.Version = s.Version },
	"no-sample":       func(d, s *config.Config) { d.NoSample = s.NoSample },
	"at-least-n":      func(d, s *config.Config) { d.AtLeastN = s.AtLeastN },
	"task-manifest":   func(d, s *config.Config) { d.TaskManifest = s.TaskManifest },
	"force-overwrite": func(d, s *config.Config) { d.ForceOverwrite = s.ForceOverwrite },
	"prover":          func(d, s *config.Config) { d.Prover.Enabled = s.Prover.Enabled },
	"prover-bin":      func(d, s *config.Config) { d.Prover.Binary = s.Prover.Binary },
	"prover-root":     func(d, s *config.Config) { d.Prover.Root = s.Prover.Root },
	"accept-on":       func(d, s *config.Config) { d.Prover.AcceptOn = s.Prover.AcceptOn },
	"max-attempts":    func(d, s *config.Config) { d.Prover.MaxAttempts = s.Prover.MaxAttempts },
	"results-dir":     func(d, s *config.Config) { d.ResultsDir = s.ResultsDir },
	"checkpoint-dir":  func(d, s *config.Config) { d.CheckpointDir = s.CheckpointDir },
	"manifest-dir":    func(d, s *config.Config) { d.ManifestDir = s.ManifestDir },
	"ledger":          func(d, s *config.Config) { d.Ledger = s.Ledger },
}

// bindTaskFlags registers the flags that select the contract and its tasks.
func bindTaskFlags(cmd *cobra.Command, f *config.Config) {
	def := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.Contract, "contract", "", "contract name (matched ignoring case and punctuation)")
	flags.StringVar(&f.ContractsDir, "contracts-dir", def.ContractsDir, "directory of contract folders")
	flags.Uint64Var(&f.Seed, "seed", def.Seed, "sampling seed")
	flags.StringVar(&f.Property, "property", "", "restrict to one property")
	flags.StringVar(&f.Version, "version", "", "restrict to one version (implies --no-sample)")
	flags.BoolVar(&f.NoSample, "no-sample", false, "use every labelled version instead of a balanced sample")
	flags.IntVar(&f.AtLeastN, "at-least-n", 0, "top a balanced sample up to at least N tasks")
	flags.StringVar(&f.TaskManifest, "task-manifest", "", "CSV of property,version tasks to run")
	flags.StringVar(&f.ManifestDir, "manifest-dir", def.ManifestDir, "directory for task manifests")
}

// bindRunFlags registers the remaining flags of the run command.
func bindRunFlags(cmd *cobra.Command, f *config.Config) {
	def := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&f.PromptsDir, "prompts-dir", def.PromptsDir, "directory of prompt templates")
	flags.StringVar(&f.Prompt, "prompt", "", "prompt template file name")
	flags.StringVar(&f.PromptMode, "prompt-mode", def.PromptMode, "prompt mode (description|specification)")
	flags.StringVar(&f.Provider, "provider", def.Provider, "oracle provider (openai|gemini)")
	flags.StringVar(&f.Model, "model", def.Model, "model name")
	flags.StringVar(&f.BaseURL, "base-url", "", "OpenAI-compatible endpoint")
	flags.StringVar(&f.KeyFile, "key-file", "", "file holding the API key")
	flags.IntVar(&f.Tokens, "tokens", def.Tokens, "output token budget per query")
	flags.BoolVar(&f.ForceOverwrite, "force-overwrite", false, "re-run tasks already in the result table")
	flags.BoolVar(&f.Prover.Enabled, "prover", false, "validate counterexamples with the prover")
	flags.StringVar(&f.Prover.Binary, "prover-bin", def.Prover.Binary, "prover executable")
	flags.StringVar(&f.Prover.Root, "prover-root", def.Prover.Root, "prover workspace root")
	flags.StringVar(&f.Prover.AcceptOn, "accept-on", def.Prover.AcceptOn, "prover outcome that accepts an answer (pass|fail)")
	flags.IntVar(&f.Prover.MaxAttempts, "max-attempts", def.Prover.MaxAttempts, "queries per task when the prover is enabled")
	flags.StringVar(&f.ResultsDir, "results-dir", def.ResultsDir, "directory of result tables")
	flags.StringVar(&f.CheckpointDir, "checkpoint-dir", def.CheckpointDir, "directory of checkpoint files")
	flags.StringVar(&f.Ledger, "ledger", def.Ledger, "SQLite attempt ledger")
}

// resolveConfig layers the config file (if any) and then every flag the
// user set, normalizes the result and checks it with validate.
func resolveConfig(cmd *cobra.Command, configPath string, flagged *config.Config, validate func(config.Config) error, logger *slog.Logger) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	for name, apply := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			apply(&cfg, flagged)
		}
	}

	cfg, _, err := config.Normalize(cfg, logger)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid options", err)
	}
	if err := validate(cfg); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// taskPlan is the contract and task list a run works on.
type taskPlan struct {
	Contract *corpus.Contract
	Truths   *groundtruth.Index
	Tasks    []ir.Task
}

// planTasks discovers the contract, loads its ground truth and samples the
// task list.
func planTasks(cfg config.Config, logger *slog.Logger) (*taskPlan, error) {
	if cfg.Contract == "" {
		return nil, NewExitError(ExitCommandError, "contract is required")
	}
	contract, err := corpus.FindContract(cfg.ContractsDir, cfg.Contract)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to find contract", err)
	}
	truths, err := groundtruth.Load(contract.GroundTruthPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load ground truth", err)
	}

	properties, err := contract.Properties()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to list properties", err)
	}
	if cfg.Property != "" {
		if !slices.Contains(properties, cfg.Property) {
			return nil, WrapExitError(ExitCommandError, "unknown property",
				fmt.Errorf("property %q of %s: %w", cfg.Property, contract.Name, corpus.ErrNotFound))
		}
		properties = []string{cfg.Property}
	}

	versions, err := contract.Versions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to list versions", err)
	}
	if cfg.Version != "" {
		v := groundtruth.NormalizeVersion(cfg.Version)
		if !slices.Contains(versions, v) {
			return nil, WrapExitError(ExitCommandError, "unknown version",
				fmt.Errorf("version %q of %s: %w", cfg.Version, contract.Name, corpus.ErrNotFound))
		}
		versions = []string{v}
	}

	opts := sampler.Options{NoSample: cfg.NoSample, AtLeastN: cfg.AtLeastN}
	if cfg.TaskManifest != "" {
		manifest, err := sampler.LoadManifest(cfg.TaskManifest, logger)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load task manifest", err)
		}
		opts.Manifest = manifest
	}

	tasks := sampler.New(cfg.Seed, opts, logger).SampleAll(properties, func(string) []string { return versions }, truths)
	logger.Info("tasks planned", "contract", contract.Name, "properties", len(properties),
		"versions", len(versions), "tasks", len(tasks))
	return &taskPlan{Contract: contract, Truths: truths, Tasks: tasks}, nil
}
