// Package config loads, normalizes and validates run configuration.
//
// Values come from three layers, later ones winning: Default, an optional
// YAML file, then command-line flags applied by the caller. Normalize
// resolves flag interplay and Validate checks the result against an
// embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrConflictingModes is returned when options that select incompatible
// task sources are combined.
var ErrConflictingModes = errors.New("conflicting modes")

// Prover configures counterexample validation.
type Prover struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Binary      string `yaml:"binary" json:"binary"`
	Root        string `yaml:"root" json:"root"`
	AcceptOn    string `yaml:"accept_on" json:"accept_on"`
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts"`
}

// Config is one experiment run.
type Config struct {
	Contract     string `yaml:"contract" json:"contract"`
	ContractsDir string `yaml:"contracts_dir" json:"contracts_dir"`
	PromptsDir   string `yaml:"prompts_dir" json:"prompts_dir"`
	Prompt       string `yaml:"prompt" json:"prompt"`
	PromptMode   string `yaml:"prompt_mode" json:"prompt_mode"`

	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	KeyFile  string `yaml:"key_file" json:"key_file"`
	Tokens   int    `yaml:"tokens" json:"tokens"`

	Seed           uint64 `yaml:"seed" json:"seed"`
	Property       string `yaml:"property" json:"property"`
	Version        string `yaml:"version" json:"version"`
	NoSample       bool   `yaml:"no_sample" json:"no_sample"`
	AtLeastN       int    `yaml:"at_least_n" json:"at_least_n"`
	TaskManifest   string `yaml:"task_manifest" json:"task_manifest"`
	ForceOverwrite bool   `yaml:"force_overwrite" json:"force_overwrite"`

	Prover Prover `yaml:"prover" json:"prover"`

	ResultsDir    string `yaml:"results_dir" json:"results_dir"`
	CheckpointDir string `yaml:"checkpoint_dir" json:"checkpoint_dir"`
	ManifestDir   string `yaml:"manifest_dir" json:"manifest_dir"`
	Ledger        string `yaml:"ledger" json:"ledger"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		ContractsDir:  "contracts",
		PromptsDir:    "prompt_templates",
		PromptMode:    "description",
		Provider:      "openai",
		Model:         "gpt-4o",
		Tokens:        500,
		Seed:          42,
		ResultsDir:    "llms_results",
		CheckpointDir: "logs_results",
		ManifestDir:   "logs_verification_tasks",
		Ledger:        "logs_results/ledger.db",
		Prover: Prover{
			Binary:      "forge",
			Root:        "foundry",
			AcceptOn:    "pass",
			MaxAttempts: 3,
		},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize resolves interplay between task-selection options, logging a
// warning for each adjustment. The adjustments are also returned.
func Normalize(cfg Config, logger *slog.Logger) (Config, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Version != "" && cfg.TaskManifest != "" {
		return cfg, nil, fmt.Errorf("version %q and task manifest %q: %w", cfg.Version, cfg.TaskManifest, ErrConflictingModes)
	}

	var warnings []string
	warn := func(msg string) {
		warnings = append(warnings, msg)
		logger.Warn(msg)
	}

	if cfg.TaskManifest != "" && cfg.NoSample {
		warn("no_sample has no effect when a task manifest is used")
	}
	if cfg.TaskManifest != "" && cfg.AtLeastN > 0 {
		cfg.AtLeastN = 0
		warn("at_least_n is disabled when a task manifest is used")
	}
	if cfg.NoSample && cfg.AtLeastN > 0 {
		cfg.AtLeastN = 0
		warn("at_least_n has no effect when no_sample is enabled")
	}
	if cfg.Version != "" && !cfg.NoSample {
		cfg.NoSample = true
		warn("no_sample is enabled because a version is specified")
	}
	return cfg, warnings, nil
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	return validate(cfg, "#Config")
}

// ValidateSelection checks only what task sampling needs, so commands that
// never query the oracle can run without a prompt.
func ValidateSelection(cfg Config) error {
	return validate(cfg, "#Selection")
}

func validate(cfg Config, definition string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath(definition)).Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}
	return nil
}

// ValidationError reports every schema violation found in a configuration.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + e.Details
}
