package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/propcheck/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Warnings []string       `json:"warnings,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Config   *config.Config `json:"config,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a run configuration",
		Long: `Load a YAML run configuration, apply the option interplay rules and check
the result against the configuration schema, without touching the corpus
or the model.

Adjustments (for example at_least_n being ignored with no_sample) are
reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	formatter.VerboseLog("Loaded %s", path)

	cfg, warnings, err := config.Normalize(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return outputValidationErrors(formatter, warnings, []string{err.Error()})
	}
	if err := config.Validate(cfg); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return outputValidationErrors(formatter, warnings, []string{verr.Details})
		}
		return outputValidationErrors(formatter, warnings, []string{err.Error()})
	}

	return outputValidateSuccess(formatter, cfg, warnings)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, cfg config.Config, warnings []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Warnings: warnings, Config: &cfg})
	}

	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", w)
	}
	fmt.Fprintln(formatter.Writer, "✓ Config valid")
	return nil
}

// outputValidationErrors outputs validation failures.
func outputValidationErrors(formatter *OutputFormatter, warnings, errs []string) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:    false,
				Warnings: warnings,
				Errors:   errs,
			},
			Error: &CLIError{
				Code:    ErrCodeConfig,
				Message: errs[0],
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", w)
	}
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
