package prover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/roach88/propcheck/internal/ir"
)

// Output markers printed by the prover's test runner.
const (
	FailMarker = "[FAIL"
	PassMarker = "[PASS]"
)

// ErrUnexpectedOutput is returned when the prover output carries neither
// marker. The caller must not guess an outcome.
var ErrUnexpectedOutput = errors.New("unexpected prover output")

// Runner executes the prover process in the current working directory and
// returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run implements Runner. A non-zero exit status is not an error: failing
// tests are an expected prover result and are classified from the output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	return out, err
}

// Config locates the prover and its workspace.
type Config struct {
	// Binary is the prover executable.
	Binary string
	// Root is the directory under which per-version workspaces are created.
	Root string
	// Verbosity is passed verbatim as the first flag after "test".
	Verbosity string
}

// DefaultVerbosity makes the prover print full traces for failing tests.
const DefaultVerbosity = "-vvvv"

// Request describes one counterexample to validate.
type Request struct {
	Contract       string
	Property       string
	Version        string
	Counterexample string
	Iteration      int
}

// Bridge validates counterexamples with an external prover.
type Bridge struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New creates a bridge. A nil runner uses ExecRunner; a nil logger uses
// slog.Default().
func New(cfg Config, runner Runner, logger *slog.Logger) *Bridge {
	if cfg.Verbosity == "" {
		cfg.Verbosity = DefaultVerbosity
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{cfg: cfg, runner: runner, logger: logger}
}

// WorkspaceDir is the directory the prover runs in for a contract version.
func (b *Bridge) WorkspaceDir(contract, version string) string {
	return filepath.Join(b.cfg.Root, contract, "v"+version)
}

// ArtifactName is the artifact file name, relative to the workspace's test dir.
func ArtifactName(property string, iteration int) string {
	return fmt.Sprintf("%s_%d_test.t.sol", property, iteration)
}

// LogName is the captured output file name, relative to the workspace.
func LogName(property string, iteration int) string {
	return fmt.Sprintf("test_output_%s_%d.txt", property, iteration)
}

// Validate materializes req as an artifact, runs the prover on it and
// classifies the result.
func (b *Bridge) Validate(ctx context.Context, req Request) (ir.ProverOutcome, error) {
	root, err := filepath.Abs(b.cfg.Root)
	if err != nil {
		return ir.ProverOutcome{}, fmt.Errorf("resolve prover root: %w", err)
	}
	workspace := filepath.Join(root, req.Contract, "v"+req.Version)
	testDir := filepath.Join(workspace, "test")
	if err := os.MkdirAll(testDir, 0755); err != nil {
		return ir.ProverOutcome{}, fmt.Errorf("create prover workspace: %w", err)
	}

	name := ArtifactName(req.Property, req.Iteration)
	artifact := filepath.Join(testDir, name)
	if err := os.WriteFile(artifact, []byte(Sanitize(req.Counterexample)), 0644); err != nil {
		return ir.ProverOutcome{}, fmt.Errorf("write artifact: %w", err)
	}

	logPath := filepath.Join(workspace, LogName(req.Property, req.Iteration))
	args := []string{"test", b.cfg.Verbosity, "--match-path", filepath.ToSlash(filepath.Join("test", name))}

	var out []byte
	err = InDir(workspace, func() error {
		b.logger.Debug("running prover", "dir", workspace, "binary", b.cfg.Binary, "args", args)
		var runErr error
		out, runErr = b.runner.Run(ctx, b.cfg.Binary, args...)
		if runErr != nil {
			return fmt.Errorf("run prover: %w", runErr)
		}
		return os.WriteFile(LogName(req.Property, req.Iteration), out, 0644)
	})
	if err != nil {
		return ir.ProverOutcome{}, err
	}

	passed, err := Classify(string(out))
	if err != nil {
		return ir.ProverOutcome{}, fmt.Errorf("%s iteration %d: %w", ir.Task{Property: req.Property, Version: req.Version}, req.Iteration, err)
	}

	b.logger.Info("prover finished", "property", req.Property, "version", req.Version,
		"iteration", req.Iteration, "passed", passed)
	return ir.ProverOutcome{
		Passed:       passed,
		Log:          string(out),
		ArtifactPath: artifact,
		LogPath:      logPath,
	}, nil
}

// Classify reads the prover's verdict from its output.
func Classify(output string) (passed bool, err error) {
	switch {
	case strings.Contains(output, FailMarker):
		return false, nil
	case strings.Contains(output, PassMarker):
		return true, nil
	default:
		return false, ErrUnexpectedOutput
	}
}
