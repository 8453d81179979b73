package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

const (
	testContractsDir = "../corpus/testdata/contracts"
	testPromptsDir   = "../corpus/testdata/prompts"
)

// testStart is the start time every test run is stamped with.
var testStart = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

// testDirs holds the per-test output locations of a run.
type testDirs struct {
	Results    string
	Checkpoint string
	Manifest   string
	Ledger     string
	Prover     string
}

func newTestDirs(t *testing.T) testDirs {
	t.Helper()
	root := t.TempDir()
	return testDirs{
		Results:    filepath.Join(root, "llms_results"),
		Checkpoint: filepath.Join(root, "logs_results"),
		Manifest:   filepath.Join(root, "logs_verification_tasks"),
		Ledger:     filepath.Join(root, "logs_results", "ledger.db"),
		Prover:     filepath.Join(root, "foundry"),
	}
}

// args returns the flags pointing a run at the fixture corpus and at d.
func (d testDirs) args(extra ...string) []string {
	return append([]string{
		"--contract", "payment_splitter",
		"--contracts-dir", testContractsDir,
		"--prompts-dir", testPromptsDir,
		"--prompt", "zero_shot.txt",
		"--results-dir", d.Results,
		"--checkpoint-dir", d.Checkpoint,
		"--manifest-dir", d.Manifest,
		"--ledger", d.Ledger,
		"--prover-root", d.Prover,
	}, extra...)
}

// resultsPath is the table a default run over the fixture contract writes.
func (d testDirs) resultsPath() string {
	return filepath.Join(d.Results, "results_gpt-4o_zero_shot_payment_splitter_500tok.csv")
}

// executeRun runs the run command with opts and returns stdout and the error.
func executeRun(t *testing.T, opts *RunOptions, args ...string) (string, error) {
	t.Helper()
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{Format: "text"}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testStart }
	}
	return execute(newRunCommand(opts), args...)
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// fakeProver replays prover outputs in order, repeating the last one.
type fakeProver struct {
	mu      sync.Mutex
	outputs []string
	calls   [][]string
}

func (f *fakeProver) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	i := min(len(f.calls), len(f.outputs)) - 1
	return []byte(f.outputs[i]), nil
}

func (f *fakeProver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
