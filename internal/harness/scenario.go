package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/propcheck/internal/ir"
)

// Scenario defines one end-to-end run of the feedback loop.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Contract names the contract under test.
	Contract string `yaml:"contract"`

	// RunID is the ledger run id. Defaults to the fixed test run id.
	RunID string `yaml:"run_id,omitempty"`

	// Prompt is the initial prompt template; {property} and {version} are
	// substituted per task.
	Prompt string `yaml:"prompt"`

	// Tokens is the oracle output budget.
	Tokens int `yaml:"tokens,omitempty"`

	// GroundTruth labels the version universe.
	GroundTruth []Label `yaml:"ground_truth"`

	// Properties restricts and orders the properties to sample. Defaults to
	// the properties of GroundTruth in order of first appearance.
	Properties []string `yaml:"properties,omitempty"`

	// Versions orders the version universe. Defaults to the versions of
	// GroundTruth in order of first appearance.
	Versions []string `yaml:"versions,omitempty"`

	Sampling Sampling `yaml:"sampling,omitempty"`

	Oracle OracleScript `yaml:"oracle"`

	// Prover enables validation when present.
	Prover *ProverScript `yaml:"prover,omitempty"`

	// Prior rows form the result table that exists before the run.
	Prior []PriorRow `yaml:"prior,omitempty"`

	// ForceOverwrite re-runs tasks already present in Prior.
	ForceOverwrite bool `yaml:"force_overwrite,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Label is one ground-truth row.
type Label struct {
	Property string `yaml:"property"`
	Version  string `yaml:"version"`
	Truth    string `yaml:"truth"`
}

// Sampling mirrors the sampler options.
type Sampling struct {
	NoSample bool      `yaml:"no_sample,omitempty"`
	AtLeastN int       `yaml:"at_least_n,omitempty"`
	Seed     *uint64   `yaml:"seed,omitempty"`
	Manifest []ir.Task `yaml:"manifest,omitempty"`
}

// OracleScript configures the scripted oracle.
type OracleScript struct {
	Responses []string `yaml:"responses"`
	Repeat    bool     `yaml:"repeat,omitempty"`

	// FailOn makes call number FailOn (1-based) fail with Fail.
	FailOn int    `yaml:"fail_on,omitempty"`
	Fail   string `yaml:"fail,omitempty"`
}

// ProverScript configures the scripted prover process.
type ProverScript struct {
	AcceptOn    string `yaml:"accept_on,omitempty"`
	MaxAttempts int    `yaml:"max_attempts,omitempty"`

	// Outputs are the prover's stdout per run, in order. The last output
	// repeats once the list is used up.
	Outputs []string `yaml:"outputs"`
}

// PriorRow is a result row present before the run.
type PriorRow struct {
	Property    string `yaml:"property"`
	Version     string `yaml:"version"`
	GroundTruth string `yaml:"ground_truth"`
	Answer      string `yaml:"answer"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type selects the check: oracle_calls, attempts, record, table_rows,
	// tasks or error.
	Type string `yaml:"type"`

	Property string `yaml:"property,omitempty"`
	Version  string `yaml:"version,omitempty"`

	// Count is used by oracle_calls, attempts and table_rows.
	Count int `yaml:"count,omitempty"`

	// Answer is the expected llm_answer (record).
	Answer string `yaml:"answer,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`

	// Tasks is the expected task list (tasks).
	Tasks []ir.Task `yaml:"tasks,omitempty"`
}

// Assertion type constants.
const (
	AssertOracleCalls = "oracle_calls"
	AssertAttempts    = "attempts"
	AssertRecord      = "record"
	AssertTableRows   = "table_rows"
	AssertTasks       = "tasks"
	AssertError       = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Contract == "" {
		return fmt.Errorf("contract is required")
	}
	if s.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if s.Tokens < 0 {
		return fmt.Errorf("tokens must be non-negative")
	}
	if len(s.GroundTruth) == 0 {
		return fmt.Errorf("ground_truth list is required and must be non-empty")
	}
	for i, l := range s.GroundTruth {
		if l.Property == "" || l.Version == "" {
			return fmt.Errorf("ground_truth[%d]: property and version are required", i)
		}
	}
	if s.Sampling.AtLeastN < 0 {
		return fmt.Errorf("sampling.at_least_n must be non-negative")
	}
	if s.Oracle.FailOn < 0 {
		return fmt.Errorf("oracle.fail_on must be non-negative")
	}
	if s.Oracle.FailOn > 0 && s.Oracle.Fail == "" {
		return fmt.Errorf("oracle.fail is required with fail_on")
	}
	if p := s.Prover; p != nil {
		if len(p.Outputs) == 0 {
			return fmt.Errorf("prover.outputs is required and must be non-empty")
		}
		switch p.AcceptOn {
		case "", "pass", "fail":
		default:
			return fmt.Errorf("prover.accept_on must be pass or fail, got %q", p.AcceptOn)
		}
		if p.MaxAttempts < 0 {
			return fmt.Errorf("prover.max_attempts must be non-negative")
		}
	}
	for i, row := range s.Prior {
		if row.Property == "" || row.Version == "" {
			return fmt.Errorf("prior[%d]: property and version are required", i)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOracleCalls, AssertTableRows:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertAttempts:
		if a.Property == "" || a.Version == "" {
			return fmt.Errorf("assertions[%d]: property and version are required for attempts", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for attempts", index)
		}
	case AssertRecord:
		if a.Property == "" || a.Version == "" {
			return fmt.Errorf("assertions[%d]: property and version are required for record", index)
		}
		if a.Answer == "" {
			return fmt.Errorf("assertions[%d]: answer is required for record", index)
		}
	case AssertTasks:
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
