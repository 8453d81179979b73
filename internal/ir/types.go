package ir

import (
	"fmt"
	"time"
)

// Task identifies one contract-variant/property pair to be judged.
type Task struct {
	Property string `json:"property" yaml:"property"`
	Version  string `json:"version" yaml:"version"`
}

func (t Task) String() string {
	return fmt.Sprintf("(%s, %s)", t.Property, t.Version)
}

// Truth is the ground-truth label of a task.
type Truth int

const (
	// Unknown means the ground-truth table has no usable label for the task.
	Unknown Truth = iota
	// Holds means the property holds on the version.
	Holds
	// Violated means the version violates the property.
	Violated
)

func (t Truth) String() string {
	switch t {
	case Holds:
		return "True"
	case Violated:
		return "False"
	default:
		return "Unknown"
	}
}

// Known reports whether the label is usable for sampling and scoring.
func (t Truth) Known() bool {
	return t == Holds || t == Violated
}

// ParseTruth maps the result-table spelling back to a Truth.
// Accepts "True"/"False" (result tables) and "1"/"0" (ground-truth files).
func ParseTruth(s string) Truth {
	switch s {
	case "True", "true", "TRUE", "1":
		return Holds
	case "False", "false", "FALSE", "0":
		return Violated
	default:
		return Unknown
	}
}

// Answer is the verdict label extracted from model output.
type Answer string

const (
	AnswerTrue       Answer = "TRUE"
	AnswerFalse      Answer = "FALSE"
	AnswerUnknown    Answer = "UNKNOWN"
	AnswerParseError Answer = "PARSE_ERROR"
)

// Verdict is the structured form of one model response.
type Verdict struct {
	Answer         Answer `json:"answer"`
	Explanation    string `json:"explanation"`
	Counterexample string `json:"counterexample"`
}

// ProverOutcome is the classified result of one prover invocation.
//
// Passed reports whether the prover's own test run printed its pass marker.
// Whether that counts as a reproduced violation is decided by the feedback
// loop's accept policy, not here.
type ProverOutcome struct {
	Passed       bool   `json:"passed"`
	Log          string `json:"log"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	LogPath      string `json:"log_path,omitempty"`
}

// Record is one row of the result table.
//
// ContractID carries the version identifier: a contract variant is one
// version of one contract, so (ContractID, PropertyID) is the record key.
type Record struct {
	ContractID     string        `json:"contract_id"`
	PropertyID     string        `json:"property_id"`
	GroundTruth    Truth         `json:"ground_truth"`
	Answer         Answer        `json:"llm_answer"`
	Explanation    string        `json:"llm_explanation"`
	Counterexample string        `json:"llm_counterexample"`
	Elapsed        time.Duration `json:"time"`
	TokenLimit     int           `json:"tokens"`
	RawOutput      string        `json:"raw_output"`
}

// RecordKey is the uniqueness key of a result table.
type RecordKey struct {
	ContractID string
	PropertyID string
}

// Key returns the record's table key.
func (r Record) Key() RecordKey {
	return RecordKey{ContractID: r.ContractID, PropertyID: r.PropertyID}
}

// Task returns the verification task the record answers.
func (r Record) Task() Task {
	return Task{Property: r.PropertyID, Version: r.ContractID}
}
