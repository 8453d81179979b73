package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAttempt = "propcheck/attempt/v1"
	DomainPrompt  = "propcheck/prompt/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AttemptID computes the ledger identity of one feedback-loop attempt.
// Re-recording the same attempt of the same run yields the same ID.
func AttemptID(runID string, task Task, iteration int) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"run_id":    runID,
		"property":  task.Property,
		"version":   task.Version,
		"iteration": iteration,
	})
	if err != nil {
		return "", fmt.Errorf("AttemptID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAttempt, canonical), nil
}

// PromptHash identifies prompt text independent of Unicode normalization form.
func PromptHash(prompt string) string {
	canonical, err := MarshalCanonical(prompt)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return hashWithDomain(DomainPrompt, canonical)
}

// MustAttemptID is like AttemptID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAttemptID(runID string, task Task, iteration int) string {
	id, err := AttemptID(runID, task, iteration)
	if err != nil {
		panic(err)
	}
	return id
}
