package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/propcheck/internal/ir"
)

// marshalVerdict converts a Verdict to canonical JSON TEXT for storage.
func marshalVerdict(v ir.Verdict) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"answer":         string(v.Answer),
		"explanation":    v.Explanation,
		"counterexample": v.Counterexample,
	})
	if err != nil {
		return "", fmt.Errorf("marshal verdict: %w", err)
	}
	return string(data), nil
}

// unmarshalVerdict parses verdict JSON TEXT.
func unmarshalVerdict(data string) (ir.Verdict, error) {
	var v ir.Verdict
	if data == "" || data == "{}" {
		return v, nil
	}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return ir.Verdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}
	return v, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
