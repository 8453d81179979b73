package prover

import "strings"

// DeclarationMarker starts the first line kept from a counterexample.
const DeclarationMarker = "pragma solidity"

// Sanitize trims model preambles and postambles from a counterexample:
// lines before the first DeclarationMarker line and everything after the last
// closing brace are dropped. Text without a marker keeps its beginning; text
// without a brace keeps its end.
func Sanitize(counterexample string) string {
	lines := strings.Split(strings.ReplaceAll(counterexample, "\r\n", "\n"), "\n")
	start := 0
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), DeclarationMarker) {
			start = i
			break
		}
	}
	code := strings.Join(lines[start:], "\n")

	if end := strings.LastIndex(code, "}"); end != -1 {
		code = code[:end+1]
	}
	return code
}
