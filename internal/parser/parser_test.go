package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/propcheck/internal/ir"
)

func TestParseTemplate(t *testing.T) {
	text := "ANSWER: FALSE\nEXPLANATION: withdraw skips the balance check.\nCOUNTEREXAMPLE: pragma solidity ^0.8.0;\ncontract T {}\n"

	got := Parse(text)

	assert.Equal(t, ir.Verdict{
		Answer:         ir.AnswerFalse,
		Explanation:    "withdraw skips the balance check.",
		Counterexample: "pragma solidity ^0.8.0;\ncontract T {}",
	}, got)
}

func TestParseCaseInsensitiveAndMultiline(t *testing.T) {
	text := "Here is my analysis.\nanswer:  true\n\nexplanation: line one\nline two\n\ncounterexample: none\nreally none"

	got := Parse(text)

	assert.Equal(t, ir.AnswerTrue, got.Answer)
	assert.Equal(t, "line one\nline two", got.Explanation)
	assert.Equal(t, "none\nreally none", got.Counterexample)
}

func TestParseRoundTrip(t *testing.T) {
	tests := []ir.Verdict{
		{Answer: ir.AnswerFalse, Explanation: "x", Counterexample: "y"},
		{Answer: ir.AnswerUnknown, Explanation: "multi\nline", Counterexample: "contract C {\n}"},
		{Answer: ir.AnswerTrue, Explanation: "holds because require()", Counterexample: NoCounterexample},
	}
	for _, want := range tests {
		assert.Equal(t, want, Parse(Render(want)))
	}
}

func TestParseErrorKeepsText(t *testing.T) {
	tests := []string{
		"",
		"I cannot answer that.",
		"ANSWER: FALSE but no other sections",
		"EXPLANATION: before ANSWER: FALSE COUNTEREXAMPLE: x",
	}
	for _, text := range tests {
		got := Parse(text)
		assert.Equal(t, ir.AnswerParseError, got.Answer, "text %q", text)
		assert.Equal(t, text, got.Explanation)
		assert.Equal(t, NoCounterexample, got.Counterexample)
	}
}

func TestParseRecoversTrueWithoutCounterexample(t *testing.T) {
	text := "ANSWER: TRUE\nEXPLANATION: only the owner can call setGuard."

	got := Parse(text)

	assert.Equal(t, ir.AnswerTrue, got.Answer)
	assert.Equal(t, "only the owner can call setGuard.", got.Explanation)
	assert.Equal(t, NoCounterexample, got.Counterexample)
}

func TestParseDoesNotRecoverFalseWithoutCounterexample(t *testing.T) {
	got := Parse("ANSWER: FALSE\nEXPLANATION: reentrancy in withdraw.")
	assert.Equal(t, ir.AnswerParseError, got.Answer)
}

func TestParseKeepsNonStandardAnswer(t *testing.T) {
	got := Parse("ANSWER: **false**\nEXPLANATION: e\nCOUNTEREXAMPLE: c")
	assert.Equal(t, ir.Answer("**FALSE**"), got.Answer)
}
