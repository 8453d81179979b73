// Package parser extracts a structured verdict from free-form model output.
//
// Parse never fails: text that does not follow the expected template becomes
// a verdict whose answer is ir.AnswerParseError.
package parser

import (
	"regexp"
	"strings"

	"github.com/roach88/propcheck/internal/ir"
)

// NoCounterexample is the counterexample placeholder used when none could
// be extracted.
const NoCounterexample = "N/A"

// sections matches the three labelled sections in order. COUNTEREXAMPLE
// captures everything that remains.
var sections = regexp.MustCompile(`(?is)ANSWER:\s*(.*?)\s*EXPLANATION:\s*(.*?)\s*COUNTEREXAMPLE:\s*(.*)`)

// trueWithoutCounterexample is what models emit when they judge the property
// to hold and drop the COUNTEREXAMPLE section entirely.
const trueWithoutCounterexample = "ANSWER: TRUE\nEXPLANATION: "

// Parse converts raw model output into a verdict.
func Parse(text string) ir.Verdict {
	if m := sections.FindStringSubmatch(text); m != nil {
		return ir.Verdict{
			Answer:         ir.Answer(strings.ToUpper(strings.TrimSpace(m[1]))),
			Explanation:    strings.TrimSpace(m[2]),
			Counterexample: strings.TrimSpace(m[3]),
		}
	}

	v := ir.Verdict{
		Answer:         ir.AnswerParseError,
		Explanation:    strings.TrimSpace(text),
		Counterexample: NoCounterexample,
	}

	// A TRUE verdict legitimately has no counterexample; a FALSE one must.
	if strings.Contains(v.Explanation, trueWithoutCounterexample) {
		v.Answer = ir.AnswerTrue
		v.Explanation = strings.ReplaceAll(v.Explanation, trueWithoutCounterexample, "")
	}
	return v
}

// Render formats a verdict in the template Parse understands.
func Render(v ir.Verdict) string {
	var b strings.Builder
	b.WriteString("ANSWER: ")
	b.WriteString(string(v.Answer))
	b.WriteString("\nEXPLANATION: ")
	b.WriteString(v.Explanation)
	b.WriteString("\nCOUNTEREXAMPLE: ")
	b.WriteString(v.Counterexample)
	return b.String()
}
