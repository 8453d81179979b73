package engine

import "strings"

// refineTemplate frames a failed attempt for the next query. The three
// placeholders are replaced verbatim.
const refineTemplate = `Earlier you were given this prompt:
BEGIN PREVIOUS PROMPT
{prompt}
END PREVIOUS PROMPT
and you answered with:
BEGIN PREVIOUS OUTPUT
{output}
END PREVIOUS OUTPUT
Running your counterexample with Foundry produced this output:
BEGIN FORGE OUTPUT
{forge_output}
END FORGE OUTPUT
The counterexample does not demonstrate the property violation yet. Fix it using the Foundry output above. Every constraint of the previous prompt still applies. Answer in the same format as before, with ANSWER:, EXPLANATION: and COUNTEREXAMPLE: sections.`

// Refine builds the prompt for the next attempt from the previous prompt,
// the model's raw output for it and the prover log.
func Refine(prompt, output, proverLog string) string {
	r := strings.NewReplacer(
		"{prompt}", prompt,
		"{output}", output,
		"{forge_output}", proverLog,
	)
	return r.Replace(refineTemplate)
}
