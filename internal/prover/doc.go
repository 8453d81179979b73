// Package prover turns a model-written counterexample into an executable
// test artifact, runs the external prover on exactly that artifact, and
// classifies the outcome from the prover's text output.
//
// # Artifact layout
//
// Every artifact and log lives under the bridge root, namespaced by contract,
// version, property and iteration, so refinement attempts never overwrite each
// other:
//
//	<root>/<contract>/v<version>/test/<property>_<iteration>_test.t.sol
//	<root>/<contract>/v<version>/test_output_<property>_<iteration>.txt
//
// # Working directory
//
// The prover is run from <root>/<contract>/v<version>. The switch of the
// process working directory is scoped by InDir, which restores the previous
// directory on every exit path and serializes callers.
//
// # Classification
//
// Output containing FailMarker classifies as Passed=false, output containing
// PassMarker as Passed=true. Output with neither is ErrUnexpectedOutput.
package prover
