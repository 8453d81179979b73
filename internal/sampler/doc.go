// Package sampler selects the verification tasks of a run.
//
// The default policy is class-balanced: for each property, versions are split
// by ground truth into the ones where the property holds and the ones where it
// is violated, and k = min(|holds|, |violated|) versions are drawn from each
// class without replacement. When either class is empty, k is zero and the
// balanced sample is empty, even if a floor is requested: there is no valid
// balanced comparison for that property.
//
// Randomness comes from a seed passed in by the caller. Each property draws
// from its own generator derived from (seed, property), so the sample of one
// property never depends on which other properties were sampled before it.
//
// Two alternative modes bypass balancing:
//   - NoSample returns every labelled version.
//   - Manifest restricts the run to an explicit task list.
package sampler
