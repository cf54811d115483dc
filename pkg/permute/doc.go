// Package permute reorders the words of dependency-annotated sentences.
//
// Every permuter takes a sentence and returns a new sentence with the same
// words and dependency arcs in a different linear order. The output always
// satisfies the linearization invariant of package tree: IDs 1..N in order,
// root head 0, heads renumbered consistently. Metadata is carried over.
//
// # Modes
//
// The available permuters form a closed set, see [Mode]. All of them except
// [ModeRandomNonProjective] are projective: they build the dependency tree,
// decide for every head which dependents go left and which go right, and
// read the rearranged tree back in order. The per-head decisions follow a
// fixed protocol:
//
//  1. order the head's dependents
//  2. choose a direction for each dependent, by its rank in that order
//  3. finish each side (shuffle, reverse, or leave as is)
//
// # Randomness
//
// Random modes draw from a *rand.Rand supplied in [Options]. Create it once
// per run from a seed and share it so that runs are reproducible.
//
// # Usage
//
//	mode, err := permute.ParseMode("optimal_projective")
//	p, err := permute.New(mode, permute.Options{})
//	out, err := p.Permute(sentence)
package permute
