// Package hillclimb learns word-order grammars by stochastic hill climbing.
//
// A grammar assigns every dependency relation a weight in [-1, 1] that fixes
// the side and distance of dependents relative to their head (see
// [grammar.Grammar]). Each step of the search redraws a few weights, permutes
// the whole training corpus with the proposed grammar, scores the result with
// one or more objectives and keeps the proposal when the weighted mean of the
// per-objective improvement ratios is below one:
//
//	improvement = (raw / words)_proposed / (raw / words)_accepted
//
// The search minimizes. Scores are double buffered in an [Accumulator], so
// rejecting a proposal only discards the current buffer.
//
// Proposals that cannot change any linearization (the relations keep their
// sides and their order by weight) are detected up front. Such inert steps
// skip the corpus pass, reuse the accepted scores and are never accepted.
//
// A run goes through the states of [State]: an optional baseline evaluation
// of a fixed grammar, burn-in steps that emit nothing, then training epochs
// that each emit one Train record per candidate, followed by a Dev record
// when a dev corpus is supplied.
package hillclimb
