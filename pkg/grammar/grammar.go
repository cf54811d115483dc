// Package grammar defines word-order grammars: one real weight per
// dependency relation deciding which side of its head a dependent goes to
// and how close to the head it is placed.
//
// A negative weight places the dependent left of its head, a zero or
// positive weight places it right. Among the dependents on one side, smaller
// absolute weights sit closer to the head. Relations missing from a grammar
// have weight 0.
package grammar

import (
	"maps"
	"math/rand/v2"
	"slices"
)

// Grammar maps dependency relations to weights in [-1, 1].
type Grammar map[string]float64

// Weight returns the weight of deprel, or 0 when the grammar has none.
// Unlike indexing a defaultdict, it never inserts.
func (g Grammar) Weight(deprel string) float64 {
	return g[deprel]
}

// Direction returns -1 when deprel is placed left of its head and +1 when it
// is placed right. Zero weights go right.
func (g Grammar) Direction(deprel string) int {
	if g.Weight(deprel) < 0 {
		return -1
	}
	return 1
}

// Clone returns a copy of g.
func (g Grammar) Clone() Grammar {
	return maps.Clone(g)
}

// Deprels returns the relations of g in sorted order.
func (g Grammar) Deprels() []string {
	return slices.Sorted(maps.Keys(g))
}

// Random draws a grammar with an independent uniform(-1, 1) weight for every
// relation, in the order given.
func Random(rng *rand.Rand, deprels []string) Grammar {
	g := make(Grammar, len(deprels))
	for _, d := range deprels {
		g[d] = Uniform(rng)
	}
	return g
}

// Uniform draws a value from uniform(-1, 1).
func Uniform(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// SameRelativeOrder reports whether a and b linearize every sentence
// identically: every relation keeps its side, and ranking the relations by
// weight gives the same sequence under both grammars. Relations present in
// only one grammar are compared against the implicit weight 0.
func SameRelativeOrder(a, b Grammar) bool {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	names := slices.Sorted(maps.Keys(keys))

	for _, k := range names {
		if a.Direction(k) != b.Direction(k) {
			return false
		}
	}
	return slices.Equal(rank(a, names), rank(b, names))
}

func rank(g Grammar, names []string) []string {
	out := slices.Clone(names)
	slices.SortStableFunc(out, func(x, y string) int {
		wx, wy := g.Weight(x), g.Weight(y)
		switch {
		case wx < wy:
			return -1
		case wx > wy:
			return 1
		}
		return 0
	})
	return out
}
