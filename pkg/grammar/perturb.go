package grammar

import (
	"math"
	"math/rand/v2"

	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Perturbation redraws a number of weights of a grammar.
//
// The number of redrawn weights is Count when it is positive, otherwise a
// Poisson(Lambda) draw clamped to [1, len(Deprels)]. Relations are chosen
// without replacement, with probability proportional to Weights when set
// and uniformly otherwise. Weights, when set, must have one entry per
// relation in Deprels.
type Perturbation struct {
	Deprels []string
	Weights []float64
	Lambda  float64
	Count   int
}

// Validate checks that the perturbation can be applied.
func (p Perturbation) Validate() error {
	if len(p.Deprels) == 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "perturbation needs at least one dependency relation")
	}
	if p.Weights != nil && len(p.Weights) != len(p.Deprels) {
		return errs.New(errs.ErrCodeInvalidConfig, "got %d sampling weights for %d relations", len(p.Weights), len(p.Deprels))
	}
	if p.Count > len(p.Deprels) {
		return errs.New(errs.ErrCodeInvalidConfig, "cannot change %d of %d relations", p.Count, len(p.Deprels))
	}
	if p.Count <= 0 && p.Lambda <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "poisson lambda must be positive, got %v", p.Lambda)
	}
	return nil
}

// Apply returns a copy of g with some weights redrawn from uniform(-1, 1),
// and the relations that were changed.
func (p Perturbation) Apply(rng *rand.Rand, g Grammar) (Grammar, []string) {
	n := p.Count
	if n <= 0 {
		n = min(max(Poisson(rng, p.Lambda), 1), len(p.Deprels))
	}

	changed := sampleWithoutReplacement(rng, p.Deprels, p.Weights, n)
	out := g.Clone()
	if out == nil {
		out = Grammar{}
	}
	for _, d := range changed {
		out[d] = Uniform(rng)
	}
	return out, changed
}

// Poisson draws from a Poisson distribution with mean lambda using Knuth's
// multiplication method. It is exact for the small means used here.
func Poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k := 0
	p := rng.Float64()
	for p > limit {
		k++
		p *= rng.Float64()
	}
	return k
}

// sampleWithoutReplacement draws n distinct items. Each draw picks among the
// remaining items proportionally to their weight.
func sampleWithoutReplacement(rng *rand.Rand, items []string, weights []float64, n int) []string {
	pool := make([]int, len(items))
	for i := range pool {
		pool[i] = i
	}
	weightOf := func(i int) float64 {
		if weights == nil {
			return 1
		}
		return weights[i]
	}

	out := make([]string, 0, n)
	for len(out) < n && len(pool) > 0 {
		total := 0.0
		for _, i := range pool {
			total += weightOf(i)
		}
		r := rng.Float64() * total
		pick := len(pool) - 1
		for j, i := range pool {
			r -= weightOf(i)
			if r < 0 {
				pick = j
				break
			}
		}
		out = append(out, items[pool[pick]])
		pool = append(pool[:pick], pool[pick+1:]...)
	}
	return out
}

// FrequencyWeights converts relation counts into Laplace-smoothed sampling
// probabilities: every relation starts at a count of one before counts is
// added, and the result sums to one.
func FrequencyWeights(deprels []string, counts map[string]int) []float64 {
	weights := make([]float64, len(deprels))
	total := 0.0
	for i, d := range deprels {
		weights[i] = float64(1 + counts[d])
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
