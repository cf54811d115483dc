package permute

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/wordorder/pkg/conllu"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/tree"
)

const (
	left  = -1
	right = 1
)

// strategy arranges the dependents of one head.
type strategy interface {
	// order returns the dependents of head in the order directions are
	// assigned in. It must not modify head.Children.
	order(head *tree.Tree) []*tree.Tree
	// direction returns -1 (left) or +1 (right) for the dependent at rank.
	direction(head *tree.Tree, rank int, child *tree.Tree) int
	// finish rearranges each side in place once all dependents are placed.
	finish(left, right []*tree.Node)
}

// projective applies a strategy recursively over the dependency tree.
type projective struct {
	s strategy
}

func (p *projective) Permute(s conllu.Sentence) (conllu.Sentence, error) {
	root, err := tree.Build(s)
	if err != nil {
		return conllu.Sentence{}, err
	}
	return tree.Linearized(s, p.arrange(root))
}

func (p *projective) arrange(t *tree.Tree) *tree.Node {
	n := &tree.Node{Center: t.Token}
	for rank, child := range p.s.order(t) {
		switch p.s.direction(t, rank, child) {
		case left:
			n.Left = append(n.Left, p.arrange(child))
		case right:
			n.Right = append(n.Right, p.arrange(child))
		default:
			panic("directionality function must return one of {-1, +1}")
		}
	}
	p.s.finish(n.Left, n.Right)
	return n
}

func originalSide(head, child *tree.Tree) int {
	if child.Token.ID < head.Token.ID {
		return left
	}
	return right
}

func shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func shuffleBoth(rng *rand.Rand, l, r []*tree.Node) {
	shuffle(rng, l)
	shuffle(rng, r)
}

// randomSides flips an independent coin for every dependent.
type randomSides struct{ rng *rand.Rand }

func (s randomSides) order(head *tree.Tree) []*tree.Tree { return head.Children }

func (s randomSides) direction(_ *tree.Tree, _ int, _ *tree.Tree) int {
	if grammar.Uniform(s.rng) < 0 {
		return left
	}
	return right
}

func (s randomSides) finish(l, r []*tree.Node) { shuffleBoth(s.rng, l, r) }

// fixedRandomSides draws one random value per relation and keeps it for
// every later sentence. Dependents keep their relative sentence order.
type fixedRandomSides struct {
	rng   *rand.Rand
	sides map[string]float64
}

func (s *fixedRandomSides) order(head *tree.Tree) []*tree.Tree {
	return slices.SortedStableFunc(slices.Values(head.Children), func(a, b *tree.Tree) int {
		return cmp.Compare(a.Token.ID, b.Token.ID)
	})
}

func (s *fixedRandomSides) direction(_ *tree.Tree, _ int, child *tree.Tree) int {
	v, ok := s.sides[child.Token.Deprel]
	if !ok {
		v = grammar.Uniform(s.rng)
		s.sides[child.Token.Deprel] = v
	}
	if v < 0 {
		return left
	}
	return right
}

func (s *fixedRandomSides) finish(_, _ []*tree.Node) {}

// sameValency keeps the number of dependents on each side of a head.
type sameValency struct{ rng *rand.Rand }

func (s sameValency) order(head *tree.Tree) []*tree.Tree {
	out := slices.Clone(head.Children)
	shuffle(s.rng, out)
	return out
}

func (s sameValency) direction(head *tree.Tree, rank int, _ *tree.Tree) int {
	nLeft := 0
	for _, c := range head.Children {
		if c.Token.ID < head.Token.ID {
			nLeft++
		}
	}
	if rank < nLeft {
		return left
	}
	return right
}

func (s sameValency) finish(l, r []*tree.Node) { shuffleBoth(s.rng, l, r) }

// sameSide keeps every dependent on its original side. Without a random
// source it also keeps the original order, which reproduces the input.
type sameSide struct{ rng *rand.Rand }

func (s sameSide) order(head *tree.Tree) []*tree.Tree { return head.Children }

func (s sameSide) direction(head *tree.Tree, _ int, child *tree.Tree) int {
	return originalSide(head, child)
}

func (s sameSide) finish(l, r []*tree.Node) {
	if s.rng != nil {
		shuffleBoth(s.rng, l, r)
	}
}

// optimalKey scores a dependent for the optimal modes.
type optimalKey func(head, child *tree.Tree) int

func byDistance(head, child *tree.Tree) int {
	d := child.Token.ID - head.Token.ID
	if d < 0 {
		return -d
	}
	return d
}

func byWeight(_, child *tree.Tree) int {
	return tree.Weight(child)
}

// optimal sorts dependents by ascending key and alternates them left and
// right so that the lightest dependents end up next to the head.
type optimal struct {
	key  optimalKey
	ties TiePolicy
	rng  *rand.Rand
}

func (s optimal) order(head *tree.Tree) []*tree.Tree {
	out := slices.Clone(head.Children)
	if s.ties == TieShuffle {
		shuffle(s.rng, out)
	}
	slices.SortStableFunc(out, func(a, b *tree.Tree) int {
		return cmp.Compare(s.key(head, a), s.key(head, b))
	})
	return out
}

func (s optimal) direction(_ *tree.Tree, rank int, _ *tree.Tree) int {
	if rank%2 == 0 {
		return left
	}
	return right
}

func (s optimal) finish(l, _ []*tree.Node) { slices.Reverse(l) }

// fixedOrder places dependents by the sign of their relation's weight and
// orders each side by absolute weight, smallest next to the head.
type fixedOrder struct{ g grammar.Grammar }

func (s fixedOrder) order(head *tree.Tree) []*tree.Tree {
	out := slices.Clone(head.Children)
	slices.SortStableFunc(out, func(a, b *tree.Tree) int {
		return cmp.Compare(abs(s.g.Weight(a.Token.Deprel)), abs(s.g.Weight(b.Token.Deprel)))
	})
	return out
}

func (s fixedOrder) direction(_ *tree.Tree, _ int, child *tree.Tree) int {
	return s.g.Direction(child.Token.Deprel)
}

func (s fixedOrder) finish(l, _ []*tree.Node) { slices.Reverse(l) }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
