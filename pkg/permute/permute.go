package permute

import (
	"math/rand/v2"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
)

// Permuter reorders a sentence. Implementations only consider word tokens;
// multiword spans and empty nodes are not part of the output.
type Permuter interface {
	Permute(s conllu.Sentence) (conllu.Sentence, error)
}

// Mode selects a permutation strategy.
type Mode int

const (
	// ModeRandomNonProjective shuffles the words without regard to the tree.
	ModeRandomNonProjective Mode = iota
	// ModeRandomProjective flips a coin for the side of every dependent and
	// shuffles each side.
	ModeRandomProjective
	// ModeRandomProjectiveFixed places dependents by a random side drawn
	// once per relation and kept for the permuter's lifetime.
	ModeRandomProjectiveFixed
	// ModeRandomSameValency keeps the number of left and right dependents
	// of every head but chooses which dependents go where at random.
	ModeRandomSameValency
	// ModeRandomSameSide keeps every dependent on its original side and
	// shuffles each side.
	ModeRandomSameSide
	// ModeOptimalProjective alternates dependents left and right by
	// increasing original distance from the head.
	ModeOptimalProjective
	// ModeOptimalProjectiveWeight alternates dependents left and right by
	// increasing subtree weight.
	ModeOptimalProjectiveWeight
	// ModeOriginalOrder rebuilds the sentence in its original order.
	ModeOriginalOrder
	// ModeFixedOrder linearizes by the weights of a grammar.
	ModeFixedOrder
)

var modeNames = []string{
	ModeRandomNonProjective:     "random_nonprojective",
	ModeRandomProjective:        "random_projective",
	ModeRandomProjectiveFixed:   "random_projective_fixed",
	ModeRandomSameValency:       "random_same_valency",
	ModeRandomSameSide:          "random_same_side",
	ModeOptimalProjective:       "optimal_projective",
	ModeOptimalProjectiveWeight: "optimal_projective_weight",
	ModeOriginalOrder:           "original_order",
	ModeFixedOrder:              "fixed_order",
}

// String returns the mode's command-line name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Random reports whether the mode draws random numbers.
func (m Mode) Random() bool {
	switch m {
	case ModeRandomNonProjective, ModeRandomProjective, ModeRandomProjectiveFixed,
		ModeRandomSameValency, ModeRandomSameSide:
		return true
	}
	return false
}

// Modes returns the names of all modes.
func Modes() []string {
	return append([]string(nil), modeNames...)
}

// ParseMode converts a mode name into a [Mode]. Unknown names produce an
// INVALID_MODE error listing the valid names.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return 0, errs.Choice(errs.ErrCodeInvalidMode, "permutation mode", name, modeNames)
}

// TiePolicy decides how the optimal modes order dependents with equal keys.
type TiePolicy int

const (
	// TieStable keeps tied dependents in sentence order.
	TieStable TiePolicy = iota
	// TieShuffle orders tied dependents at random.
	TieShuffle
)

// Options configures [New].
type Options struct {
	// Rand is the random source for random modes and TieShuffle.
	Rand *rand.Rand

	// Grammar is required by ModeFixedOrder.
	Grammar grammar.Grammar

	// Ties applies to the optimal modes.
	Ties TiePolicy
}

// New creates the permuter for mode.
func New(mode Mode, opts Options) (Permuter, error) {
	if (mode.Random() || (opts.Ties == TieShuffle && isOptimal(mode))) && opts.Rand == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "mode %s needs a random source", mode)
	}

	switch mode {
	case ModeRandomNonProjective:
		return &nonProjective{rng: opts.Rand}, nil
	case ModeRandomProjective:
		return &projective{s: randomSides{rng: opts.Rand}}, nil
	case ModeRandomProjectiveFixed:
		return &projective{s: &fixedRandomSides{rng: opts.Rand, sides: map[string]float64{}}}, nil
	case ModeRandomSameValency:
		return &projective{s: sameValency{rng: opts.Rand}}, nil
	case ModeRandomSameSide:
		return &projective{s: sameSide{rng: opts.Rand}}, nil
	case ModeOptimalProjective:
		return &projective{s: optimal{key: byDistance, ties: opts.Ties, rng: opts.Rand}}, nil
	case ModeOptimalProjectiveWeight:
		return &projective{s: optimal{key: byWeight, ties: opts.Ties, rng: opts.Rand}}, nil
	case ModeOriginalOrder:
		return &projective{s: sameSide{}}, nil
	case ModeFixedOrder:
		return NewFixedOrder(opts.Grammar)
	}
	return nil, errs.New(errs.ErrCodeInvalidMode, "unknown permutation mode %d", int(mode))
}

// NewFixedOrder creates a permuter that linearizes by the weights of g.
func NewFixedOrder(g grammar.Grammar) (Permuter, error) {
	if g == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "fixed_order needs a grammar")
	}
	return &projective{s: fixedOrder{g: g}}, nil
}

func isOptimal(m Mode) bool {
	return m == ModeOptimalProjective || m == ModeOptimalProjectiveWeight
}

// Prefixed prepends Prefix to the sent_id of every sentence it permutes.
type Prefixed struct {
	Permuter
	Prefix string
}

// Permute permutes s with the wrapped permuter and prefixes its sent_id.
func (p Prefixed) Permute(s conllu.Sentence) (conllu.Sentence, error) {
	out, err := p.Permuter.Permute(s)
	if err != nil {
		return out, err
	}
	if p.Prefix != "" {
		out.SetSentID(p.Prefix + s.SentID())
	}
	return out, nil
}
