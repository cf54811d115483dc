package permute

import (
	"math/rand/v2"

	"github.com/matzehuels/wordorder/pkg/conllu"
	"github.com/matzehuels/wordorder/pkg/tree"
)

// nonProjective shuffles the words of a sentence as a flat list.
type nonProjective struct {
	rng *rand.Rand
}

func (p *nonProjective) Permute(s conllu.Sentence) (conllu.Sentence, error) {
	words := s.Words()
	shuffle(p.rng, words)
	tokens, err := tree.Linearize(words)
	if err != nil {
		return conllu.Sentence{}, err
	}
	return s.WithTokens(tokens), nil
}
