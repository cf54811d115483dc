package tree

import (
	"slices"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Reindex rewrites the ID and head of every token through mapping and returns
// the tokens sorted by their new ID. Head 0 and [conllu.NoHead] are kept
// as they are. The input tokens are not modified.
func Reindex(mapping map[int]int, tokens []conllu.Token) ([]conllu.Token, error) {
	out := make([]conllu.Token, len(tokens))
	for i, t := range tokens {
		id, ok := mapping[t.ID]
		if !ok {
			return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrUnmappedID, "token %d", t.ID)
		}
		head := t.Head
		if t.Head != 0 && t.Head != conllu.NoHead {
			if head, ok = mapping[t.Head]; !ok {
				return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrUnmappedID, "head %d of token %d", t.Head, t.ID)
			}
		}
		t.ID, t.Head = id, head
		out[i] = t
	}
	slices.SortStableFunc(out, func(a, b conllu.Token) int { return a.ID - b.ID })
	return out, nil
}

// Linearize renumbers tokens given in their new reading order so that the
// first has ID 1, the second ID 2, and so on, rewriting heads to match.
func Linearize(tokens []conllu.Token) ([]conllu.Token, error) {
	mapping := make(map[int]int, len(tokens))
	for i, t := range tokens {
		mapping[t.ID] = i + 1
	}
	return Reindex(mapping, tokens)
}

// Linearized returns a copy of s whose tokens are n's words in reading order
// with the linearization invariant restored.
func Linearized(s conllu.Sentence, n *Node) (conllu.Sentence, error) {
	tokens, err := Linearize(n.Tokens())
	if err != nil {
		return conllu.Sentence{}, err
	}
	return s.WithTokens(tokens), nil
}
