package tree

import (
	"errors"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

var (
	// ErrNoRoot is returned by [Build] when no word is attached to head 0.
	ErrNoRoot = errors.New("sentence has no root")

	// ErrMultipleRoots is returned by [Build] when more than one word is
	// attached to head 0. Trees must be single-rooted.
	ErrMultipleRoots = errors.New("sentence has multiple roots")

	// ErrUnknownHead is returned by [Build] when a word's head does not refer
	// to any word of the sentence, including words whose head is "_".
	ErrUnknownHead = errors.New("head refers to no word in the sentence")

	// ErrCycle is returned by [Build] when some words cannot be reached from
	// the root.
	ErrCycle = errors.New("sentence contains a cycle")

	// ErrUnmappedID is returned by [Reindex] when a token ID or head is
	// missing from the mapping.
	ErrUnmappedID = errors.New("id missing from mapping")
)

// Tree is a dependency tree node: a word and its dependents in sentence order.
type Tree struct {
	Token    conllu.Token
	Children []*Tree
}

// Build constructs the dependency tree of s from its word tokens.
// Non-word rows are ignored.
func Build(s conllu.Sentence) (*Tree, error) {
	words := s.Words()
	nodes := make(map[int]*Tree, len(words))
	for _, w := range words {
		nodes[w.ID] = &Tree{Token: w}
	}

	var root *Tree
	for _, w := range words {
		switch {
		case w.Head == 0:
			if root != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrMultipleRoots, "sentence %q", s.SentID())
			}
			root = nodes[w.ID]
		default:
			parent, ok := nodes[w.Head]
			if !ok || w.Head == w.ID {
				return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrUnknownHead, "sentence %q word %d", s.SentID(), w.ID)
			}
			parent.Children = append(parent.Children, nodes[w.ID])
		}
	}
	if root == nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrNoRoot, "sentence %q", s.SentID())
	}
	if root.Size() != len(words) {
		return nil, errs.Wrap(errs.ErrCodeInvalidTree, ErrCycle, "sentence %q", s.SentID())
	}
	return root, nil
}

// Size returns the number of words in the subtree rooted at t.
func (t *Tree) Size() int {
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// Weight returns 1 plus the weight of every child subtree, i.e. the number
// of words the subtree spans.
func Weight(t *Tree) int {
	return t.Size()
}

// Walk calls fn for every node of t in depth-first pre-order.
func (t *Tree) Walk(fn func(*Tree)) {
	fn(t)
	for _, c := range t.Children {
		c.Walk(fn)
	}
}
