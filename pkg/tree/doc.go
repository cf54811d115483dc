// Package tree builds dependency trees from sentences and linearizes
// rearranged trees back into sentences.
//
// A [Tree] groups the words of a sentence by their head: every word becomes
// a node whose children are its dependents, in sentence order. Trees are
// built fresh for each call and never cached.
//
// A [Node] is the output side of a permutation. It holds a center token and
// explicit Left and Right dependent lists; an in-order traversal (left
// subtrees, center, right subtrees) yields the new reading order:
//
//	n := &tree.Node{Center: head, Left: []*tree.Node{a}, Right: []*tree.Node{b}}
//	tokens := n.Tokens() // a..., head, b...
//
// # Linearization Invariant
//
// Every sentence produced by [Linearize] or [Reindex] has IDs exactly 1..N in
// list order, the root keeps head 0, and every other head refers to the new
// ID of the same original head word.
package tree
