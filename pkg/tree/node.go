package tree

import "github.com/matzehuels/wordorder/pkg/conllu"

// Node is a rearranged dependency subtree. Left dependents precede the
// center word and Right dependents follow it, each list in reading order.
type Node struct {
	Center conllu.Token
	Left   []*Node
	Right  []*Node
}

// Tokens returns the words of n in reading order.
func (n *Node) Tokens() []conllu.Token {
	out := make([]conllu.Token, 0, n.size())
	return n.appendTokens(out)
}

func (n *Node) appendTokens(out []conllu.Token) []conllu.Token {
	for _, l := range n.Left {
		out = l.appendTokens(out)
	}
	out = append(out, n.Center)
	for _, r := range n.Right {
		out = r.appendTokens(out)
	}
	return out
}

func (n *Node) size() int {
	s := 1
	for _, l := range n.Left {
		s += l.size()
	}
	for _, r := range n.Right {
		s += r.size()
	}
	return s
}
