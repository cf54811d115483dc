package analyze

import (
	"math"

	"github.com/matzehuels/wordorder/pkg/conllu"
)

// entropyEpsilon is the initial count of every (relation, direction) cell so
// that unseen cells have a tiny non-zero probability.
const entropyEpsilon = 1e-6

// DirectionEntropy models how predictable the head direction of a word is
// from its dependency relation. It counts, for every relation, how often the
// dependent precedes and follows its head.
type DirectionEntropy struct {
	labels []string
	index  map[string]int
	counts [][2]float64 // [follows head, precedes head]
}

// NewDirectionEntropy creates an empty model.
func NewDirectionEntropy() *DirectionEntropy {
	return &DirectionEntropy{index: make(map[string]int)}
}

// Fit adds the counts of every word of s.
func (m *DirectionEntropy) Fit(s conllu.Sentence) {
	for _, t := range s.Tokens {
		if !t.IsWord() || t.Head == conllu.NoHead {
			continue
		}
		i, ok := m.index[t.Deprel]
		if !ok {
			i = len(m.labels)
			m.index[t.Deprel] = i
			m.labels = append(m.labels, t.Deprel)
			m.counts = append(m.counts, [2]float64{entropyEpsilon, entropyEpsilon})
		}
		if t.Head > t.ID {
			m.counts[i][1]++
		} else {
			m.counts[i][0]++
		}
	}
}

func (m *DirectionEntropy) total() float64 {
	total := 0.0
	for _, c := range m.counts {
		total += c[0] + c[1]
	}
	return total
}

// Entropy returns the conditional entropy of head direction given relation,
// in nats.
func (m *DirectionEntropy) Entropy() float64 {
	total := m.total()
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range m.counts {
		px := (c[0] + c[1]) / total
		for _, n := range c {
			pxy := n / total
			h -= pxy * math.Log(pxy/px)
		}
	}
	return h
}

// LabelEntropies returns the entropy of head direction for every relation,
// in bits.
func (m *DirectionEntropy) LabelEntropies() map[string]float64 {
	out := make(map[string]float64, len(m.labels))
	for i, label := range m.labels {
		c := m.counts[i]
		sum := c[0] + c[1]
		h := 0.0
		for _, n := range c {
			p := n / sum
			h -= p * math.Log2(p)
		}
		out[label] = h
	}
	return out
}
