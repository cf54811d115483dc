package conllu

import "slices"

// MetaSentID is the metadata key holding the sentence identifier.
const MetaSentID = "sent_id"

// Comment is one comment line preceding a sentence. Lines of the form
// "# key = value" populate Key and Value; any other comment keeps its text
// in Value with an empty Key.
type Comment struct {
	Key   string
	Value string
}

// Metadata is the ordered list of comment lines of a sentence.
type Metadata []Comment

// Get returns the value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, c := range m {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (m *Metadata) Set(key, value string) {
	for i, c := range *m {
		if c.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, Comment{Key: key, Value: value})
}

// Sentence is an ordered list of tokens with its comment metadata.
type Sentence struct {
	Metadata Metadata
	Tokens   []Token
}

// SentID returns the sent_id metadata value, or "" when absent.
func (s Sentence) SentID() string {
	id, _ := s.Metadata.Get(MetaSentID)
	return id
}

// SetSentID sets the sent_id metadata value.
func (s *Sentence) SetSentID(id string) {
	s.Metadata.Set(MetaSentID, id)
}

// Clone returns a deep copy of s.
func (s Sentence) Clone() Sentence {
	return Sentence{
		Metadata: slices.Clone(s.Metadata),
		Tokens:   slices.Clone(s.Tokens),
	}
}

// WithTokens returns a sentence sharing a copy of s's metadata with the given
// tokens.
func (s Sentence) WithTokens(tokens []Token) Sentence {
	return Sentence{Metadata: slices.Clone(s.Metadata), Tokens: tokens}
}

// Words returns the syntactic word tokens of s, skipping multiword spans and
// empty nodes.
func (s Sentence) Words() []Token {
	words := make([]Token, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if t.IsWord() {
			words = append(words, t)
		}
	}
	return words
}

// Len returns the number of syntactic words in s.
func (s Sentence) Len() int {
	n := 0
	for _, t := range s.Tokens {
		if t.IsWord() {
			n++
		}
	}
	return n
}

// Dependents returns the number of dependents of every word, keyed by word ID.
func (s Sentence) Dependents() map[int]int {
	counts := make(map[int]int, len(s.Tokens))
	for _, t := range s.Tokens {
		if t.IsWord() && t.Head > 0 {
			counts[t.Head]++
		}
	}
	return counts
}
