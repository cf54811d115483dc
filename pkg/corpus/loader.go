package corpus

import (
	"errors"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Length bounds applied when a Loader leaves them unset.
const (
	DefaultMinLen = 1
	DefaultMaxLen = 999
)

var (
	// ErrRootCount is reported when a sentence does not have exactly one
	// word attached to head 0 with relation "root".
	ErrRootCount = errors.New("sentence must have exactly one root")

	// ErrOrphan is reported when a word has no head.
	ErrOrphan = errors.New("sentence has a word without head")

	// ErrLength is reported when a sentence is outside the length bounds.
	ErrLength = errors.New("sentence length out of bounds")
)

// CheckSanity verifies that s is a tree the permuters can work with: exactly
// one word is the root (head 0, relation "root") and no word lacks a head.
func CheckSanity(s conllu.Sentence) error {
	roots := 0
	for _, t := range s.Tokens {
		if !t.IsWord() {
			continue
		}
		if t.Head == conllu.NoHead {
			return errs.Wrap(errs.ErrCodeInvalidTree, ErrOrphan, "sentence %q word %d", s.SentID(), t.ID)
		}
		if t.Head == 0 && t.Deprel == "root" {
			roots++
		}
	}
	if roots != 1 {
		return errs.Wrap(errs.ErrCodeInvalidTree, ErrRootCount, "sentence %q has %d", s.SentID(), roots)
	}
	return nil
}

// Stats counts what a Loader did with the sentences it saw.
type Stats struct {
	Read     int
	Accepted int
	Rejected int
}

// Loader cleans sentences and keeps the ones that pass the length and
// sanity checks. The zero value keeps every well-formed sentence of length
// 1 to 999 and only drops non-word rows.
type Loader struct {
	Cleaner *Cleaner
	MinLen  int
	MaxLen  int

	// Logger receives a debug line for every rejected sentence.
	Logger *log.Logger

	stats Stats
}

// Stats returns the counters accumulated so far. They are never reset: a
// FileSource read n times counts each of its sentences n times.
func (l *Loader) Stats() Stats {
	return l.stats
}

func (l *Loader) bounds() (int, int) {
	lo, hi := l.MinLen, l.MaxLen
	if lo <= 0 {
		lo = DefaultMinLen
	}
	if hi <= 0 {
		hi = DefaultMaxLen
	}
	return lo, hi
}

// Prepare cleans s and checks it. A rejected sentence returns an error
// wrapping [ErrRootCount], [ErrOrphan], [ErrLength] or a tree error.
func (l *Loader) Prepare(s conllu.Sentence) (conllu.Sentence, error) {
	cleaner := l.Cleaner
	if cleaner == nil {
		cleaner = &Cleaner{}
	}
	out, err := cleaner.Clean(s)
	if err != nil {
		return conllu.Sentence{}, err
	}
	if err := CheckSanity(out); err != nil {
		return conllu.Sentence{}, err
	}
	lo, hi := l.bounds()
	if n := out.Len(); n < lo || n > hi {
		return conllu.Sentence{}, errs.Wrap(errs.ErrCodeInvalidInput, ErrLength, "sentence %q has %d words", s.SentID(), n)
	}
	return out, nil
}

// Accept runs [Loader.Prepare] and reports whether the sentence was kept,
// counting and logging rejections instead of returning them.
func (l *Loader) Accept(s conllu.Sentence) (conllu.Sentence, bool) {
	l.stats.Read++
	out, err := l.Prepare(s)
	if err != nil {
		l.stats.Rejected++
		if l.Logger != nil {
			l.Logger.Debug("skipping sentence", "sent_id", s.SentID(), "reason", errs.UserMessage(err))
		}
		return conllu.Sentence{}, false
	}
	l.stats.Accepted++
	return out, true
}

// Load reads every sentence from r and returns the accepted ones.
func (l *Loader) Load(r io.Reader) ([]conllu.Sentence, error) {
	var out []conllu.Sentence
	for s, err := range l.sentences(conllu.NewReader(r)) {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (l *Loader) sentences(cr *conllu.Reader) iter.Seq2[conllu.Sentence, error] {
	return func(yield func(conllu.Sentence, error) bool) {
		for {
			s, err := cr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(conllu.Sentence{}, err)
				return
			}
			if out, ok := l.Accept(s); ok {
				if !yield(out, nil) {
					return
				}
			}
		}
	}
}
