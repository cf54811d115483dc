package corpus

import (
	"bufio"
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/tree"
)

// Filter selects tokens whose fields all equal the given values, for example
// {"upos": "PUNCT"} or {"deprel": "nmod", "upos": "PROPN"}.
type Filter map[string]string

// Match reports whether every field of f equals the token's value.
func (f Filter) Match(t conllu.Token) bool {
	for name, want := range f {
		got, ok := t.Field(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (f Filter) validate() error {
	if len(f) == 0 {
		return errs.New(errs.ErrCodeInvalidField, "empty token filter")
	}
	var probe conllu.Token
	for _, name := range slices.Sorted(maps.Keys(f)) {
		if _, ok := probe.Field(name); !ok {
			return errs.New(errs.ErrCodeInvalidField, "unknown token field %q in filter", name)
		}
	}
	return nil
}

// ReadFilters parses one JSON filter object per line. Blank lines are
// skipped.
func ReadFilters(r io.Reader) ([]Filter, error) {
	var out []Filter
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var f Filter
		if err := json.Unmarshal([]byte(text), &f); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidField, err, "filter line %d", line)
		}
		out = append(out, f)
	}
	return out, sc.Err()
}

// ReadFiltersFile parses filters from the named NDJSON file.
func ReadFiltersFile(path string) ([]Filter, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "filter file %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadFilters(f)
}

// Cleaner normalizes sentences before they reach the permuters.
type Cleaner struct {
	remove    []Filter
	mask      []string
	maskWords bool
}

// CleanerOptions configures a [Cleaner].
type CleanerOptions struct {
	// Remove drops every word matching any filter, with its descendants.
	Remove []Filter

	// Mask blanks the named fields. Only [conllu.MaskableFields] are allowed.
	Mask []string

	// MaskWords replaces form and lemma by the word's original position.
	MaskWords bool
}

// NewCleaner validates opts and builds a cleaner.
func NewCleaner(opts CleanerOptions) (*Cleaner, error) {
	for _, f := range opts.Remove {
		if err := f.validate(); err != nil {
			return nil, err
		}
	}
	for _, name := range opts.Mask {
		if !slices.Contains(conllu.MaskableFields, name) {
			return nil, errs.Choice(errs.ErrCodeInvalidField, "maskable field", name, conllu.MaskableFields)
		}
	}
	return &Cleaner{
		remove:    slices.Clone(opts.Remove),
		mask:      slices.Clone(opts.Mask),
		maskWords: opts.MaskWords,
	}, nil
}

// Clean returns a copy of s holding only syntactic words, without the
// removed subtrees, with masked fields and with IDs renumbered 1..N.
// Heads that point at a word which is no longer present become
// [conllu.NoHead]. Metadata is preserved.
func (c *Cleaner) Clean(s conllu.Sentence) (conllu.Sentence, error) {
	words := s.Words()

	removed := make(map[int]bool)
	for _, w := range words {
		if slices.ContainsFunc(c.remove, func(f Filter) bool { return f.Match(w) }) {
			removed[w.ID] = true
		}
	}
	if len(removed) > 0 {
		removeDescendants(words, removed)
	}

	kept := make([]conllu.Token, 0, len(words))
	present := make(map[int]bool, len(words))
	for _, w := range words {
		if !removed[w.ID] {
			present[w.ID] = true
		}
	}
	for _, w := range words {
		if removed[w.ID] {
			continue
		}
		if w.Head > 0 && !present[w.Head] {
			w.Head = conllu.NoHead
		}
		for _, name := range c.mask {
			w.Mask(name)
		}
		if c.maskWords {
			w.Form = strconv.Itoa(w.ID)
			w.Lemma = w.Form
		}
		kept = append(kept, w)
	}

	tokens, err := tree.Linearize(kept)
	if err != nil {
		return conllu.Sentence{}, err
	}
	return s.WithTokens(tokens), nil
}

// removeDescendants extends removed with every word below a removed word.
func removeDescendants(words []conllu.Token, removed map[int]bool) {
	children := make(map[int][]int)
	for _, w := range words {
		if w.Head > 0 {
			children[w.Head] = append(children[w.Head], w.ID)
		}
	}
	stack := slices.Collect(maps.Keys(removed))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[id] {
			if !removed[child] {
				removed[child] = true
				stack = append(stack, child)
			}
		}
	}
}
