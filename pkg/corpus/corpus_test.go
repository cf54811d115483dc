package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// wannaSentence is "i wanna meet people from germany i am from vietnam ."
// with the multiword token "wanna" split into "wan" and "na".
const wannaSentence = `# sent_id = wanna
1	i	_	PRON	_	_	2	nsubj	_	_
2-3	wanna	_	_	_	_	_	_	_	_
2	wan	_	VERB	_	_	0	root	_	_
3	na	_	PART	_	_	4	mark	_	_
4	meet	_	VERB	_	_	2	xcomp	_	_
5	people	_	NOUN	_	_	4	obj	_	_
6	from	_	ADP	_	_	7	case	_	_
7	germany	_	PROPN	_	_	5	nmod	_	_
8	i	_	PRON	_	_	11	nsubj	_	_
9	am	_	AUX	_	_	11	cop	_	_
10	from	_	ADP	_	_	11	case	_	_
11	vietnam	_	PROPN	_	_	2	parataxis	_	_
12	.	_	PUNCT	_	_	2	punct	_	_

`

func parse(t *testing.T, text string) conllu.Sentence {
	t.Helper()
	sentences, err := conllu.ReadAll(strings.NewReader(text))
	if err != nil || len(sentences) != 1 {
		t.Fatalf("parse: %v (%d sentences)", err, len(sentences))
	}
	return sentences[0]
}

type row struct {
	id   int
	form string
	head int
}

func rows(s conllu.Sentence) []row {
	out := make([]row, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = row{t.ID, t.Form, t.Head}
	}
	return out
}

func TestCleanerRemovesFilteredTokens(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []row
	}{
		{
			name:   "punctuation",
			filter: Filter{"upos": "PUNCT"},
			want: []row{
				{1, "i", 2}, {2, "wan", 0}, {3, "na", 4}, {4, "meet", 2},
				{5, "people", 4}, {6, "from", 7}, {7, "germany", 5},
				{8, "i", 11}, {9, "am", 11}, {10, "from", 11}, {11, "vietnam", 2},
			},
		},
		{
			name:   "parataxis with descendants",
			filter: Filter{"deprel": "parataxis"},
			want: []row{
				{1, "i", 2}, {2, "wan", 0}, {3, "na", 4}, {4, "meet", 2},
				{5, "people", 4}, {6, "from", 7}, {7, "germany", 5},
				{8, ".", 2},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCleaner(CleanerOptions{Remove: []Filter{tt.filter}})
			if err != nil {
				t.Fatalf("NewCleaner: %v", err)
			}
			out, err := c.Clean(parse(t, wannaSentence))
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			got := rows(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if out.SentID() != "wanna" {
				t.Errorf("metadata lost: %v", out.Metadata)
			}
			if err := CheckSanity(out); err != nil {
				t.Errorf("cleaned sentence fails sanity check: %v", err)
			}
		})
	}
}

func TestCleanerDropsNonWords(t *testing.T) {
	c, _ := NewCleaner(CleanerOptions{})
	out, err := c.Clean(parse(t, wannaSentence))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Tokens) != 12 {
		t.Errorf("got %d tokens, want 12", len(out.Tokens))
	}
	for i, tok := range out.Tokens {
		if !tok.IsWord() || tok.ID != i+1 {
			t.Errorf("token %d: kind %v id %d", i, tok.Kind, tok.ID)
		}
	}
}

func TestCleanerMasks(t *testing.T) {
	c, err := NewCleaner(CleanerOptions{Mask: []string{conllu.FieldUPOS}, MaskWords: true})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Clean(parse(t, wannaSentence))
	if err != nil {
		t.Fatal(err)
	}
	tok := out.Tokens[4]
	if tok.UPOS != "" {
		t.Errorf("upos not masked: %q", tok.UPOS)
	}
	if tok.Form != "5" || tok.Lemma != "5" {
		t.Errorf("form/lemma = %q/%q, want position 5", tok.Form, tok.Lemma)
	}
	if tok.Deprel != "obj" || tok.Head != 4 {
		t.Errorf("structure changed: %+v", tok)
	}
}

func TestNewCleanerRejectsBadFields(t *testing.T) {
	tests := []struct {
		name string
		opts CleanerOptions
	}{
		{"mask head", CleanerOptions{Mask: []string{"head"}}},
		{"mask unknown", CleanerOptions{Mask: []string{"colour"}}},
		{"filter unknown", CleanerOptions{Remove: []Filter{{"colour": "red"}}}},
		{"empty filter", CleanerOptions{Remove: []Filter{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCleaner(tt.opts)
			if !errs.Is(err, errs.ErrCodeInvalidField) {
				t.Errorf("expected INVALID_FIELD, got %v", err)
			}
		})
	}
}

func TestReadFilters(t *testing.T) {
	filters, err := ReadFilters(strings.NewReader(`{"upos": "PUNCT"}

{"deprel": "nmod", "upos": "PROPN"}
`))
	if err != nil {
		t.Fatalf("ReadFilters: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("got %d filters", len(filters))
	}
	tok := conllu.Token{ID: 7, Form: "germany", UPOS: "PROPN", Deprel: "nmod"}
	if !filters[1].Match(tok) {
		t.Error("conjunctive filter should match")
	}
	tok.Deprel = "obj"
	if filters[1].Match(tok) {
		t.Error("filter should require every field")
	}

	if _, err := ReadFilters(strings.NewReader("upos=PUNCT\n")); !errs.Is(err, errs.ErrCodeInvalidField) {
		t.Errorf("expected INVALID_FIELD, got %v", err)
	}
}

func TestCheckSanity(t *testing.T) {
	tests := []struct {
		name  string
		heads []int
		rels  []string
		want  error
	}{
		{"ok", []int{2, 0}, []string{"nsubj", "root"}, nil},
		{"no root", []int{2, 1}, []string{"nsubj", "obj"}, ErrRootCount},
		{"two roots", []int{0, 0}, []string{"root", "root"}, ErrRootCount},
		{"root with other label", []int{2, 0}, []string{"nsubj", "dep"}, ErrRootCount},
		{"orphan", []int{conllu.NoHead, 0}, []string{"nsubj", "root"}, ErrOrphan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s conllu.Sentence
			for i := range tt.heads {
				s.Tokens = append(s.Tokens, conllu.Token{ID: i + 1, Head: tt.heads[i], Deprel: tt.rels[i]})
			}
			err := CheckSanity(s)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoaderFilters(t *testing.T) {
	text := wannaSentence + `# sent_id = short
1	yes	_	INTJ	_	_	0	root	_	_

# sent_id = broken
1	a	_	X	_	_	_	dep	_	_
2	b	_	X	_	_	0	root	_	_

`
	tests := []struct {
		name   string
		loader Loader
		want   []string
	}{
		{"defaults", Loader{}, []string{"wanna", "short"}},
		{"min length", Loader{MinLen: 2}, []string{"wanna"}},
		{"max length", Loader{MaxLen: 5}, []string{"short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.loader
			got, err := l.Load(strings.NewReader(text))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			var ids []string
			for _, s := range got {
				ids = append(ids, s.SentID())
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", ids, tt.want)
			}
			st := l.Stats()
			if st.Read != 3 || st.Accepted != len(tt.want) || st.Rejected != 3-len(tt.want) {
				t.Errorf("stats = %+v", st)
			}
		})
	}
}

func TestLengthIsMeasuredAfterCleaning(t *testing.T) {
	c, _ := NewCleaner(CleanerOptions{Remove: []Filter{{"deprel": "parataxis"}}})
	l := &Loader{Cleaner: c, MaxLen: 8}
	if _, err := l.Prepare(parse(t, wannaSentence)); err != nil {
		t.Errorf("8-word cleaned sentence should pass: %v", err)
	}
	l.MaxLen = 7
	if _, err := l.Prepare(parse(t, wannaSentence)); !errors.Is(err, ErrLength) {
		t.Errorf("expected ErrLength, got %v", err)
	}
}

func TestFileSourceIsReiterable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.conllu")
	if err := os.WriteFile(path, []byte(wannaSentence), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewFileSource(nil, path, path)

	for pass := 0; pass < 2; pass++ {
		n, words, err := Count(src)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if n != 2 || words != 24 {
			t.Errorf("pass %d: got %d sentences, %d words", pass, n, words)
		}
	}

	mem, err := Materialize(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(mem) != 2 {
		t.Errorf("materialized %d sentences", len(mem))
	}
	again, _ := Materialize(mem)
	if len(again) != 2 {
		t.Errorf("materializing a memory source changed it")
	}
}

func TestLoaderStatsAccumulateAcrossPasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.conllu")
	if err := os.WriteFile(path, []byte(wannaSentence), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{MaxLen: 5}
	src := NewFileSource(l, path)

	for pass := 1; pass <= 2; pass++ {
		if _, _, err := Count(src); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if st := l.Stats(); st.Read != pass || st.Rejected != pass || st.Accepted != 0 {
			t.Errorf("after pass %d: stats = %+v", pass, st)
		}
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(nil, filepath.Join(t.TempDir(), "missing.conllu"))
	_, _, err := Count(src)
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestSourceStopsEarly(t *testing.T) {
	src := MemorySource{{}, {}, {}}
	n := 0
	for range src.Sentences() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d", n)
	}
}
