package permute

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/tree"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func build(forms []string, heads []int, deprels []string) conllu.Sentence {
	var s conllu.Sentence
	s.SetSentID("test")
	for i := range forms {
		s.Tokens = append(s.Tokens, conllu.Token{ID: i + 1, Form: forms[i], Head: heads[i], Deprel: deprels[i]})
	}
	return s
}

// goSentence is "Me and John go quickly to the library".
func goSentence() conllu.Sentence {
	return build(
		[]string{"Me", "and", "John", "go", "quickly", "to", "the", "library"},
		[]int{4, 3, 1, 0, 4, 8, 8, 4},
		[]string{"nsubj", "cc", "conj", "root", "advmod", "case", "det", "obl"},
	)
}

// chaseSentence is "the dog chased a cat".
func chaseSentence() conllu.Sentence {
	return build(
		[]string{"the", "dog", "chased", "a", "cat"},
		[]int{2, 3, 0, 5, 3},
		[]string{"det", "nsubj", "root", "det", "obj"},
	)
}

// randomSentence builds a random tree over n words with unique forms.
func randomSentence(rng *rand.Rand, n int) conllu.Sentence {
	labels := []string{"nsubj", "obj", "det", "amod", "case", "advmod"}
	parent := make([]int, n)
	for k := 1; k < n; k++ {
		parent[k] = rng.IntN(k)
	}
	pos := rng.Perm(n)

	tokens := make([]conllu.Token, n)
	for k := 0; k < n; k++ {
		t := conllu.Token{ID: pos[k] + 1, Form: fmt.Sprintf("w%d", k), Deprel: labels[rng.IntN(len(labels))]}
		if k == 0 {
			t.Deprel = "root"
		} else {
			t.Head = pos[parent[k]] + 1
		}
		tokens[pos[k]] = t
	}
	var s conllu.Sentence
	s.SetSentID(fmt.Sprintf("rand-%d", n))
	s.Tokens = tokens
	return s
}

// projectiveSentence builds a random tree over n words and lays every
// subtree out contiguously, so no arcs cross.
func projectiveSentence(rng *rand.Rand, n int) conllu.Sentence {
	labels := []string{"nsubj", "obj", "det", "amod", "case", "advmod"}
	children := make([][]int, n)
	for k := 1; k < n; k++ {
		p := rng.IntN(k)
		children[p] = append(children[p], k)
	}

	var order []int
	var place func(k int)
	place = func(k int) {
		var left, right []int
		for _, c := range children[k] {
			if rng.IntN(2) == 0 {
				left = append(left, c)
			} else {
				right = append(right, c)
			}
		}
		for _, c := range left {
			place(c)
		}
		order = append(order, k)
		for _, c := range right {
			place(c)
		}
	}
	place(0)

	pos := make([]int, n)
	for i, k := range order {
		pos[k] = i
	}
	tokens := make([]conllu.Token, n)
	for k := 0; k < n; k++ {
		t := conllu.Token{ID: pos[k] + 1, Form: fmt.Sprintf("w%d", k), Deprel: labels[rng.IntN(len(labels))]}
		if k == 0 {
			t.Deprel = "root"
		}
		tokens[pos[k]] = t
	}
	for k := 0; k < n; k++ {
		for _, c := range children[k] {
			tokens[pos[c]].Head = pos[k] + 1
		}
	}
	var s conllu.Sentence
	s.SetSentID(fmt.Sprintf("proj-%d", n))
	s.Tokens = tokens
	return s
}

func forms(s conllu.Sentence) string {
	var out []string
	for _, t := range s.Tokens {
		out = append(out, t.Form)
	}
	return strings.Join(out, " ")
}

// arcs returns every dependency as "dependent<-head:deprel" using forms.
func arcs(s conllu.Sentence) []string {
	byID := map[int]string{0: "ROOT"}
	for _, t := range s.Tokens {
		byID[t.ID] = t.Form
	}
	var out []string
	for _, t := range s.Tokens {
		out = append(out, t.Form+"<-"+byID[t.Head]+":"+t.Deprel)
	}
	slices.Sort(out)
	return out
}

func checkInvariant(t *testing.T, in, out conllu.Sentence) {
	t.Helper()
	if len(out.Tokens) != len(in.Tokens) {
		t.Fatalf("got %d tokens, want %d", len(out.Tokens), len(in.Tokens))
	}
	roots := 0
	for i, tok := range out.Tokens {
		if tok.ID != i+1 {
			t.Errorf("token %d has ID %d", i, tok.ID)
		}
		if tok.Head == 0 {
			roots++
		}
		if tok.Head < 0 || tok.Head > len(out.Tokens) || tok.Head == tok.ID {
			t.Errorf("token %d has head %d", tok.ID, tok.Head)
		}
	}
	if roots != 1 {
		t.Errorf("got %d roots, want 1", roots)
	}
	if !slices.Equal(arcs(in), arcs(out)) {
		t.Errorf("arcs changed:\n got %v\nwant %v", arcs(out), arcs(in))
	}
	if out.SentID() != in.SentID() {
		t.Errorf("sent_id = %q, want %q", out.SentID(), in.SentID())
	}
}

func allPermuters(t *testing.T, seed uint64) map[string]Permuter {
	t.Helper()
	out := map[string]Permuter{}
	g := grammar.Grammar{"nsubj": -0.4, "obj": 0.3, "det": -0.1, "amod": 0.0, "case": -0.7}
	for _, name := range Modes() {
		mode, err := ParseMode(name)
		if err != nil {
			t.Fatal(err)
		}
		p, err := New(mode, Options{Rand: newRand(seed), Grammar: g})
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		out[name] = p
	}
	return out
}

func TestLinearizationInvariantAllModes(t *testing.T) {
	rng := newRand(1)
	var inputs []conllu.Sentence
	inputs = append(inputs, goSentence(), chaseSentence())
	for n := 1; n <= 25; n++ {
		inputs = append(inputs, randomSentence(rng, n))
	}

	for name, p := range allPermuters(t, 3) {
		t.Run(name, func(t *testing.T) {
			for _, in := range inputs {
				out, err := p.Permute(in)
				if err != nil {
					t.Fatalf("Permute(%s): %v", in.SentID(), err)
				}
				checkInvariant(t, in, out)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range Modes() {
		m, err := ParseMode(name)
		if err != nil {
			t.Errorf("ParseMode(%q): %v", name, err)
		}
		if m.String() != name {
			t.Errorf("String() = %q, want %q", m.String(), name)
		}
	}

	_, err := ParseMode("sideways")
	if !errs.Is(err, errs.ErrCodeInvalidMode) {
		t.Fatalf("ParseMode(sideways) error = %v, want INVALID_MODE", err)
	}
	for _, name := range Modes() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should list %s", err, name)
		}
	}
}

func TestNewRequirements(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		opts Options
	}{
		{"random without source", ModeRandomProjective, Options{}},
		{"shuffled ties without source", ModeOptimalProjective, Options{Ties: TieShuffle}},
		{"fixed order without grammar", ModeFixedOrder, Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mode, tt.opts)
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("New() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestOriginalOrderIsIdentity(t *testing.T) {
	p, err := New(ModeOriginalOrder, Options{})
	if err != nil {
		t.Fatal(err)
	}
	rng := newRand(9)
	inputs := []conllu.Sentence{goSentence(), chaseSentence(), projectiveSentence(rng, 12), projectiveSentence(rng, 30)}

	for _, in := range inputs {
		out, err := p.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(out.Tokens, in.Tokens) {
			t.Errorf("original_order changed %s:\n got %s\nwant %s", in.SentID(), forms(out), forms(in))
		}
	}
}

// sides maps every form to -1 or +1 depending on which side of its head it sits.
func sides(s conllu.Sentence) map[string]int {
	out := map[string]int{}
	for _, t := range s.Tokens {
		switch {
		case t.Head == 0:
		case t.ID < t.Head:
			out[t.Form] = -1
		default:
			out[t.Form] = 1
		}
	}
	return out
}

// valency maps every head form to its number of left dependents.
func valency(s conllu.Sentence) map[string]int {
	byID := map[int]string{}
	for _, t := range s.Tokens {
		byID[t.ID] = t.Form
	}
	out := map[string]int{}
	for _, t := range s.Tokens {
		if t.Head != 0 && t.ID < t.Head {
			out[byID[t.Head]]++
		}
	}
	return out
}

func TestSameSidePreservesSides(t *testing.T) {
	rng := newRand(5)
	p, _ := New(ModeRandomSameSide, Options{Rand: newRand(6)})
	for n := 2; n < 30; n++ {
		in := randomSentence(rng, n)
		out, err := p.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		want, got := sides(in), sides(out)
		for form, side := range want {
			if got[form] != side {
				t.Errorf("%s moved from side %d to %d", form, side, got[form])
			}
		}
	}
}

func TestSameValencyPreservesCounts(t *testing.T) {
	rng := newRand(5)
	p, _ := New(ModeRandomSameValency, Options{Rand: newRand(8)})
	for n := 2; n < 30; n++ {
		in := randomSentence(rng, n)
		out, err := p.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		want, got := valency(in), valency(out)
		if len(want) != len(got) {
			t.Errorf("valency changed: got %v, want %v", got, want)
			continue
		}
		for head, n := range want {
			if got[head] != n {
				t.Errorf("%s has %d left dependents, want %d", head, got[head], n)
			}
		}
	}
}

func TestOptimalProjective(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeOptimalProjective, "the library to quickly go and John Me"},
		{ModeOptimalProjectiveWeight, "to library the quickly go and John Me"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			p, err := New(tt.mode, Options{})
			if err != nil {
				t.Fatal(err)
			}
			out, err := p.Permute(goSentence())
			if err != nil {
				t.Fatal(err)
			}
			if got := forms(out); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixedOrder(t *testing.T) {
	p, err := NewFixedOrder(grammar.Grammar{"det": 0.1, "nsubj": 0.5, "obj": -0.2})
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Permute(chaseSentence())
	if err != nil {
		t.Fatal(err)
	}

	if got := forms(out); got != "cat a chased dog the" {
		t.Errorf("forms = %q", got)
	}
	wantHeads := []int{3, 1, 0, 3, 4}
	for i, tok := range out.Tokens {
		if tok.Head != wantHeads[i] {
			t.Errorf("%s head = %d, want %d", tok.Form, tok.Head, wantHeads[i])
		}
	}
}

func TestFixedOrderDefaultsToRight(t *testing.T) {
	p, _ := NewFixedOrder(grammar.Grammar{"det": 0})
	out, err := p.Permute(chaseSentence())
	if err != nil {
		t.Fatal(err)
	}
	if got := forms(out); got != "chased dog the cat a" {
		t.Errorf("forms = %q", got)
	}
}

func TestFixedOrderLeftSideNearestHead(t *testing.T) {
	// advmod and obl both go left; advmod has the smaller weight so it
	// must end up adjacent to the head.
	s := build(
		[]string{"go", "quickly", "home"},
		[]int{0, 1, 1},
		[]string{"root", "advmod", "obl"},
	)
	p, _ := NewFixedOrder(grammar.Grammar{"advmod": -0.1, "obl": -0.8})
	out, err := p.Permute(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := forms(out); got != "home quickly go" {
		t.Errorf("forms = %q", got)
	}
}

func TestSameRelativeOrderSameOutput(t *testing.T) {
	a := grammar.Grammar{"nsubj": -0.4, "obj": 0.3, "det": -0.1, "amod": 0.05, "case": -0.7, "advmod": 0.9}
	b := grammar.Grammar{"nsubj": -0.5, "obj": 0.2, "det": -0.15, "amod": 0.1, "case": -0.6, "advmod": 0.95}
	if !grammar.SameRelativeOrder(a, b) {
		t.Fatal("grammars should share relative order")
	}
	pa, _ := NewFixedOrder(a)
	pb, _ := NewFixedOrder(b)

	rng := newRand(11)
	for n := 1; n < 40; n++ {
		in := randomSentence(rng, n)
		oa, err := pa.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		ob, err := pb.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(oa.Tokens, ob.Tokens) {
			t.Errorf("outputs differ for %d words:\n%s\n%s", n, forms(oa), forms(ob))
		}
	}
}

func TestRandomProjectiveFixedKeepsRelationSides(t *testing.T) {
	p, _ := New(ModeRandomProjectiveFixed, Options{Rand: newRand(2)})
	rng := newRand(4)

	seen := map[string]int{}
	for n := 2; n < 30; n++ {
		in := randomSentence(rng, n)
		out, err := p.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		deprel := map[string]string{}
		for _, tok := range out.Tokens {
			deprel[tok.Form] = tok.Deprel
		}
		for form, side := range sides(out) {
			d := deprel[form]
			if prev, ok := seen[d]; ok && prev != side {
				t.Fatalf("relation %s placed on both sides", d)
			}
			seen[d] = side
		}
	}
}

func TestSeededPermutersAreDeterministic(t *testing.T) {
	in := randomSentence(newRand(1), 20)
	first := allPermuters(t, 42)
	second := allPermuters(t, 42)

	for name := range first {
		a, err := first[name].Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := second[name].Permute(in)
		if !slices.Equal(a.Tokens, b.Tokens) {
			t.Errorf("%s is not reproducible", name)
		}
	}
}

func TestOptimalShuffledTies(t *testing.T) {
	p, err := New(ModeOptimalProjectiveWeight, Options{Rand: newRand(3), Ties: TieShuffle})
	if err != nil {
		t.Fatal(err)
	}
	in := goSentence()
	for i := 0; i < 10; i++ {
		out, err := p.Permute(in)
		if err != nil {
			t.Fatal(err)
		}
		checkInvariant(t, in, out)
	}
}

func TestPermuteRejectsMalformedTree(t *testing.T) {
	s := build([]string{"a", "b"}, []int{0, 0}, []string{"root", "root"})
	p, _ := New(ModeOptimalProjective, Options{})
	if _, err := p.Permute(s); !errs.Is(err, errs.ErrCodeInvalidTree) {
		t.Errorf("Permute() error = %v, want INVALID_TREE", err)
	}
}

type badStrategy struct{}

func (badStrategy) order(head *tree.Tree) []*tree.Tree        { return head.Children }
func (badStrategy) direction(*tree.Tree, int, *tree.Tree) int { return 0 }
func (badStrategy) finish(_, _ []*tree.Node)                  {}

func TestDirectionalityPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "{-1, +1}") {
			t.Errorf("panic = %v", r)
		}
	}()
	p := &projective{s: badStrategy{}}
	_, _ = p.Permute(chaseSentence())
}

func TestPrefixed(t *testing.T) {
	inner, _ := New(ModeOriginalOrder, Options{})
	p := Prefixed{Permuter: inner, Prefix: "perm0_"}
	out, err := p.Permute(goSentence())
	if err != nil {
		t.Fatal(err)
	}
	if out.SentID() != "perm0_test" {
		t.Errorf("sent_id = %q", out.SentID())
	}
}
