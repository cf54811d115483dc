package analyze

import "github.com/matzehuels/wordorder/pkg/conllu"

// TokenDependencyLength returns the signed distance id - head of t. The root
// is skipped unless countRoot is set, in which case it is measured from
// position 0. ok is false for skipped tokens.
func TokenDependencyLength(t conllu.Token, countRoot bool) (value int, ok bool) {
	if !t.IsWord() || t.Head == conllu.NoHead || (t.Head == 0 && !countRoot) {
		return 0, false
	}
	return t.ID - t.Head, true
}

// TokenIntervenerComplexity returns the number of words strictly between t
// and its head that have at least one dependent. dependents is the result of
// [conllu.Sentence.Dependents]. The value is negative when t precedes its
// head. Adjacent words always score 0.
func TokenIntervenerComplexity(t conllu.Token, dependents map[int]int, countRoot bool) (value int, ok bool) {
	if !t.IsWord() || t.Head == conllu.NoHead || (t.Head == 0 && !countRoot) {
		return 0, false
	}
	lo, hi := min(t.ID, t.Head), max(t.ID, t.Head)
	n := 0
	for p := lo + 1; p < hi; p++ {
		if dependents[p] > 0 {
			n++
		}
	}
	if t.ID < t.Head {
		return -n, true
	}
	return n, true
}
