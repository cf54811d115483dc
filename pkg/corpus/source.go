package corpus

import (
	"fmt"
	"iter"
	"os"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Source yields the sentences of a corpus. Sentences may be called any
// number of times and every call starts a fresh pass over the data.
type Source interface {
	Sentences() iter.Seq2[conllu.Sentence, error]
}

// MemorySource is a corpus held in memory.
type MemorySource []conllu.Sentence

// Sentences yields every sentence in order.
func (m MemorySource) Sentences() iter.Seq2[conllu.Sentence, error] {
	return func(yield func(conllu.Sentence, error) bool) {
		for _, s := range m {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// FileSource re-reads its files through a Loader on every pass, keeping
// memory use bounded by one sentence.
type FileSource struct {
	Loader *Loader
	Paths  []string
}

// NewFileSource creates a source over the given CoNLL-U files.
func NewFileSource(loader *Loader, paths ...string) *FileSource {
	if loader == nil {
		loader = &Loader{}
	}
	return &FileSource{Loader: loader, Paths: paths}
}

// Sentences yields the accepted sentences of every file in order. A file
// that cannot be opened or parsed ends the pass with an error.
func (f *FileSource) Sentences() iter.Seq2[conllu.Sentence, error] {
	return func(yield func(conllu.Sentence, error) bool) {
		for _, path := range f.Paths {
			if !f.readFile(path, yield) {
				return
			}
		}
	}
}

func (f *FileSource) readFile(path string, yield func(conllu.Sentence, error) bool) bool {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errs.Wrap(errs.ErrCodeFileNotFound, err, "treebank %s", path)
		}
		yield(conllu.Sentence{}, err)
		return false
	}
	defer fh.Close()

	for s, err := range f.Loader.sentences(conllu.NewReader(fh)) {
		if err != nil {
			yield(conllu.Sentence{}, fmt.Errorf("%s: %w", path, err))
			return false
		}
		if !yield(s, nil) {
			return false
		}
	}
	return true
}

// Materialize reads src once into memory.
func Materialize(src Source) (MemorySource, error) {
	if m, ok := src.(MemorySource); ok {
		return m, nil
	}
	var out MemorySource
	for s, err := range src.Sentences() {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Count returns the number of sentences and words in one pass over src.
func Count(src Source) (sentences, words int, err error) {
	for s, err := range src.Sentences() {
		if err != nil {
			return 0, 0, err
		}
		sentences++
		words += s.Len()
	}
	return sentences, words, nil
}
