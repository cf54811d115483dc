// Package conllu reads and writes dependency treebanks in the CoNLL-U format.
//
// A treebank file is a sequence of sentences separated by blank lines. Each
// sentence starts with optional comment lines ("# key = value") followed by
// one tab-separated row of ten fields per token:
//
//	ID FORM LEMMA UPOS XPOS FEATS HEAD DEPREL DEPS MISC
//
// Word rows carry an integer ID. Multiword spans ("2-3") and empty nodes
// ("8.1") are kept as non-word tokens with their original ID text in
// [Token.RawID] so that a file round-trips, but the tree and permutation
// packages only ever operate on word tokens; see [Sentence.Words].
//
// # Reading
//
// [Reader] parses sentences incrementally so arbitrarily large treebanks can
// be streamed:
//
//	r := conllu.NewReader(f)
//	for {
//	    s, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Writing
//
// [Writer] serializes sentences back, writing "_" for empty fields and a blank
// line after every sentence.
package conllu
