// Package corpus prepares treebank sentences for permutation and analysis.
//
// A [Cleaner] drops rows that are not syntactic words, removes words matching
// token filters together with everything attached below them, masks fields
// and renumbers the survivors. A [Loader] runs the cleaner and rejects
// sentences that are too short, too long or not well-formed trees. Sources
// hand the accepted sentences to consumers that may need several passes
// over the same data:
//
//	loader := &corpus.Loader{Cleaner: cleaner, MinLen: 3, MaxLen: 40}
//	src := corpus.NewFileSource(loader, "train.conllu")
//	for s, err := range src.Sentences() {
//	    if err != nil {
//	        return err
//	    }
//	    // ...
//	}
package corpus
