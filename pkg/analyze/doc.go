// Package analyze computes word-order metrics over dependency trees.
//
// Token-level metrics:
//
//   - Dependency length (DL): the distance between a word and its head.
//   - Intervener complexity (ICM): the number of words strictly between a
//     word and its head that are themselves heads of some dependent.
//   - Word frequency (WF): the Zipf frequency of the word form, looked up in
//     a [FrequencyTable].
//
// Token values are signed when direction is requested: negative when the
// dependent precedes its head. Sentence scores sum absolute values and
// carry the sentence's word count so scores can be pooled over a corpus as
// a ratio of sums.
//
// All functions in this package are pure: they read a sentence and never
// modify it.
package analyze
