package hillclimb

import "github.com/matzehuels/wordorder/pkg/analyze"

// Floors of a fresh or flushed accumulator. A fresh accumulator's accepted
// ratio is EpsilonRaw / EpsilonWords = 10.
const (
	EpsilonRaw   = 1e-6
	EpsilonWords = 1e-7
)

// Accumulator holds the running score of one objective: the sum being built
// for the current proposal and the sum of the last accepted one. It is a
// plain value; copying it copies the whole state.
type Accumulator struct {
	CurrentRaw    float64
	CurrentWords  float64
	PreviousRaw   float64
	PreviousWords float64
}

// NewAccumulator returns an accumulator with both buffers at their floors.
func NewAccumulator() Accumulator {
	return Accumulator{
		CurrentRaw:    EpsilonRaw,
		CurrentWords:  EpsilonWords,
		PreviousRaw:   EpsilonRaw,
		PreviousWords: EpsilonWords,
	}
}

// Add folds one sentence score into the current buffer.
func (a *Accumulator) Add(s analyze.Score) {
	a.CurrentRaw += s.Raw
	a.CurrentWords += s.Words
}

// Current returns the current ratio.
func (a Accumulator) Current() float64 {
	return a.CurrentRaw / a.CurrentWords
}

// Previous returns the accepted ratio.
func (a Accumulator) Previous() float64 {
	return a.PreviousRaw / a.PreviousWords
}

// Improvement returns Current / Previous. Values below one are improvements.
func (a Accumulator) Improvement() float64 {
	return a.Current() / a.Previous()
}

// Commit makes the current buffer the accepted one.
func (a *Accumulator) Commit() {
	a.PreviousRaw, a.PreviousWords = a.CurrentRaw, a.CurrentWords
}

// UsePrevious replaces the current buffer with the accepted one.
func (a *Accumulator) UsePrevious() {
	a.CurrentRaw, a.CurrentWords = a.PreviousRaw, a.PreviousWords
}

// Flush resets the current buffer to its floors.
func (a *Accumulator) Flush() {
	a.CurrentRaw, a.CurrentWords = EpsilonRaw, EpsilonWords
}
