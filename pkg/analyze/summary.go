package analyze

import (
	"maps"
	"math"
	"slices"
)

// Summary aggregates sentence records over a treebank.
type Summary struct {
	Sentences int                `json:"sentences"`
	Words     int                `json:"words"`
	Means     map[string]float64 `json:"means"`

	// DependencyLengthRate is the mean over sentences of DL / length².
	DependencyLengthRate float64 `json:"dependency_length_rate"`

	// DependencyLengthDeviationRate is the mean over sentences of the
	// standard deviation of token dependency lengths divided by length.
	// Only sentences with tokenwise DL values and at least two of them
	// contribute.
	DependencyLengthDeviationRate float64 `json:"dependency_length_deviation_rate"`
}

// Summarizer accumulates records into a [Summary].
type Summarizer struct {
	n, words   int
	sums       map[string]float64
	rate       float64
	deviation  float64
	deviations int
}

// NewSummarizer creates an empty summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{sums: make(map[string]float64)}
}

// Add folds one record into the summary.
func (s *Summarizer) Add(r Record) {
	s.n++
	s.words += r.Length
	for k, v := range r.Scores {
		s.sums[k] += v
	}
	if r.Length == 0 {
		return
	}
	l := float64(r.Length)
	if dl, ok := r.Scores[DependencyLength.Label()]; ok {
		s.rate += dl / (l * l)
	}
	if values := r.Tokens[DependencyLength.Label()]; len(values) >= 2 {
		abs := make([]float64, len(values))
		for i, v := range values {
			abs[i] = math.Abs(v)
		}
		s.deviation += stdev(abs) / l
		s.deviations++
	}
}

// Summary returns the aggregate of every record added so far.
func (s *Summarizer) Summary() Summary {
	out := Summary{
		Sentences: s.n,
		Words:     s.words,
		Means:     make(map[string]float64, len(s.sums)),
	}
	if s.n == 0 {
		return out
	}
	for _, k := range slices.Sorted(maps.Keys(s.sums)) {
		out.Means[k] = s.sums[k] / float64(s.n)
	}
	out.DependencyLengthRate = s.rate / float64(s.n)
	if s.deviations > 0 {
		out.DependencyLengthDeviationRate = s.deviation / float64(s.deviations)
	}
	return out
}

// stdev is the sample standard deviation of xs (n-1 denominator).
func stdev(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
