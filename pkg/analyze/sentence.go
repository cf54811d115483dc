package analyze

import (
	"math"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Options configures metric computation.
type Options struct {
	// CountRoot includes the root word, measured from position 0.
	CountRoot bool

	// Frequencies is required by WordFrequency.
	Frequencies FrequencyTable
}

// TokenValue is the signed value of one metric for one word.
type TokenValue struct {
	ID    int
	Value float64
}

// TokenValues returns the signed value of m for every counted word of s, in
// sentence order.
func TokenValues(s conllu.Sentence, m Metric, opts Options) ([]TokenValue, error) {
	var out []TokenValue
	switch m {
	case DependencyLength:
		for _, t := range s.Tokens {
			if v, ok := TokenDependencyLength(t, opts.CountRoot); ok {
				out = append(out, TokenValue{ID: t.ID, Value: float64(v)})
			}
		}
	case IntervenerComplexity:
		deps := s.Dependents()
		for _, t := range s.Tokens {
			if v, ok := TokenIntervenerComplexity(t, deps, opts.CountRoot); ok {
				out = append(out, TokenValue{ID: t.ID, Value: float64(v)})
			}
		}
	case WordFrequency:
		if opts.Frequencies == nil {
			return nil, errs.New(errs.ErrCodeMissingResource, "word frequency needs a frequency table")
		}
		for _, t := range s.Tokens {
			if t.IsWord() {
				out = append(out, TokenValue{ID: t.ID, Value: opts.Frequencies.Lookup(t.Form)})
			}
		}
	default:
		return nil, errs.New(errs.ErrCodeInvalidMetric, "unknown metric %d", int(m))
	}
	return out, nil
}

// Score is a sentence-level aggregate: the sum of absolute token values and
// the number of words in the sentence.
type Score struct {
	Raw   float64
	Words float64
}

// Ratio returns Raw/Words, or 0 for an empty score.
func (s Score) Ratio() float64 {
	if s.Words == 0 {
		return 0
	}
	return s.Raw / s.Words
}

// Add returns the element-wise sum of s and o.
func (s Score) Add(o Score) Score {
	return Score{Raw: s.Raw + o.Raw, Words: s.Words + o.Words}
}

// SentenceScore computes the aggregate of m over s.
func SentenceScore(s conllu.Sentence, m Metric, opts Options) (Score, error) {
	values, err := TokenValues(s, m, opts)
	if err != nil {
		return Score{}, err
	}
	sc := Score{Words: float64(s.Len())}
	for _, v := range values {
		sc.Raw += math.Abs(v.Value)
	}
	return sc, nil
}

// Record is the per-sentence output of a [SentenceAnalyzer].
type Record struct {
	SentenceID string               `json:"sentence_id"`
	Length     int                  `json:"sentence_length"`
	Scores     map[string]float64   `json:"scores"`
	Tokens     map[string][]float64 `json:"tokens,omitempty"`
}

// SentenceAnalyzer computes a fixed set of metrics for every sentence.
type SentenceAnalyzer struct {
	Metrics []Metric
	Options Options

	// CountDirection adds <label>_left and <label>_right scores splitting
	// the sum by the side of the head each word is on.
	CountDirection bool

	// Tokenwise adds the signed per-word values under Tokens.
	Tokenwise bool
}

// NewSentenceAnalyzer checks that every metric can be computed with opts.
func NewSentenceAnalyzer(metrics []Metric, opts Options) (*SentenceAnalyzer, error) {
	if len(metrics) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "at least one metric is required")
	}
	for _, m := range metrics {
		if m == WordFrequency && opts.Frequencies == nil {
			return nil, errs.New(errs.ErrCodeMissingResource, "word frequency needs a frequency table")
		}
	}
	return &SentenceAnalyzer{Metrics: metrics, Options: opts}, nil
}

// Analyze computes the record of s.
func (a *SentenceAnalyzer) Analyze(s conllu.Sentence) (Record, error) {
	rec := Record{
		SentenceID: s.SentID(),
		Length:     s.Len(),
		Scores:     make(map[string]float64, len(a.Metrics)),
	}
	if a.Tokenwise {
		rec.Tokens = make(map[string][]float64, len(a.Metrics))
	}

	for _, m := range a.Metrics {
		values, err := TokenValues(s, m, a.Options)
		if err != nil {
			return Record{}, err
		}
		label := m.Label()

		var sum, l, r float64
		tokens := make([]float64, 0, len(values))
		for _, v := range values {
			sum += math.Abs(v.Value)
			if v.Value < 0 {
				l -= v.Value
			} else {
				r += v.Value
			}
			tokens = append(tokens, v.Value)
		}
		rec.Scores[label] = sum
		if a.CountDirection && m != WordFrequency {
			rec.Scores[label+"_left"] = l
			rec.Scores[label+"_right"] = r
		}
		if a.Tokenwise {
			rec.Tokens[label] = tokens
		}
	}
	return rec, nil
}
