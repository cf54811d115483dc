package analyze

import (
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Metric identifies a word-order metric.
type Metric int

const (
	// DependencyLength is the linear distance between a word and its head.
	DependencyLength Metric = iota
	// IntervenerComplexity counts head words between a word and its head.
	IntervenerComplexity
	// WordFrequency is the Zipf frequency of the word form.
	WordFrequency
)

var metricNames = []string{
	DependencyLength:     "DependencyLength",
	IntervenerComplexity: "IntervenerComplexity",
	WordFrequency:        "WordFrequency",
}

var metricLabels = []string{
	DependencyLength:     "DL",
	IntervenerComplexity: "ICM",
	WordFrequency:        "WF",
}

// String returns the metric's full name.
func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return "unknown"
	}
	return metricNames[m]
}

// Label returns the short label used as a key in records.
func (m Metric) Label() string {
	if m < 0 || int(m) >= len(metricLabels) {
		return "?"
	}
	return metricLabels[m]
}

// Metrics returns the full names of all metrics.
func Metrics() []string {
	return append([]string(nil), metricNames...)
}

// ParseMetric converts a full name or short label into a [Metric]. Unknown
// names produce an INVALID_METRIC error listing the valid names.
func ParseMetric(name string) (Metric, error) {
	for m := range metricNames {
		if metricNames[m] == name || metricLabels[m] == name {
			return Metric(m), nil
		}
	}
	return 0, errs.Choice(errs.ErrCodeInvalidMetric, "metric", name, metricNames)
}

// ParseMetrics converts a list of names with [ParseMetric].
func ParseMetrics(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, n := range names {
		m, err := ParseMetric(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
