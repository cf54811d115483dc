package cache

// AnalysisKeyOpts lists the options that change the analysis of a treebank.
type AnalysisKeyOpts struct {
	Metrics        []string `json:"metrics"`
	CountRoot      bool     `json:"count_root"`
	CountDirection bool     `json:"count_direction"`
	Tokenwise      bool     `json:"tokenwise"`

	// Loader is an opaque description of the cleaning and length filters.
	Loader string `json:"loader"`

	// FrequencyHash is the content hash of the frequency table, if any.
	FrequencyHash string `json:"frequency_hash,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// AnalysisKey returns the key of the analysis of a treebank whose
	// content hash is contentHash.
	AnalysisKey(contentHash string, opts AnalysisKeyOpts) string
}

// DefaultKeyer hashes its inputs into prefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AnalysisKey returns "analysis:<sha256>".
func (DefaultKeyer) AnalysisKey(contentHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", contentHash, opts)
}
