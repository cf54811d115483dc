package hillclimb

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/analyze"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultEpochs is the number of training epochs.
	DefaultEpochs = 500

	// DefaultBurnIn is the number of steps run before records are emitted.
	DefaultBurnIn = 50

	// DefaultLambda is the mean of the Poisson draw for the number of
	// relations changed per step.
	DefaultLambda = 1.0

	// DefaultCandidates is the swarm size.
	DefaultCandidates = 1

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)
)

// Config describes a training run.
type Config struct {
	// Deprels is the relation vocabulary of the grammar. When empty it is
	// taken from the training corpus, without "root".
	Deprels []string

	// Objectives are minimized together. Defaults to DependencyLength.
	Objectives []analyze.Metric

	// Weights weighs the objectives in the mean improvement. Nil means
	// equal weights; otherwise there must be one per objective.
	Weights []float64

	// Analysis is passed to every objective.
	Analysis analyze.Options

	Epochs int
	BurnIn int

	// Lambda is the Poisson mean of the number of changed relations.
	// Ignored when Changes is positive.
	Lambda float64

	// Changes fixes the number of changed relations per step.
	Changes int

	// UniformSampling picks changed relations uniformly instead of by
	// their Laplace-smoothed frequency in the training corpus.
	UniformSampling bool

	// Baseline, when set, is scored once before burn-in.
	Baseline grammar.Grammar

	// Candidates is the number of independent grammars trained side by side.
	Candidates int

	Seed uint64

	// Logger defaults to a discarding logger.
	Logger *log.Logger
}

// SetDefaults fills in unset fields.
func (c *Config) SetDefaults() {
	if len(c.Objectives) == 0 {
		c.Objectives = []analyze.Metric{analyze.DependencyLength}
	}
	if c.Epochs == 0 {
		c.Epochs = DefaultEpochs
	}
	if c.Lambda == 0 {
		c.Lambda = DefaultLambda
	}
	if c.Candidates == 0 {
		c.Candidates = DefaultCandidates
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the configuration. It is called by [New] after
// [Config.SetDefaults].
func (c *Config) Validate() error {
	if c.Epochs < 0 || c.BurnIn < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "epochs and burn-in cannot be negative")
	}
	if c.Candidates < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "need at least one candidate, got %d", c.Candidates)
	}
	if c.Changes < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "number of changes cannot be negative")
	}
	if c.Changes == 0 && c.Lambda <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "poisson lambda must be positive, got %v", c.Lambda)
	}
	if c.Weights != nil {
		if len(c.Weights) != len(c.Objectives) {
			return errs.New(errs.ErrCodeInvalidConfig, "got %d objective weights for %d objectives", len(c.Weights), len(c.Objectives))
		}
		total := 0.0
		for _, w := range c.Weights {
			if w < 0 {
				return errs.New(errs.ErrCodeInvalidConfig, "objective weights cannot be negative")
			}
			total += w
		}
		if total == 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "objective weights sum to zero")
		}
	}
	for _, m := range c.Objectives {
		if m == analyze.WordFrequency && c.Analysis.Frequencies == nil {
			return errs.New(errs.ErrCodeMissingResource, "word frequency objective needs a frequency table")
		}
		if m.String() == "unknown" {
			return errs.New(errs.ErrCodeInvalidMetric, "unknown objective %d", int(m))
		}
	}
	return nil
}
