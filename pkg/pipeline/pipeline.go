// Package pipeline runs the permute and analyze tasks over treebank files.
//
// This package is shared by the permute and analyze commands. It resolves the
// input files, builds the permuters and the analyzer from [Options], and
// writes one output file per input file.
//
// # Tasks
//
//   - permute: write every permutation of every sentence as CoNLL-U (.conllu)
//   - analyze: write one metrics record per sentence as NDJSON (.ndjson)
//   - permute-analyze: permute and analyze in one pass, writing only the
//     records (.ndjson)
//
// # Layout
//
// A single input file is written to the given output path. An input
// directory is matched against a glob and every file is written below the
// output directory under the same relative path, with the task's extension.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{
//	    Task:    pipeline.TaskPermuteAnalyze,
//	    Mode:    permute.ModeRandomProjective,
//	    NTimes:  10,
//	    Metrics: []analyze.Metric{analyze.DependencyLength},
//	}
//	result, err := runner.Run(ctx, loader, "treebanks/", "out/", opts)
package pipeline

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/cache"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/permute"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultGlob matches every CoNLL-U file below the input directory.
	DefaultGlob = "**/*.conllu"

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultNTimes is the number of permuters built for a random mode.
	DefaultNTimes = 1
)

// Extensions of the files written by each task.
const (
	ExtCoNLLU = ".conllu"
	ExtNDJSON = ".ndjson"
)

// =============================================================================
// Tasks
// =============================================================================

// Task selects what the pipeline does with each sentence.
type Task int

const (
	TaskPermute Task = iota
	TaskAnalyze
	TaskPermuteAnalyze
)

var taskNames = []string{"permute", "analyze", "permute-analyze"}

func (t Task) String() string {
	if t < 0 || int(t) >= len(taskNames) {
		return fmt.Sprintf("Task(%d)", int(t))
	}
	return taskNames[t]
}

// Permutes reports whether the task permutes sentences.
func (t Task) Permutes() bool {
	return t == TaskPermute || t == TaskPermuteAnalyze
}

// Analyzes reports whether the task writes metric records.
func (t Task) Analyzes() bool {
	return t == TaskAnalyze || t == TaskPermuteAnalyze
}

// Extension returns the extension of the files the task writes.
func (t Task) Extension() string {
	if t == TaskPermute {
		return ExtCoNLLU
	}
	return ExtNDJSON
}

// ParseTask converts a task name.
func ParseTask(name string) (Task, error) {
	for i, n := range taskNames {
		if n == name {
			return Task(i), nil
		}
	}
	return 0, errs.Choice(errs.ErrCodeInvalidInput, "task", name, taskNames)
}

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	Task Task

	// Permute options
	Mode     permute.Mode
	NTimes   int               // permuters for a random mode
	Grammars []grammar.Grammar // one fixed_order permuter per grammar
	Ties     permute.TiePolicy
	Seed     uint64
	IDPrefix string // prepended to every permuted sent_id

	// Analyze options
	Metrics        []analyze.Metric
	Analysis       analyze.Options
	CountDirection bool
	Tokenwise      bool

	// Input options
	Glob string

	// Cache options
	Refresh       bool   // recompute and overwrite cached results
	LoaderKey     string // describes the loader settings in cache keys
	FrequencyHash string // content hash of the frequency table, if any

	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.NTimes == 0 {
		o.NTimes = DefaultNTimes
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Glob == "" {
		o.Glob = DefaultGlob
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks that the options describe a runnable task.
func (o *Options) Validate() error {
	if o.Task < TaskPermute || o.Task > TaskPermuteAnalyze {
		return errs.New(errs.ErrCodeInvalidInput, "unknown task %d", int(o.Task))
	}
	if err := errs.ValidateGlob(o.Glob); err != nil {
		return err
	}

	if o.Task.Permutes() {
		if err := errs.ValidateIDPrefix(o.IDPrefix); err != nil {
			return err
		}
		if o.NTimes < 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "n_times must be positive, got %d", o.NTimes)
		}
		if o.Mode == permute.ModeFixedOrder && len(o.Grammars) == 0 {
			return errs.New(errs.ErrCodeMissingResource, "fixed_order needs at least one grammar")
		}
		if o.Mode != permute.ModeFixedOrder && len(o.Grammars) > 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "grammars can only be used with fixed_order, not %s", o.Mode)
		}
		if len(o.Grammars) > 0 && o.NTimes > 1 {
			return errs.New(errs.ErrCodeInvalidConfig, "n_times and grammars cannot be combined")
		}
	}

	if o.Task.Analyzes() {
		if len(o.Metrics) == 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "at least one metric is required")
		}
		for _, m := range o.Metrics {
			if m == analyze.WordFrequency && o.Analysis.Frequencies == nil {
				return errs.New(errs.ErrCodeMissingResource, "word frequency needs a frequency table")
			}
		}
	}
	return nil
}

// Permuters builds the permuters of the run. Random modes get NTimes
// permuters with independent random sources drawn from Seed; fixed_order
// gets one permuter per grammar. With more than one permuter, each prefixes
// sent_ids with IDPrefix and its index so the outputs stay distinguishable.
func (o *Options) Permuters() ([]permute.Permuter, error) {
	master := rand.New(rand.NewPCG(o.Seed, o.Seed^0xdeadbeef))

	var perms []permute.Permuter
	if o.Mode == permute.ModeFixedOrder {
		for _, g := range o.Grammars {
			p, err := permute.NewFixedOrder(g)
			if err != nil {
				return nil, err
			}
			perms = append(perms, p)
		}
	} else {
		n := max(o.NTimes, 1)
		if n > 1 && !o.Mode.Random() && o.Ties != permute.TieShuffle && o.Logger != nil {
			o.Logger.Warn("mode is deterministic, repeated permuters write identical orders", "mode", o.Mode, "n_times", n)
		}
		for range n {
			rng := rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
			p, err := permute.New(o.Mode, permute.Options{Rand: rng, Ties: o.Ties})
			if err != nil {
				return nil, err
			}
			perms = append(perms, p)
		}
	}

	out := make([]permute.Permuter, len(perms))
	for i, p := range perms {
		prefix := o.IDPrefix
		if len(perms) > 1 {
			prefix = fmt.Sprintf("%s%d_", o.IDPrefix, i)
		}
		out[i] = permute.Prefixed{Permuter: p, Prefix: prefix}
	}
	return out, nil
}

// Analyzer builds the sentence analyzer of the run.
func (o *Options) Analyzer() (*analyze.SentenceAnalyzer, error) {
	a, err := analyze.NewSentenceAnalyzer(o.Metrics, o.Analysis)
	if err != nil {
		return nil, err
	}
	a.CountDirection = o.CountDirection
	a.Tokenwise = o.Tokenwise
	return a, nil
}

// AnalysisKeyOpts returns cache key options for the analyze task.
func (o *Options) AnalysisKeyOpts() cache.AnalysisKeyOpts {
	names := make([]string, len(o.Metrics))
	for i, m := range o.Metrics {
		names[i] = m.String()
	}
	return cache.AnalysisKeyOpts{
		Metrics:        names,
		CountRoot:      o.Analysis.CountRoot,
		CountDirection: o.CountDirection,
		Tokenwise:      o.Tokenwise,
		Loader:         o.LoaderKey,
		FrequencyHash:  o.FrequencyHash,
	}
}
