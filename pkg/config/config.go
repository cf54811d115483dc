// Package config reads hill-climb run descriptions from TOML files.
//
// A run file names the training and dev treebanks, the loader settings and
// the optimizer parameters:
//
//	seed = 42
//	epochs = 500
//	burn_in = 50
//	objectives = ["DL", "ICM"]
//	weights = [2.0, 1.0]
//	deprels_file = "deprels.txt"
//
//	[train]
//	dir = "ud"
//	glob = "**/*-train.conllu"
//
//	[dev]
//	dir = "ud"
//	glob = "**/*-dev.conllu"
//
//	[loader]
//	max_len = 40
//	remove = [{ deprel = "punct" }]
//
//	[output]
//	file = "grammars.ndjson"
//	db = "runs.db"
//
// Relative paths are resolved against the directory of the run file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/corpus"
	errs "github.com/matzehuels/wordorder/pkg/errors"
	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/hillclimb"
)

// Corpus locates treebank files.
type Corpus struct {
	Dir  string `toml:"dir"`
	Glob string `toml:"glob"`
}

// IsSet reports whether a directory was given.
func (c Corpus) IsSet() bool {
	return c.Dir != ""
}

// Loader mirrors the loader and cleaner settings.
type Loader struct {
	MinLen    int             `toml:"min_len"`
	MaxLen    int             `toml:"max_len"`
	Remove    []corpus.Filter `toml:"remove"`
	Mask      []string        `toml:"mask"`
	MaskWords bool            `toml:"mask_words"`
}

// Output names where records go.
type Output struct {
	File string `toml:"file"`
	DB   string `toml:"db"`
}

// Run is a complete hill-climb run description.
type Run struct {
	Seed            uint64    `toml:"seed"`
	Epochs          int       `toml:"epochs"`
	BurnIn          int       `toml:"burn_in"`
	Candidates      int       `toml:"candidates"`
	Objectives      []string  `toml:"objectives"`
	Weights         []float64 `toml:"weights"`
	Lambda          float64   `toml:"lambda"`
	Changes         int       `toml:"changes"`
	UniformSampling bool      `toml:"uniform_sampling"`
	CountRoot       bool      `toml:"count_root"`
	Deprels         []string  `toml:"deprels"`
	DeprelsFile     string    `toml:"deprels_file"`
	Baseline        string    `toml:"baseline"`
	Frequencies     string    `toml:"frequencies"`

	// Stream re-reads the treebank files on every pass instead of holding
	// the corpus in memory.
	Stream bool `toml:"stream"`

	Train  Corpus `toml:"train"`
	Dev    Corpus `toml:"dev"`
	Loader Loader `toml:"loader"`
	Output Output `toml:"output"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// DefaultGlob matches every CoNLL-U file below a corpus directory.
const DefaultGlob = "**/*.conllu"

// Load reads and validates a run file.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "run file %s", path)
		}
		return nil, err
	}
	r, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.dir = filepath.Dir(path)
	return r, nil
}

// Parse decodes a run description. Unknown keys are rejected.
func Parse(data string) (*Run, error) {
	var r Run
	md, err := toml.Decode(data, &r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode run file")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	r.SetDefaults()
	return &r, nil
}

// SetDefaults fills in the corpus globs.
func (r *Run) SetDefaults() {
	if r.Train.IsSet() && r.Train.Glob == "" {
		r.Train.Glob = DefaultGlob
	}
	if r.Dev.IsSet() && r.Dev.Glob == "" {
		r.Dev.Glob = DefaultGlob
	}
}

// Path resolves p against the run file's directory.
func (r *Run) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.dir == "" {
		return p
	}
	return filepath.Join(r.dir, p)
}

// Hillclimb builds the optimizer configuration, reading the deprel list,
// baseline grammar and frequency table the run refers to.
func (r *Run) Hillclimb() (hillclimb.Config, error) {
	cfg := hillclimb.Config{
		Weights:         r.Weights,
		Epochs:          r.Epochs,
		BurnIn:          r.BurnIn,
		Lambda:          r.Lambda,
		Changes:         r.Changes,
		UniformSampling: r.UniformSampling,
		Candidates:      r.Candidates,
		Seed:            r.Seed,
		Deprels:         r.Deprels,
		Analysis:        analyze.Options{CountRoot: r.CountRoot},
	}

	if len(r.Objectives) > 0 {
		metrics, err := analyze.ParseMetrics(r.Objectives)
		if err != nil {
			return cfg, err
		}
		cfg.Objectives = metrics
	}

	if r.DeprelsFile != "" {
		deprels, err := ReadDeprelsFile(r.Path(r.DeprelsFile))
		if err != nil {
			return cfg, err
		}
		cfg.Deprels = append(cfg.Deprels, deprels...)
	}

	if r.Baseline != "" {
		grammars, err := grammar.ReadFile(r.Path(r.Baseline))
		if err != nil {
			return cfg, err
		}
		if len(grammars) == 0 {
			return cfg, errs.New(errs.ErrCodeInvalidGrammar, "baseline file %s holds no grammar", r.Baseline)
		}
		cfg.Baseline = grammars[0]
	}

	if r.Frequencies != "" {
		table, err := analyze.ReadFrequencyFile(r.Path(r.Frequencies))
		if err != nil {
			return cfg, errs.Wrap(errs.ErrCodeMissingResource, err, "frequency table %s", r.Frequencies)
		}
		cfg.Analysis.Frequencies = table
	}
	return cfg, nil
}

// CorpusLoader builds the sentence loader.
func (r *Run) CorpusLoader() (*corpus.Loader, error) {
	cleaner, err := corpus.NewCleaner(corpus.CleanerOptions{
		Remove:    r.Loader.Remove,
		Mask:      r.Loader.Mask,
		MaskWords: r.Loader.MaskWords,
	})
	if err != nil {
		return nil, err
	}
	return &corpus.Loader{Cleaner: cleaner, MinLen: r.Loader.MinLen, MaxLen: r.Loader.MaxLen}, nil
}

// Files resolves a corpus section to its files. An unset section gives nil.
func (r *Run) Files(c Corpus) ([]string, error) {
	if !c.IsSet() {
		return nil, nil
	}
	files, err := corpus.Glob(r.Path(c.Dir), c.Glob)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errs.New(errs.ErrCodeFileNotFound, "no files match %s in %s", c.Glob, c.Dir)
	}
	return files, nil
}

// ReadDeprelsFile reads one relation per line, skipping blanks and '#'
// comments.
func ReadDeprelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "deprels file %s", path)
		}
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
