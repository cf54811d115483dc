package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/config"
	"github.com/matzehuels/wordorder/pkg/corpus"
	"github.com/matzehuels/wordorder/pkg/hillclimb"
	"github.com/matzehuels/wordorder/pkg/observability"
	"github.com/matzehuels/wordorder/pkg/store"
)

// hillclimbFlags mirror the keys of a run file. A flag that is set
// overrides the file.
type hillclimbFlags struct {
	config.Run
	loader loaderFlags
}

// hillclimbCommand creates the hillclimb command.
func (c *CLI) hillclimbCommand() *cobra.Command {
	var (
		configPath string
		f          hillclimbFlags
	)

	cmd := &cobra.Command{
		Use:   "hillclimb",
		Short: "Optimize ordering grammars on a training treebank",
		Long: `Optimize ordering grammars on a training treebank.

Every epoch perturbs the weights of a few dependency relations of each
candidate grammar, linearizes the training treebank with the perturbed
grammar and keeps the change if the weighted objectives improve. Records of
every step are written as NDJSON (--output, or stdout) and, with --db, to a
SQLite run store from which accepted grammars can be exported later.

A run can be described in a TOML file (--config); flags override its values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := &config.Run{}
			if configPath != "" {
				var err error
				if run, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if err := f.override(cmd, run, configPath != ""); err != nil {
				return err
			}
			return c.runHillclimb(cmd.Context(), run)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML run file")
	f.register(cmd)

	return cmd
}

func (f *hillclimbFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.Train.Dir, "train", "", "training treebank directory")
	fs.StringVar(&f.Train.Glob, "train-glob", config.DefaultGlob, "pattern selecting training files")
	fs.StringVar(&f.Dev.Dir, "dev", "", "dev treebank directory")
	fs.StringVar(&f.Dev.Glob, "dev-glob", config.DefaultGlob, "pattern selecting dev files")
	fs.IntVar(&f.Epochs, "epochs", hillclimb.DefaultEpochs, "training epochs")
	fs.IntVar(&f.BurnIn, "burn-in", hillclimb.DefaultBurnIn, "epochs of unconditional perturbation before training")
	fs.IntVar(&f.Candidates, "candidates", hillclimb.DefaultCandidates, "grammars optimized side by side")
	fs.Uint64Var(&f.Seed, "seed", hillclimb.DefaultSeed, "random seed for reproducibility")
	fs.StringSliceVar(&f.Objectives, "objectives", []string{analyze.DependencyLength.String()}, "metrics to minimize: "+strings.Join(analyze.Metrics(), ", "))
	fs.Float64SliceVar(&f.Weights, "weights", nil, "weight of every objective (default all 1)")
	fs.Float64Var(&f.Lambda, "lambda", hillclimb.DefaultLambda, "mean number of relations perturbed per step")
	fs.IntVar(&f.Changes, "changes", 0, "perturb exactly this many relations per step instead of sampling")
	fs.BoolVar(&f.UniformSampling, "uniform-sampling", false, "sample relations uniformly instead of by frequency")
	fs.BoolVar(&f.CountRoot, "count-root", false, "count the root word in the objectives")
	fs.StringVar(&f.DeprelsFile, "deprels", "", "file with the relations to optimize, one per line")
	fs.StringVar(&f.Baseline, "baseline", "", "NDJSON file whose first grammar is scored before training")
	fs.StringVar(&f.Frequencies, "frequencies", "", "TSV word frequency table for the word frequency objective")
	fs.BoolVar(&f.Stream, "stream", false, "re-read the treebank files every epoch instead of loading them into memory")
	fs.StringVarP(&f.Output.File, "output", "o", "", "NDJSON file for the training records (default stdout)")
	fs.StringVar(&f.Output.DB, "db", "", "SQLite run store")
	f.loader.register(cmd)
}

// override copies every flag that was set into run, or every flag when
// there is no run file. Paths given on the command line are relative to the
// working directory.
func (f *hillclimbFlags) override(cmd *cobra.Command, run *config.Run, fromFile bool) error {
	fs := cmd.Flags()
	set := fs.Changed
	if !fromFile {
		set = func(string) bool { return true }
	}
	abs := func(p string) (string, error) {
		if p == "" {
			return p, nil
		}
		return filepath.Abs(p)
	}

	var err error
	if set("train") {
		if run.Train.Dir, err = abs(f.Train.Dir); err != nil {
			return err
		}
	}
	if set("train-glob") || (run.Train.Glob == "" && run.Train.IsSet()) {
		run.Train.Glob = f.Train.Glob
	}
	if set("dev") {
		if run.Dev.Dir, err = abs(f.Dev.Dir); err != nil {
			return err
		}
	}
	if set("dev-glob") || (run.Dev.Glob == "" && run.Dev.IsSet()) {
		run.Dev.Glob = f.Dev.Glob
	}
	if set("epochs") {
		run.Epochs = f.Epochs
	}
	if set("burn-in") {
		run.BurnIn = f.BurnIn
	}
	if set("candidates") {
		run.Candidates = f.Candidates
	}
	if set("seed") {
		run.Seed = f.Seed
	}
	if set("objectives") {
		run.Objectives = f.Objectives
	}
	if set("weights") {
		run.Weights = f.Weights
	}
	if set("lambda") {
		run.Lambda = f.Lambda
	}
	if set("changes") {
		run.Changes = f.Changes
	}
	if set("uniform-sampling") {
		run.UniformSampling = f.UniformSampling
	}
	if set("count-root") {
		run.CountRoot = f.CountRoot
	}
	if set("stream") {
		run.Stream = f.Stream
	}
	for name, dst := range map[string]*string{
		"deprels":     &run.DeprelsFile,
		"baseline":    &run.Baseline,
		"frequencies": &run.Frequencies,
		"output":      &run.Output.File,
		"db":          &run.Output.DB,
	} {
		if !set(name) {
			continue
		}
		v, _ := fs.GetString(name)
		if *dst, err = abs(v); err != nil {
			return err
		}
	}

	if set("min-len") {
		run.Loader.MinLen = f.loader.minLen
	}
	if set("max-len") {
		run.Loader.MaxLen = f.loader.maxLen
	}
	if set("remove") && f.loader.removeFile != "" {
		filters, err := corpus.ReadFiltersFile(f.loader.removeFile)
		if err != nil {
			return err
		}
		run.Loader.Remove = filters
	}
	if set("mask") {
		run.Loader.Mask = f.loader.mask
	}
	if set("mask-words") {
		run.Loader.MaskWords = f.loader.maskWords
	}
	return nil
}

func (c *CLI) runHillclimb(ctx context.Context, run *config.Run) error {
	if !run.Train.IsSet() {
		return fmt.Errorf("a training treebank is required (--train or [train] in the run file)")
	}

	cfg, err := run.Hillclimb()
	if err != nil {
		return err
	}
	cfg.Logger = c.Logger
	cfg.SetDefaults()

	loader, err := run.CorpusLoader()
	if err != nil {
		return err
	}
	loader.Logger = c.Logger

	train, err := c.loadCorpus(run, run.Train, loader, "training")
	if err != nil {
		return err
	}
	var dev corpus.Source
	if run.Dev.IsSet() {
		if dev, err = c.loadCorpus(run, run.Dev, loader, "dev"); err != nil {
			return err
		}
	}

	opt, err := hillclimb.New(cfg)
	if err != nil {
		return err
	}

	sinks, closeSinks, runID, err := c.openSinks(ctx, run)
	if err != nil {
		return err
	}
	defer closeSinks()

	observability.SetTrainingHooks(newTrainingProgress(c.Logger, cfg.Epochs))
	defer observability.SetTrainingHooks(observability.NoopTrainingHooks{})

	err = opt.Train(ctx, train, dev, func(rec hillclimb.Record) error {
		for _, emit := range sinks {
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hillclimb: %w", err)
	}

	if run.Output.File == "" {
		// stdout carries the records
		if runID != "" {
			c.Logger.Info("Stored run", "id", runID, "db", run.Output.DB)
		}
		return nil
	}
	if runID != "" {
		printSuccess("Stored run %s", StyleHighlight.Render(runID))
		printDetail("Database: %s", run.Output.DB)
		printNextStep("Export accepted grammars", fmt.Sprintf("%s grammars export --db %s --run %s", appName, run.Output.DB, runID[:8]))
	}
	printFile(run.Output.File)
	return nil
}

// loadCorpus opens a corpus section. By default the sentences are read into
// memory once; with streaming every epoch re-reads the files.
func (c *CLI) loadCorpus(run *config.Run, section config.Corpus, loader *corpus.Loader, name string) (corpus.Source, error) {
	files, err := run.Files(section)
	if err != nil {
		return nil, err
	}
	if run.Stream {
		c.Logger.Info("Streaming "+name+" treebank", "files", len(files))
		return corpus.NewFileSource(loader, files...), nil
	}
	before := loader.Stats()
	src, err := corpus.Materialize(corpus.NewFileSource(loader, files...))
	if err != nil {
		return nil, err
	}
	after := loader.Stats()
	c.Logger.Info("Loaded "+name+" treebank",
		"files", len(files),
		"sentences", len(src),
		"rejected", after.Rejected-before.Rejected)
	return src, nil
}

// openSinks opens the record outputs of the run: an NDJSON stream and,
// optionally, the run store.
func (c *CLI) openSinks(ctx context.Context, run *config.Run) (sinks []func(hillclimb.Record) error, closeAll func(), runID string, err error) {
	var closers []func() error
	closeAll = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				c.Logger.Warn("close output", "error", err)
			}
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	var w io.Writer = os.Stdout
	if run.Output.File != "" {
		fh, err := os.Create(run.Output.File)
		if err != nil {
			return nil, nil, "", err
		}
		closers = append(closers, fh.Close)
		w = fh
	}
	bw := bufio.NewWriter(w)
	closers = append(closers, bw.Flush)
	enc := json.NewEncoder(bw)
	sinks = append(sinks, func(rec hillclimb.Record) error {
		if err := enc.Encode(rec); err != nil {
			return err
		}
		// flush per record so an interrupted run keeps its progress
		return bw.Flush()
	})

	if run.Output.DB != "" {
		st, err := store.Open(run.Output.DB)
		if err != nil {
			return nil, nil, "", err
		}
		closers = append(closers, st.Close)
		r, err := st.CreateRun(ctx, run)
		if err != nil {
			return nil, nil, "", err
		}
		runID = r.ID
		c.Logger.Info("Recording run", "id", runID, "db", run.Output.DB)
		sinks = append(sinks, st.Recorder(ctx, runID))
	}
	return sinks, closeAll, runID, nil
}
