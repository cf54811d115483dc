package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/analyze"
	"github.com/matzehuels/wordorder/pkg/cache"
	"github.com/matzehuels/wordorder/pkg/corpus"
	"github.com/matzehuels/wordorder/pkg/pipeline"
)

// metricFlags are the analysis flags shared by analyze and permute --analyze.
type metricFlags struct {
	metrics        []string
	countRoot      bool
	countDirection bool
	tokenwise      bool
	frequencies    string
}

func (f *metricFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.metrics, "metrics", "m", []string{analyze.DependencyLength.String()},
		"metrics to compute: "+strings.Join(analyze.Metrics(), ", "))
	cmd.Flags().BoolVar(&f.countRoot, "count-root", false, "count the root word, measured from position 0")
	cmd.Flags().BoolVar(&f.countDirection, "count-direction", false, "also report left and right sums")
	cmd.Flags().BoolVar(&f.tokenwise, "tokenwise", false, "also report the signed value of every word")
	cmd.Flags().StringVar(&f.frequencies, "frequencies", "", "TSV word frequency table, required by the word frequency metric")
}

// apply fills the analysis fields of opts.
func (f *metricFlags) apply(opts *pipeline.Options) error {
	metrics, err := analyze.ParseMetrics(f.metrics)
	if err != nil {
		return err
	}
	opts.Metrics = metrics
	opts.Analysis.CountRoot = f.countRoot
	opts.CountDirection = f.countDirection
	opts.Tokenwise = f.tokenwise

	if f.frequencies != "" {
		data, err := os.ReadFile(f.frequencies)
		if err != nil {
			return fmt.Errorf("read frequency table: %w", err)
		}
		table, err := analyze.ReadFrequencyTable(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", f.frequencies, err)
		}
		opts.Analysis.Frequencies = table
		opts.FrequencyHash = cache.Hash(data)
	}
	return nil
}

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		summary bool
		entropy bool
		lf      loaderFlags
		mf      metricFlags
	)
	opts := pipeline.Options{Task: pipeline.TaskAnalyze}

	cmd := &cobra.Command{
		Use:   "analyze [treebank or directory]",
		Short: "Compute word order metrics for every sentence",
		Long: `Compute word order metrics for every sentence of a treebank.

Each sentence produces one JSON record with its id, its length and the sum of
every metric. A directory is searched with --glob and every match is written
below the output directory with an .ndjson extension.

Results are cached by file content and options; use --no-cache to disable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			if err := mf.apply(&opts); err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), args[0], output, opts, &lf, noCache, summary, entropy)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or directory for a directory input")
	cmd.Flags().StringVar(&opts.Glob, "glob", pipeline.DefaultGlob, "pattern selecting files below a directory input")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute cached results")
	cmd.Flags().BoolVar(&summary, "summary", false, "print treebank means after the run")
	cmd.Flags().BoolVar(&entropy, "entropy", false, "print the head direction entropy of the input")
	mf.register(cmd)
	lf.register(cmd)

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, input, output string, opts pipeline.Options, lf *loaderFlags, noCache, summary, entropy bool) error {
	loader, err := lf.loader(c.Logger)
	if err != nil {
		return err
	}
	if opts.LoaderKey, err = lf.key(); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	result, err := c.runPipeline(ctx, runner, loader, input, output, opts)
	if err != nil {
		return err
	}

	if summary {
		if err := printSummary(result); err != nil {
			return err
		}
	}
	if entropy {
		inputs := make([]string, len(result.Files))
		for i, f := range result.Files {
			inputs[i] = f.Input
		}
		// a fresh loader keeps the run's statistics intact
		el, err := lf.loader(nil)
		if err != nil {
			return err
		}
		if err := printEntropy(corpus.NewFileSource(el, inputs...)); err != nil {
			return err
		}
	}
	return nil
}

// runPipeline runs the pipeline behind a spinner and prints the written files.
func (c *CLI) runPipeline(ctx context.Context, runner *pipeline.Runner, loader *corpus.Loader, input, output string, opts pipeline.Options) (*pipeline.Result, error) {
	prog := newProgress(c.Logger)
	sp := newSpinner(ctx, os.Stderr, fmt.Sprintf("Running %s...", opts.Task))
	sp.Start()

	result, err := runner.Run(ctx, loader, input, output, opts)
	if err != nil {
		sp.StopWithError(fmt.Sprintf("%s failed", opts.Task))
		return nil, fmt.Errorf("%s: %w", opts.Task, err)
	}
	sp.Stop()

	unit := "records"
	if opts.Task == pipeline.TaskPermute {
		unit = "sentences"
	}
	for _, f := range result.Files {
		printFile(f.Output)
		printStats(f.Written, unit, f.CacheHit)
	}
	stats := result.Loader
	prog.done(fmt.Sprintf("Processed %d files: %d sentences read, %d rejected", len(result.Files), stats.Read, stats.Rejected))
	return result, nil
}

// printSummary reads back the records of the run and prints their means.
func printSummary(result *pipeline.Result) error {
	sum := analyze.NewSummarizer()
	for _, f := range result.Files {
		fh, err := os.Open(f.Output)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(fh)
		for dec.More() {
			var rec analyze.Record
			if err := dec.Decode(&rec); err != nil {
				fh.Close()
				return fmt.Errorf("%s: %w", f.Output, err)
			}
			sum.Add(rec)
		}
		fh.Close()
	}

	s := sum.Summary()
	printNewline()
	printKeyValue("sentences", fmt.Sprint(s.Sentences))
	printKeyValue("words", fmt.Sprint(s.Words))
	for _, label := range slices.Sorted(maps.Keys(s.Means)) {
		printKeyValue(label, fmt.Sprintf("%.4f", s.Means[label]))
	}
	if s.DependencyLengthRate > 0 {
		printKeyValue("DL rate", fmt.Sprintf("%.4f", s.DependencyLengthRate))
	}
	if s.DependencyLengthDeviationRate > 0 {
		printKeyValue("DL dev rate", fmt.Sprintf("%.4f", s.DependencyLengthDeviationRate))
	}
	return nil
}

func printEntropy(src corpus.Source) error {
	m := analyze.NewDirectionEntropy()
	for s, err := range src.Sentences() {
		if err != nil {
			return err
		}
		m.Fit(s)
	}
	printNewline()
	printKeyValue("entropy", fmt.Sprintf("%.4f nats", m.Entropy()))
	labels := m.LabelEntropies()
	for _, label := range slices.Sorted(maps.Keys(labels)) {
		printDetail("%-12s %.4f bits", label, labels[label])
	}
	return nil
}
