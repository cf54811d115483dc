package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/permute"
	"github.com/matzehuels/wordorder/pkg/pipeline"
)

// permuteCommand creates the permute command.
func (c *CLI) permuteCommand() *cobra.Command {
	var (
		output       string
		mode         string
		grammarsFile string
		shuffleTies  bool
		withAnalysis bool
		lf           loaderFlags
		mf           metricFlags
	)
	opts := pipeline.Options{Task: pipeline.TaskPermute}

	cmd := &cobra.Command{
		Use:   "permute [treebank or directory]",
		Short: "Reorder the words of every sentence",
		Long: `Reorder the words of every sentence of a treebank.

Random modes can be repeated with --n-times; fixed_order builds one permuter
per grammar in --grammars. With more than one permuter every sentence id is
prefixed with the permuter's index.

With --analyze the permuted sentences are not written; their metrics are
written as NDJSON instead, as the analyze command would.

Modes: ` + strings.Join(permute.Modes(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			m, err := permute.ParseMode(mode)
			if err != nil {
				return err
			}
			opts.Mode = m
			if shuffleTies {
				opts.Ties = permute.TieShuffle
			}
			if grammarsFile != "" {
				if opts.Grammars, err = grammar.ReadFile(grammarsFile); err != nil {
					return fmt.Errorf("load grammars: %w", err)
				}
			}
			if withAnalysis {
				opts.Task = pipeline.TaskPermuteAnalyze
				if err := mf.apply(&opts); err != nil {
					return err
				}
			}
			return c.runPermute(cmd.Context(), args[0], output, opts, &lf)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or directory for a directory input")
	cmd.Flags().StringVar(&mode, "mode", permute.ModeRandomProjective.String(), "permutation mode")
	cmd.Flags().IntVarP(&opts.NTimes, "n-times", "n", pipeline.DefaultNTimes, "number of permuters for a random mode")
	cmd.Flags().StringVar(&grammarsFile, "grammars", "", "NDJSON grammars for fixed_order, one permuter each")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed for reproducibility")
	cmd.Flags().BoolVar(&shuffleTies, "shuffle-ties", false, "order tied dependents at random in the optimal modes")
	cmd.Flags().StringVar(&opts.IDPrefix, "id-prefix", "", "prefix for every permuted sentence id")
	cmd.Flags().StringVar(&opts.Glob, "glob", pipeline.DefaultGlob, "pattern selecting files below a directory input")
	cmd.Flags().BoolVar(&withAnalysis, "analyze", false, "write metrics of the permuted sentences instead of the sentences")
	mf.register(cmd)
	lf.register(cmd)

	return cmd
}

func (c *CLI) runPermute(ctx context.Context, input, output string, opts pipeline.Options, lf *loaderFlags) error {
	loader, err := lf.loader(c.Logger)
	if err != nil {
		return err
	}

	// permutations are random, so nothing is cached
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	_, err = c.runPipeline(ctx, runner, loader, input, output, opts)
	return err
}
