package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/grammar"
	"github.com/matzehuels/wordorder/pkg/hillclimb"
	"github.com/matzehuels/wordorder/pkg/store"
)

// grammarsCommand creates the grammars command for working with stored runs.
func (c *CLI) grammarsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammars",
		Short: "Inspect stored hill-climb runs and export their grammars",
	}

	cmd.AddCommand(c.grammarsRunsCommand())
	cmd.AddCommand(c.grammarsExportCommand())

	return cmd
}

// grammarsRunsCommand creates the "grammars runs" subcommand.
func (c *CLI) grammarsRunsCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs of a run store, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(db)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs in %s", db)
				return nil
			}
			for _, r := range runs {
				printKeyValue(r.ID[:8], fmt.Sprintf("%s  %s", r.CreatedAt.Local().Format("2006-01-02 15:04"), StyleDim.Render(fmt.Sprintf("%d records", r.Records))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite run store")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// grammarsExportCommand creates the "grammars export" subcommand.
func (c *CLI) grammarsExportCommand() *cobra.Command {
	var (
		db        string
		runID     string
		candidate int
		output    string
		last      bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the accepted grammars of a run as NDJSON",
		Long: `Write the accepted grammars of a run as NDJSON, one grammar per line in
the order they were accepted. The output can be passed to
'permute --mode fixed_order --grammars'.

The run id may be abbreviated to its first 8 characters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), db, runID, candidate, last, output)
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite run store")
	cmd.Flags().StringVar(&runID, "run", "", "run id or unique prefix")
	cmd.Flags().IntVar(&candidate, "candidate", -1, "only this candidate (default all)")
	cmd.Flags().BoolVar(&last, "last", false, "only the last accepted grammar of every candidate")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func (c *CLI) runExport(ctx context.Context, db, runID string, candidate int, last bool, output string) error {
	st, err := openStore(db)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Run(ctx, runID)
	if err != nil {
		return err
	}

	var grammars []grammar.Grammar
	if last {
		grammars, err = lastAccepted(ctx, st, run.ID, candidate)
	} else {
		grammars, err = st.AcceptedGrammars(ctx, run.ID, candidate)
	}
	if err != nil {
		return err
	}
	if len(grammars) == 0 {
		c.Logger.Warn("Run has no accepted grammars", "run", run.ID)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := grammar.Write(w, grammars); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Exported %d grammars", len(grammars))
		printFile(output)
	}
	return nil
}

// lastAccepted returns the final grammar of every candidate that accepted
// at least one step, in candidate order.
func lastAccepted(ctx context.Context, st *store.Store, runID string, candidate int) ([]grammar.Grammar, error) {
	records, err := st.Records(ctx, runID, hillclimb.StageTrain)
	if err != nil {
		return nil, err
	}
	final := map[int]grammar.Grammar{}
	maxCandidate := -1
	for _, rec := range records {
		if rec.Accepted && (candidate < 0 || rec.Candidate == candidate) {
			final[rec.Candidate] = rec.Grammar
			maxCandidate = max(maxCandidate, rec.Candidate)
		}
	}
	var out []grammar.Grammar
	for i := 0; i <= maxCandidate; i++ {
		if g, ok := final[i]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func openStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return store.Open(path)
}
