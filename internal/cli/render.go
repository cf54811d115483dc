package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wordorder/pkg/conllu"
	"github.com/matzehuels/wordorder/pkg/permute"
	"github.com/matzehuels/wordorder/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file; derived from the input when empty
	format   string // dot, svg, pdf or png
	sentID   string // sentence to draw
	index    int    // 1-based sentence position, used when sentID is empty
	mode     string // permute before drawing
	seed     uint64
	linear   bool
	detailed bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var lf loaderFlags
	opts := renderOpts{format: "svg", index: 1, seed: 42}

	cmd := &cobra.Command{
		Use:   "render [treebank]",
		Short: "Draw the dependency tree of a sentence",
		Long: `Draw the dependency tree of one sentence of a treebank.

The sentence is selected by --sent-id or by position (--index) and cleaned
with the loader flags before it is drawn. With --mode
the sentence is permuted first, so an order produced by a permutation mode
can be compared with the original. --linear draws the words on one row in
sentence order with arcs from heads to dependents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts, &lf)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <input>-<sent_id>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().StringVar(&opts.sentID, "sent-id", "", "id of the sentence to draw")
	cmd.Flags().IntVar(&opts.index, "index", opts.index, "position of the sentence to draw (1-based)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "permute the sentence first: "+strings.Join(permute.Modes(), ", "))
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed for the permutation")
	cmd.Flags().BoolVar(&opts.linear, "linear", false, "draw words on one row in sentence order")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show word ids and UPOS tags")
	lf.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, lf *loaderFlags) error {
	raw, err := selectSentence(input, opts.sentID, opts.index)
	if err != nil {
		return err
	}
	loader, err := lf.loader(c.Logger)
	if err != nil {
		return err
	}
	s, err := loader.Prepare(raw)
	if err != nil {
		return fmt.Errorf("sentence %s: %w", raw.SentID(), err)
	}

	if opts.mode != "" {
		mode, err := permute.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		p, err := permute.New(mode, permute.Options{Rand: rand.New(rand.NewPCG(opts.seed, opts.seed^0xdeadbeef))})
		if err != nil {
			return err
		}
		if s, err = p.Permute(s); err != nil {
			return fmt.Errorf("permute %s: %w", s.SentID(), err)
		}
		c.Logger.Debug("Permuted sentence", "sent_id", s.SentID(), "mode", mode)
	}

	data, err := render.Render(ctx, s, opts.format, render.Options{Linear: opts.linear, Detailed: opts.detailed})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	out := opts.output
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		out = fmt.Sprintf("%s-%s.%s", base, sanitizeID(s.SentID()), opts.format)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s", StyleHighlight.Render(s.SentID()))
	printFile(out)
	return nil
}

// selectSentence reads input and returns the sentence with the given id, or
// the one at the given position when id is empty.
func selectSentence(input, id string, index int) (conllu.Sentence, error) {
	sentences, err := conllu.ReadFile(input)
	if err != nil {
		return conllu.Sentence{}, fmt.Errorf("read %s: %w", input, err)
	}
	if id != "" {
		for _, s := range sentences {
			if s.SentID() == id {
				return s, nil
			}
		}
		return conllu.Sentence{}, fmt.Errorf("no sentence with id %q in %s", id, input)
	}
	if index < 1 || index > len(sentences) {
		return conllu.Sentence{}, fmt.Errorf("index %d out of range: %s has %d sentences", index, input, len(sentences))
	}
	return sentences[index-1], nil
}

func sanitizeID(id string) string {
	if id == "" {
		return "sentence"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, id)
}
