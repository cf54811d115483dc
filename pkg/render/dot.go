package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/wordorder/pkg/conllu"
	errs "github.com/matzehuels/wordorder/pkg/errors"
)

// Options configures dependency tree rendering.
type Options struct {
	// Detailed adds the word id and UPOS tag to every label.
	Detailed bool

	// Linear puts all words on one row in sentence order.
	Linear bool
}

// ToDOT converts the words of s to Graphviz DOT. Edges run from head to
// dependent and are labelled with the dependency relation; the root word
// gets an edge from a ROOT node.
func ToDOT(s conllu.Sentence, opts Options) string {
	words := s.Words()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Linear {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ordering=out;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [fontsize=12, fontcolor=dimgrey];\n")
	if id := s.SentID(); id != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", id)
	}
	buf.WriteString("\n")

	buf.WriteString("  \"root\" [label=\"ROOT\", shape=plaintext, style=\"\"];\n")
	for _, t := range words {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(t.ID), strings.Join(fmtAttrs(t, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	if opts.Linear {
		// an invisible chain fixes the left-to-right order
		chain := []string{strconv.Quote("root")}
		for _, t := range words {
			chain = append(chain, strconv.Quote(nodeID(t.ID)))
		}
		fmt.Fprintf(&buf, "  %s [style=invis, weight=100];\n", strings.Join(chain, " -> "))
	}

	// Edges are written per head in sentence order so ordering=out keeps
	// siblings left to right.
	for _, t := range words {
		if t.Head == 0 {
			fmt.Fprintf(&buf, "  \"root\" -> %q [%s];\n", nodeID(t.ID), edgeAttrs(t, opts.Linear))
		}
	}
	for _, h := range words {
		for _, t := range words {
			if t.Head == h.ID {
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", nodeID(h.ID), nodeID(t.ID), edgeAttrs(t, opts.Linear))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(id int) string {
	return "w" + strconv.Itoa(id)
}

func fmtLabel(t conllu.Token, detailed bool) string {
	form := t.Form
	if form == "" {
		form = "_"
	}
	if !detailed {
		return form
	}
	upos := t.UPOS
	if upos == "" {
		upos = "_"
	}
	return fmt.Sprintf("%s\n%d: %s", form, t.ID, upos)
}

func fmtAttrs(t conllu.Token, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(t, detailed))}
	if t.Head == 0 {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

func edgeAttrs(t conllu.Token, linear bool) string {
	deprel := t.Deprel
	if deprel == "" {
		deprel = "_"
	}
	attrs := []string{fmt.Sprintf("label=%q", deprel)}
	if linear {
		attrs = append(attrs, "constraint=false")
	}
	return strings.Join(attrs, ", ")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg tag so the drawing starts at the origin
// and has explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Render produces the sentence in the given format, one of [Formats].
func Render(ctx context.Context, s conllu.Sentence, format string, opts Options) ([]byte, error) {
	if !slices.Contains(Formats, format) {
		return nil, errs.Choice(errs.ErrCodeInvalidInput, "format", format, Formats)
	}
	dot := ToDOT(s, opts)
	if format == "dot" {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case "svg":
		return svg, nil
	case "pdf":
		return ToPDF(ctx, svg)
	}
	return ToPNG(ctx, svg, 2.0)
}
