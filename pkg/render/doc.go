// Package render draws dependency trees of CoNLL-U sentences.
//
// # Overview
//
// A sentence is converted to Graphviz DOT with [ToDOT] and rendered in
// process with [RenderSVG]. Two layouts are available:
//
//   - Tree (default): heads above their dependents, words of the same depth
//     kept in sentence order
//   - Linear: all words on one row in sentence order with arcs from heads to
//     dependents, which makes a permutation easy to compare with the original
//
// # Usage
//
//	dot := render.ToDOT(sentence, render.Options{Linear: true})
//	svg, err := render.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG:
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package render
