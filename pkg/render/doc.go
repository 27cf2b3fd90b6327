// Package render draws a computed pedigree layout for inspection.
//
// # Overview
//
// The output is a diagnostic picture of the layout grid, not a styled
// pedigree chart: [ToDOT] turns an [align.Layout] into a Graphviz graph
// whose nodes are pinned to the refined positions, and [RenderSVG] runs
// it through the neato engine, which respects pinned positions.
//
//	dot := render.ToDOT(layout, p, render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Drawing conventions
//
//   - Males are boxes, females ellipses, unknown sex diamonds
//   - Spouses are joined by a line, consanguineous spouses by a double line
//   - Children hang from a point on their parents' marriage line
//   - Twins are joined by a dashed line labelled MZ, DZ or ?
//   - An individual drawn more than once has its copies joined by a dotted line
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert SVG output with the external rsvg-convert
// tool (from librsvg).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package render
