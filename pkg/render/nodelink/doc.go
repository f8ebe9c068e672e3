// Package nodelink renders a visible graph subset as a static node-link
// diagram.
//
// # Overview
//
// The interactive payload needs a browser. This package produces the same
// subset as Graphviz DOT, with the palette colors and captions used by the
// interactive view, and renders it to SVG in-process. It is the output of
// the render command's dot and svg formats.
//
// # Usage
//
//	dot := nodelink.ToDOT(visible, expanded, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels list the labels and displayable properties
//   - RankDir: Graphviz rank direction, LR by default
//   - Colors: palette override
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
