// Package render turns a visible graph subset into something a person can
// look at.
//
// # Overview
//
// The rendering pipeline runs in four steps, one subpackage each:
//
//   - [styles]: palette, escaping, and size constants shared by every output
//   - [elements]: maps nodes and relationships to styled visual elements
//   - [layout]: resolves a layout preset and bounds oversized schema graphs
//   - [payload]: emits the self-contained interactive HTML document
//
// [nodelink] is a static alternative to the interactive payload: it writes
// the mapped elements as Graphviz DOT and renders SVG in-process.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
package render
