package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render/elements"
	"github.com/matzehuels/graphscope/pkg/render/styles"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the labels and displayable properties to node labels.
	// When false, only the caption is shown.
	Detailed bool

	// RankDir is the Graphviz rank direction (TB, LR, BT, RL). Defaults to LR.
	RankDir string

	// Colors resolves fill colors. Defaults to [styles.DefaultPalette].
	Colors styles.ColorTable
}

// ToDOT converts a visible subset to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Expanded nodes get a bold outline. Relationships are written only when
// both endpoints are in g.
func ToDOT(g graph.Graph, expanded graph.ExpansionSet, opts Options) string {
	colors := opts.Colors
	if colors == nil {
		colors = styles.DefaultPalette
	}
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fontname=\"Helvetica\", fontsize=12, fontcolor=white, color=white];\n")
	buf.WriteString("  edge [color=\"#888888\", fontname=\"Helvetica\", fontsize=9, arrowsize=0.8];\n")
	buf.WriteString("\n")

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
		attrs := fmtAttrs(n, expanded.Has(n.ID), fmtLabel(n, opts.Detailed), colors)
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if !src || !dst {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", quote(e.Source), quote(e.Target), quote(e.Type))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	caption := styles.Truncate(elements.Caption(n), styles.CaptionLimit)
	if !detailed {
		return caption
	}

	parts := []string{caption}
	if len(n.Labels) > 0 {
		parts = append(parts, strings.Join(n.Labels, ", "))
	}
	for _, p := range n.Properties {
		if graph.IsReservedKey(p.Key) || !p.Value.Truthy() {
			continue
		}
		parts = append(parts, p.Key+": "+styles.Truncate(p.Value.String(), styles.CaptionLimit))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, expanded bool, label string, colors styles.ColorTable) []string {
	attrs := []string{
		"label=" + quote(label),
		"fillcolor=" + quote(colors.Color(n.PrimaryLabel())),
	}
	if expanded {
		attrs = append(attrs, "penwidth=3", "color=\"#3b82f6\"")
	}
	return attrs
}

// quote returns s as a DOT double-quoted string.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")
	return `"` + r.Replace(s) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// render.ToPDF or render.ToPNG.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
