// Package styles holds the visual constants of graph rendering: the label
// palette, node sizes, display length limits, and the escaping function that
// gates every piece of node data on its way into markup.
package styles

import (
	"html"
	"maps"
)

// DefaultColor is used for labels missing from the palette.
const DefaultColor = "#94a3b8"

// Node sizes in pixels.
const (
	DefaultSize  = 20
	ExpandedSize = 25
)

// Display limits in characters.
const (
	CaptionLimit = 30
	ValueLimit   = 100
)

// ExpandedClass is the element class applied to expanded nodes.
const ExpandedClass = "expanded"

// ColorTable resolves a primary label to a CSS color.
// Implementations must be total: every label, including "", gets a color.
type ColorTable interface {
	Color(label string) string
}

// Fingerprinter is implemented by color tables that can be told apart by a
// stable identifier. Rendered payloads are only cached for tables that are
// a [Palette] or implement it.
type Fingerprinter interface {
	Fingerprint() string
}

// Palette is a fixed label-to-color table with [DefaultColor] as fallback.
type Palette map[string]string

// Color implements [ColorTable].
func (p Palette) Color(label string) string {
	if c, ok := p[label]; ok && c != "" {
		return c
	}
	return DefaultColor
}

// With returns a copy of p with overrides applied.
func (p Palette) With(overrides map[string]string) Palette {
	out := maps.Clone(p)
	if out == nil {
		out = Palette{}
	}
	maps.Copy(out, overrides)
	return out
}

// DefaultPalette colors the entity types produced by document extraction.
var DefaultPalette = Palette{
	"Document":      "#3b82f6",
	"Chunk":         "#8b5cf6",
	"Person":        "#10b981",
	"Organization":  "#f59e0b",
	"Location":      "#ef4444",
	"Event":         "#ec4899",
	"Concept":       "#06b6d4",
	"Technology":    "#8b5cf6",
	"__Community__": "#64748b",
	"__Entity__":    "#94a3b8",
}

// Escape HTML-escapes s. All text drawn from node or relationship data must
// pass through Escape before it is placed in a caption, tooltip, or label.
func Escape(s string) string { return html.EscapeString(s) }

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Size returns the node size for the given expansion state.
func Size(expanded bool) int {
	if expanded {
		return ExpandedSize
	}
	return DefaultSize
}
