// Package layout selects and parameterizes the client-side layout algorithm
// for a render, and bounds oversized schema graphs.
//
// Layout selection never fails. Unknown names fall back to [Default], dense
// schema graphs are moved off the hierarchical layout, and schema graphs past
// [MaxSchemaNodes] are truncated. Each adjustment is reported as a
// [Diagnostic] for the caller to log.
package layout

import (
	"maps"
	"slices"

	"github.com/matzehuels/graphscope/pkg/graph"
)

// Layout preset names.
const (
	Cola   = "cola"
	Cose   = "cose"
	Dagre  = "dagre"
	Circle = "circle"
	Random = "random"
)

// Default is the preset used when the requested one is unknown.
const Default = Cola

const (
	// DenseSchemaThreshold is the schema node count above which the
	// hierarchical layout is replaced by the circular one.
	DenseSchemaThreshold = 50

	// MaxSchemaNodes bounds the number of nodes rendered in schema view.
	MaxSchemaNodes = 100
)

// Params is the parameter object handed to the client layout engine.
type Params map[string]any

var presets = map[string]Params{
	Cola: {
		"name":                     Cola,
		"animate":                  true,
		"animationDuration":        1000,
		"maxSimulationTime":        4000,
		"ungrabifyWhileSimulating": true,
		"fit":                      true,
		"avoidOverlap":             true,
		"handleDisconnected":       true,
		"convergenceThreshold":     0.01,
		"nodeSpacing":              50,
	},
	Cose: {
		"name":              Cose,
		"animate":           true,
		"animationDuration": 1000,
		"animationEasing":   "ease-out",
		"nodeRepulsion":     400000,
		"idealEdgeLength":   100,
		"edgeElasticity":    100,
		"gravity":           80,
		"numIter":           1000,
		"initialTemp":       200,
		"coolingFactor":     0.95,
		"minTemp":           1.0,
	},
	Dagre: {
		"name":              Dagre,
		"animate":           true,
		"animationDuration": 800,
		"rankDir":           "TB",
		"ranker":            "tight-tree",
		"nodeSep":           50,
		"edgeSep":           10,
		"rankSep":           75,
		"fit":               true,
		"padding":           30,
	},
	Circle: {
		"name":              Circle,
		"animate":           true,
		"animationDuration": 800,
		"animationEasing":   "ease-in-out-cubic",
		"avoidOverlap":      true,
		"startAngle":        4.71238898, // 3π/2, first node at the bottom
		"clockwise":         true,
	},
	Random: {
		"name":    Random,
		"animate": false,
		"fit":     true,
	},
}

var names = []string{Cola, Cose, Dagre, Circle, Random}

// Names returns the preset names in display order.
func Names() []string { return slices.Clone(names) }

// IsKnown reports whether name is a preset.
func IsKnown(name string) bool {
	_, ok := presets[name]
	return ok
}

// Preset returns a copy of the named preset's parameters.
func Preset(name string) (Params, bool) {
	p, ok := presets[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(p), true
}

// Level is the severity of a [Diagnostic].
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

// Diagnostic describes an adjustment made while preparing a render.
// Fields are alternating key/value pairs for structured logging.
type Diagnostic struct {
	Level   Level
	Message string
	Fields  []any
}

// Selection is the resolved layout for one render.
type Selection struct {
	Name        string
	Requested   string
	Params      Params
	Diagnostics []Diagnostic
}

// Select resolves requested to a preset for a graph of nodeCount nodes.
//
// Unknown names resolve to [Default]. In schema view, a graph with more than
// [DenseSchemaThreshold] nodes that would use [Dagre] uses [Circle] instead.
func Select(requested string, mode graph.ViewMode, nodeCount int) Selection {
	sel := Selection{Name: requested, Requested: requested}

	if !IsKnown(requested) {
		sel.Name = Default
		sel.Diagnostics = append(sel.Diagnostics, Diagnostic{
			Level:   LevelWarn,
			Message: "unknown layout, falling back",
			Fields:  []any{"requested", requested, "fallback", Default},
		})
	}

	if mode == graph.ViewSchema && nodeCount > DenseSchemaThreshold && sel.Name == Dagre {
		sel.Name = Circle
		sel.Diagnostics = append(sel.Diagnostics, Diagnostic{
			Level:   LevelInfo,
			Message: "dense schema, using circular layout instead of dagre",
			Fields:  []any{"nodes", nodeCount, "threshold", DenseSchemaThreshold},
		})
	}

	sel.Params, _ = Preset(sel.Name)
	return sel
}

// Cap bounds a schema graph to its first [MaxSchemaNodes] nodes and keeps
// only the relationships between surviving nodes. Data view graphs and
// graphs within the bound are returned unchanged with a nil diagnostic.
func Cap(nodes []graph.Node, edges []graph.Edge, mode graph.ViewMode) ([]graph.Node, []graph.Edge, *Diagnostic) {
	if mode != graph.ViewSchema || len(nodes) <= MaxSchemaNodes {
		return nodes, edges, nil
	}

	kept := nodes[:MaxSchemaNodes:MaxSchemaNodes]
	ids := make(map[string]struct{}, len(kept))
	for _, n := range kept {
		ids[n.ID] = struct{}{}
	}
	return kept, graph.Restrict(edges, ids), &Diagnostic{
		Level:   LevelWarn,
		Message: "schema too large, truncating",
		Fields:  []any{"nodes", len(nodes), "limit", MaxSchemaNodes},
	}
}
