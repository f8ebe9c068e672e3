// Package elements maps graph records to styled visual elements in the
// Cytoscape.js element format.
//
// Every string taken from node or relationship data is passed through
// [styles.Escape] before it reaches a caption, tooltip, or edge label.
// Element ids are the raw element ids: they are data keys, never markup,
// and are neutralized later by the payload's script-safe JSON encoding.
package elements

import (
	"strings"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/render/styles"
)

// FallbackCaption is shown for nodes with no caption property and no label.
const FallbackCaption = "Node"

// captionKeys are tried in order when resolving a node caption.
var captionKeys = []string{"id", "name", "fileName"}

// NodeData is the data record of a visual node.
type NodeData struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Labels   []string `json:"labels"`
	Color    string   `json:"color"`
	Size     int      `json:"size"`
	Tooltip  string   `json:"tooltip"`
	Expanded bool     `json:"expanded"`
}

// Node is a visual node.
type Node struct {
	Data    NodeData `json:"data"`
	Classes string   `json:"classes"`
}

// EdgeData is the data record of a visual edge.
type EdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Edge is a visual edge.
type Edge struct {
	Data EdgeData `json:"data"`
}

// Elements is the complete element list of one render.
type Elements struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Map converts nodes and relationships into visual elements.
//
// Relationships are emitted only when both endpoints are non-empty and
// present in nodes. A nil colors table uses [styles.DefaultPalette].
func Map(nodes []graph.Node, edges []graph.Edge, expanded graph.ExpansionSet, colors styles.ColorTable) Elements {
	if colors == nil {
		colors = styles.DefaultPalette
	}

	out := Elements{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}

	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, mapNode(n, expanded.Has(n.ID), colors))
		ids[n.ID] = struct{}{}
	}

	for _, e := range edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		if _, ok := ids[e.Source]; !ok {
			continue
		}
		if _, ok := ids[e.Target]; !ok {
			continue
		}
		out.Edges = append(out.Edges, mapEdge(e))
	}
	return out
}

func mapNode(n graph.Node, expanded bool, colors styles.ColorTable) Node {
	caption := Caption(n)

	labels := make([]string, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = styles.Escape(l)
	}

	var classes string
	if expanded {
		classes = styles.ExpandedClass
	}

	return Node{
		Data: NodeData{
			ID:       n.ID,
			Label:    styles.Escape(styles.Truncate(caption, styles.CaptionLimit)),
			Labels:   labels,
			Color:    colors.Color(n.PrimaryLabel()),
			Size:     styles.Size(expanded),
			Tooltip:  Tooltip(n, expanded),
			Expanded: expanded,
		},
		Classes: classes,
	}
}

func mapEdge(e graph.Edge) Edge {
	id := e.ID
	if id == "" {
		id = e.Source + "-" + e.Target
	}
	return Edge{Data: EdgeData{
		ID:     id,
		Source: e.Source,
		Target: e.Target,
		Label:  styles.Escape(e.Type),
	}}
}

// Caption returns the unescaped, untruncated display name of n: the first
// truthy of the id, name, and fileName properties, then the primary label,
// then [FallbackCaption].
func Caption(n graph.Node) string {
	for _, key := range captionKeys {
		if v := n.Properties.Get(key); v.Truthy() {
			return v.String()
		}
	}
	if l := n.PrimaryLabel(); l != "" {
		return l
	}
	return FallbackCaption
}

// Tooltip builds the escaped hover text of n. Parts are separated by <br>:
// the caption in bold, the label list, an expanded marker, then one
// "key: value" line per displayable property in storage order.
func Tooltip(n graph.Node, expanded bool) string {
	parts := []string{
		"<strong>" + styles.Escape(Caption(n)) + "</strong>",
		"Type: " + styles.Escape(strings.Join(n.Labels, ", ")),
	}
	if expanded {
		parts = append(parts, "<em>Expanded</em>")
	}
	for _, p := range n.Properties {
		if graph.IsReservedKey(p.Key) || !p.Value.Truthy() {
			continue
		}
		value := styles.Truncate(p.Value.String(), styles.ValueLimit)
		parts = append(parts, styles.Escape(p.Key)+": "+styles.Escape(value))
	}
	return strings.Join(parts, "<br>")
}
