// Package visibility decides which part of a graph is currently shown.
//
// In data view the visible set is seeded from anchor nodes (primary label
// [graph.AnchorType]) and their direct neighbours, then widened by one hop
// around every explicitly expanded node. Expansion is not transitive: a node
// revealed by another node's expansion does not reveal its own neighbours
// until it is expanded too.
//
// In schema view the input is returned unchanged.
//
// [Compute] is a pure function. It never modifies its inputs and returns the
// same output, in the same order, for the same arguments.
package visibility

import "github.com/matzehuels/graphscope/pkg/graph"

// Compute returns the visible subset of (nodes, edges).
//
// Node and edge order follows the input. Every returned edge has both of its
// endpoints in the returned node list. Any mode other than [graph.ViewSchema]
// is treated as [graph.ViewData].
func Compute(nodes []graph.Node, edges []graph.Edge, expanded graph.ExpansionSet, mode graph.ViewMode) graph.Graph {
	if len(nodes) == 0 {
		return graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	}
	if mode == graph.ViewSchema {
		return graph.Graph{Nodes: nodes, Edges: edges}
	}

	visible := make(map[string]struct{})

	anchors := make(map[string]struct{})
	for _, n := range nodes {
		if n.IsAnchor() {
			anchors[n.ID] = struct{}{}
			visible[n.ID] = struct{}{}
		}
	}

	for _, e := range edges {
		if _, ok := anchors[e.Source]; ok {
			visible[e.Target] = struct{}{}
		}
		if _, ok := anchors[e.Target]; ok {
			visible[e.Source] = struct{}{}
		}
	}

	if expanded.Len() > 0 {
		for _, e := range edges {
			if expanded.Has(e.Source) {
				visible[e.Target] = struct{}{}
			}
			if expanded.Has(e.Target) {
				visible[e.Source] = struct{}{}
			}
		}
	}

	out := graph.Graph{Nodes: make([]graph.Node, 0, len(visible))}
	present := make(map[string]struct{}, len(visible))
	for _, n := range nodes {
		if _, ok := visible[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
			present[n.ID] = struct{}{}
		}
	}
	out.Edges = graph.Restrict(edges, present)
	return out
}
