package graph

import "slices"

// Neighborhood returns the closed one-hop neighbourhood of id: the node
// itself, every node adjacent to it by any relationship (deduplicated, in
// first-seen edge order), and the relationships connecting it to them.
//
// The result is sanitized with [Sanitize]. If id is not in g the result is
// empty.
func Neighborhood(g Graph, id string) Graph {
	anchor, ok := g.Node(id)
	if !ok {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}
	}

	order := []string{id}
	members := map[string]struct{}{id: {}}
	for _, e := range g.Edges {
		if !e.Touches(id) {
			continue
		}
		other := e.Other(id)
		if _, seen := members[other]; seen {
			continue
		}
		members[other] = struct{}{}
		order = append(order, other)
	}

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	nodes := []Node{Sanitize(anchor)}
	present := map[string]struct{}{id: {}}
	for _, nid := range order[1:] {
		if n, ok := byID[nid]; ok {
			nodes = append(nodes, Sanitize(n))
			present[nid] = struct{}{}
		}
	}

	var edges []Edge
	for _, e := range g.Edges {
		if !e.Touches(id) {
			continue
		}
		if _, ok := present[e.Other(id)]; ok {
			edges = append(edges, e)
		}
	}
	if edges == nil {
		edges = []Edge{}
	}
	return Graph{Nodes: nodes, Edges: edges}
}

// Sanitize strips the reserved heavy payload keys from a node and removes
// the internal entity marker from its labels. A node left without labels
// gets the wildcard label.
func Sanitize(n Node) Node {
	labels := slices.DeleteFunc(slices.Clone(n.Labels), func(l string) bool { return l == EntityLabel })
	if len(labels) == 0 {
		labels = []string{WildcardLabel}
	}
	return Node{
		ID:         n.ID,
		Labels:     labels,
		Properties: n.Properties.Without(reservedKeys...),
	}
}

// Merge appends to base every node and relationship of extra whose element id
// is not already present. Order is preserved: base first, then new records in
// the order extra lists them. Neither input is modified.
//
// Relationships without an element id are deduplicated by (source, target, type).
func Merge(base, extra Graph) Graph {
	out := Graph{
		Nodes: slices.Clone(base.Nodes),
		Edges: slices.Clone(base.Edges),
	}

	nodeIDs := base.NodeIDs()
	for _, n := range extra.Nodes {
		if _, ok := nodeIDs[n.ID]; ok {
			continue
		}
		nodeIDs[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, n)
	}

	edgeKeys := make(map[string]struct{}, len(base.Edges))
	for _, e := range base.Edges {
		edgeKeys[edgeKey(e)] = struct{}{}
	}
	for _, e := range extra.Edges {
		k := edgeKey(e)
		if _, ok := edgeKeys[k]; ok {
			continue
		}
		edgeKeys[k] = struct{}{}
		out.Edges = append(out.Edges, e)
	}
	return out
}

func edgeKey(e Edge) string {
	if e.ID != "" {
		return "id:" + e.ID
	}
	return "st:" + e.Source + "\x00" + e.Target + "\x00" + e.Type
}
