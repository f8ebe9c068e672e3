package graph

// SchemaOf derives the type-level graph of g: one node per distinct primary
// label and one relationship per distinct (source label, type, target label)
// triple. Nodes without labels are grouped under [WildcardLabel].
//
// Schema node ids are the label names and schema relationship ids are
// "source-type-target". The result is suitable for [ViewSchema] rendering
// when the storage layer offers no schema query of its own.
func SchemaOf(g Graph) Graph {
	labelOf := make(map[string]string, len(g.Nodes))
	counts := make(map[string]int64)
	var labels []string
	for _, n := range g.Nodes {
		l := n.PrimaryLabel()
		if l == "" {
			l = WildcardLabel
		}
		labelOf[n.ID] = l
		if _, ok := counts[l]; !ok {
			labels = append(labels, l)
		}
		counts[l]++
	}

	out := Graph{Nodes: make([]Node, 0, len(labels)), Edges: []Edge{}}
	for _, l := range labels {
		out.Nodes = append(out.Nodes, Node{
			ID:         l,
			Labels:     []string{l},
			Properties: Props("name", l, "count", counts[l]),
		})
	}

	seen := make(map[string]struct{})
	for _, e := range g.Edges {
		src, ok1 := labelOf[e.Source]
		dst, ok2 := labelOf[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		id := src + "-" + e.Type + "-" + dst
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.Edges = append(out.Edges, Edge{ID: id, Source: src, Target: dst, Type: e.Type})
	}
	return out
}
