package graph_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/graphscope/pkg/graph"
)

func ExampleMarshalGraph() {
	g := graph.Graph{
		Nodes: []graph.Node{{
			ID:         "d1",
			Labels:     []string{"Document"},
			Properties: graph.Props("fileName", "report.pdf", "pages", 3),
		}},
	}

	data, err := graph.MarshalGraph(g)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(string(data))
	// Output:
	// {"nodes":[{"element_id":"d1","labels":["Document"],"properties":{"fileName":"report.pdf","pages":3}}],"relationships":[]}
}

func ExampleReadGraph() {
	// Storage API response envelope
	jsonData := `{
		"status": "Success",
		"data": {
			"nodes": [
				{"element_id": "d1", "labels": ["Document"], "properties": {"fileName": "a.pdf"}},
				{"element_id": "c1", "labels": ["Chunk"], "properties": {"position": 1}}
			],
			"relationships": [
				{"element_id": "r1", "start_node_element_id": "c1", "end_node_element_id": "d1", "type": "PART_OF"}
			]
		}
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", len(g.Nodes))
	fmt.Println("Relationships:", len(g.Edges))
	fmt.Println("Anchors:", len(g.Anchors()))
	// Output:
	// Nodes: 2
	// Relationships: 1
	// Anchors: 1
}

func ExampleReadGraphFile() {
	path := filepath.Join(os.TempDir(), "example-graph.json")
	defer os.Remove(path)

	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "d1", Labels: []string{"Document"}},
			{ID: "e1", Labels: []string{"Person"}},
		},
	}
	if err := graph.WriteGraphFile(g, path); err != nil {
		fmt.Println("Error:", err)
		return
	}

	back, err := graph.ReadGraphFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Imported", len(back.Nodes), "nodes")
	// Output:
	// Imported 2 nodes
}

func ExampleNeighborhood() {
	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "d1", Labels: []string{"Document"}},
			{ID: "c1", Labels: []string{"Chunk"}, Properties: graph.Props("text", "...", "position", 1)},
			{ID: "c2", Labels: []string{"Chunk"}},
		},
		Edges: []graph.Edge{
			{ID: "r1", Source: "c1", Target: "d1", Type: "PART_OF"},
			{ID: "r2", Source: "c1", Target: "c2", Type: "NEXT_CHUNK"},
		},
	}

	n := graph.Neighborhood(g, "c1")
	for _, node := range n.Nodes {
		fmt.Println(node.ID, node.Labels, len(node.Properties))
	}
	// Output:
	// c1 [Chunk] 1
	// d1 [Document] 0
	// c2 [Chunk] 0
}

func ExampleExpansionSet() {
	s := graph.NewExpansionSet("e1")
	s = s.With("c1")
	fmt.Println(s.IDs(), s.Has("e1"))

	s = s.Without("e1")
	fmt.Println(s.IDs(), s.Has("e1"))
	// Output:
	// [c1 e1] true
	// [c1] false
}
