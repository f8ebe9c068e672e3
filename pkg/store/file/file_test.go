package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/store"
)

const envelope = `{
  "status": "Success",
  "data": {
    "nodes": [
      {"element_id": "d1", "labels": ["Document"], "properties": {"fileName": "a.pdf"}},
      {"element_id": "p1", "labels": ["Person"], "properties": {"id": "Ada", "embedding": [0.1, 0.2]}}
    ],
    "relationships": [
      {"element_id": "r1", "start_node_element_id": "d1", "end_node_element_id": "p1", "type": "MENTIONS"}
    ]
  }
}`

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(envelope), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	g, err := s.Graph(ctx)
	if err != nil || len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("Graph() = %+v, %v", g, err)
	}

	schema, err := s.Schema(ctx)
	if err != nil || len(schema.Nodes) != 2 {
		t.Errorf("Schema() = %+v, %v", schema, err)
	}

	n, err := s.Neighbors(ctx, "p1")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if n.Nodes[0].Properties.Has("embedding") {
		t.Error("embedding not stripped from neighbourhood")
	}
	if _, err := s.Neighbors(ctx, "zzz"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Neighbors(zzz) = %v, want ErrNotFound", err)
	}
}

func TestStoreReloadsOnChange(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	one := graph.Graph{Nodes: []graph.Node{{ID: "d1", Labels: []string{"Document"}}}}
	if err := graph.WriteGraphFile(one, path); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	two := graph.Merge(one, graph.Graph{Nodes: []graph.Node{{ID: "d2", Labels: []string{"Document"}}}})
	if err := graph.WriteGraphFile(two, path); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	g, err := s.Graph(ctx)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("Graph() after rewrite has %d nodes, want 2", len(g.Nodes))
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Open(missing) should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{"status":"Failed","error":"no database"}`), 0o644)
	if _, err := Open(bad); err == nil {
		t.Error("Open(failed envelope) should fail")
	}
}
