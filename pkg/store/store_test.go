package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/observability"
)

func sample() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "d1", Labels: []string{"Document"}, Properties: graph.Props("fileName", "a.pdf", "embedding", "[0.1]")},
			{ID: "p1", Labels: []string{"Person", "__Entity__"}, Properties: graph.Props("id", "Ada", "text", "long")},
			{ID: "o1", Labels: []string{"Organization"}},
		},
		Edges: []graph.Edge{
			{ID: "r1", Source: "d1", Target: "p1", Type: "MENTIONS"},
			{ID: "r2", Source: "p1", Target: "o1", Type: "WORKS_AT"},
		},
	}
}

type failing struct{ Static }

func (failing) Neighbors(context.Context, string) (graph.Graph, error) {
	return graph.Graph{}, errors.New("connection refused")
}

type counting struct {
	Static
	calls int
}

func (c *counting) Neighbors(ctx context.Context, id string) (graph.Graph, error) {
	c.calls++
	return c.Static.Neighbors(ctx, id)
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := &Static{G: sample()}

	g, _ := s.Graph(ctx)
	if len(g.Nodes) != 3 {
		t.Errorf("Graph() nodes = %d, want 3", len(g.Nodes))
	}

	schema, _ := s.Schema(ctx)
	if len(schema.Nodes) != 3 || len(schema.Edges) != 2 {
		t.Errorf("Schema() = %d nodes, %d edges; want 3, 2", len(schema.Nodes), len(schema.Edges))
	}

	n, err := s.Neighbors(ctx, "p1")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(n.Nodes) != 3 || n.Nodes[0].ID != "p1" {
		t.Errorf("Neighbors(p1) = %+v", n.Nodes)
	}
	if n.Nodes[0].Properties.Has("text") {
		t.Error("reserved property not stripped")
	}
	if len(n.Nodes[0].Labels) != 1 || n.Nodes[0].Labels[0] != "Person" {
		t.Errorf("labels = %v, want [Person]", n.Nodes[0].Labels)
	}

	if _, err := s.Neighbors(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Neighbors(missing) = %v, want ErrNotFound", err)
	}
}

func TestFetchNeighbors(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{})

	g := FetchNeighbors(ctx, &Static{G: sample()}, "d1", logger)
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("FetchNeighbors(d1) = %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	g = FetchNeighbors(ctx, &failing{}, "d1", logger)
	if g.Nodes == nil || g.Edges == nil || len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("failed lookup = %+v, want empty non-nil lists", g)
	}
	if !bytes.Contains(buf.Bytes(), []byte("neighbour lookup failed")) {
		t.Error("failure not logged")
	}

	g = FetchNeighbors(ctx, &Static{G: sample()}, "missing", nil)
	if len(g.Nodes) != 0 {
		t.Error("unknown id returned nodes")
	}
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &counting{Static: Static{G: sample()}}
	s := Cached(inner, fc, nil, "test")

	for range 3 {
		g, err := s.Neighbors(ctx, "d1")
		if err != nil {
			t.Fatalf("Neighbors: %v", err)
		}
		if len(g.Nodes) != 2 {
			t.Fatalf("cached neighbours = %d nodes, want 2", len(g.Nodes))
		}
	}
	if inner.calls != 1 {
		t.Errorf("backend called %d times, want 1", inner.calls)
	}

	if _, err := s.Neighbors(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error not passed through: %v", err)
	}
	if _, err := s.Neighbors(ctx, "missing"); err == nil {
		t.Error("error result was cached")
	}
	if inner.calls != 3 {
		t.Errorf("backend called %d times, want 3", inner.calls)
	}
}

type recordingHooks struct {
	observability.NoopStoreHooks
	ops  []string
	errs int
}

func (h *recordingHooks) OnFetch(_ context.Context, backend, op string, _ int, _ time.Duration, err error) {
	h.ops = append(h.ops, backend+":"+op)
	if err != nil {
		h.errs++
	}
}

func TestObserved(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetStoreHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	s := Observed(&Static{G: sample()}, "file")
	_, _ = s.Graph(ctx)
	_, _ = s.Schema(ctx)
	_, _ = s.Neighbors(ctx, "missing")

	want := []string{"file:graph", "file:schema", "file:neighbors"}
	if len(hooks.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", hooks.ops, want)
	}
	for i := range want {
		if hooks.ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, hooks.ops[i], want[i])
		}
	}
	if hooks.errs != 1 {
		t.Errorf("errors = %d, want 1", hooks.errs)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
