package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/store"
)

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"html", []string{"html"}, false},
		{"static", []string{"dot", "svg", "png", "pdf"}, false},
		{"json", []string{"json"}, false},
		{"unknown", []string{"gif"}, true},
		{"mixed", []string{"html", "gif"}, true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestBasePathAndOutputPath(t *testing.T) {
	tests := []struct {
		output, input, format string
		count                 int
		want                  string
	}{
		{"", "data/graph.json", "html", 1, "data/graph.html"},
		{"", "", "svg", 1, "graph.svg"},
		{"view.html", "graph.json", "html", 1, "view.html"},
		{"view.html", "graph.json", "svg", 2, "view.svg"},
		{"-", "graph.json", "dot", 1, "-"},
		{"-", "graph.json", "dot", 2, "graph.dot"},
	}

	for _, tt := range tests {
		base := basePath(tt.output, tt.input)
		if got := outputPath(tt.output, base, tt.format, tt.count); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %d) = %q, want %q", tt.output, tt.input, tt.format, tt.count, got, tt.want)
		}
	}
}

func TestLoadGraphMergesExpandedNeighbours(t *testing.T) {
	full := documentGraph()
	// The store serves only the document and its chunk up front.
	partial := &partialStore{Static: store.Static{G: full}, shown: 2}

	g, err := loadGraph(context.Background(), partial, graph.ViewData, []string{"c1"})
	if err != nil {
		t.Fatalf("loadGraph: %v", err)
	}
	if _, ok := g.Node("p1"); !ok {
		t.Error("loadGraph did not merge the neighbours of c1")
	}

	schema, err := loadGraph(context.Background(), partial, graph.ViewSchema, []string{"c1"})
	if err != nil {
		t.Fatalf("loadGraph schema: %v", err)
	}
	if len(schema.Nodes) != 4 {
		t.Errorf("schema nodes = %d, want 4", len(schema.Nodes))
	}
}

// partialStore returns only the first shown nodes from Graph.
type partialStore struct {
	store.Static
	shown int
}

func (s *partialStore) Graph(context.Context) (graph.Graph, error) {
	g := graph.Graph{Nodes: s.G.Nodes[:s.shown]}
	ids := g.NodeIDs()
	for _, e := range s.G.Edges {
		_, src := ids[e.Source]
		_, dst := ids[e.Target]
		if src && dst {
			g.Edges = append(g.Edges, e)
		}
	}
	return g, nil
}

func renderJSON(t *testing.T, args ...string) graph.Graph {
	t.Helper()
	c, out, path := testCLI(t)
	args = append([]string{"render", path, "-f", "json", "-o", "-"}, args...)
	if _, err := execute(t, c, args...); err != nil {
		t.Fatalf("render %v: %v", args, err)
	}
	g, err := graph.ReadGraph(strings.NewReader(out.String()))
	if err != nil {
		t.Fatalf("ReadGraph: %v\n%s", err, out.String())
	}
	return g
}

func nodeIDs(g graph.Graph) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestRenderCommandVisibility(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"anchors and neighbours", nil, []string{"d1", "c1"}},
		{"expand chunk", []string{"--expand", "c1"}, []string{"d1", "c1", "p1"}},
		{"expand twice", []string{"-e", "c1", "-e", "p1"}, []string{"d1", "c1", "p1", "o1"}},
		{"schema", []string{"--view", "schema"}, []string{"Document", "Chunk", "Person", "Organization"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nodeIDs(renderJSON(t, tt.args...))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderCommandWritesFiles(t *testing.T) {
	c, _, path := testCLI(t)
	out := filepath.Join(t.TempDir(), "view.html")

	if _, err := execute(t, c, "render", path, "-f", "html,dot", "-o", out, "--layout", "dagre"); err != nil {
		t.Fatalf("render: %v", err)
	}

	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(html), "dagre") {
		t.Error("html payload does not use the requested layout")
	}

	dot, err := os.ReadFile(strings.TrimSuffix(out, ".html") + ".dot")
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(dot), `"d1" -> "c1" [label="HAS_CHUNK"];`) {
		t.Errorf("dot output missing visible relationship:\n%s", dot)
	}
	if strings.Contains(string(dot), `"p1"`) {
		t.Error("dot output contains a hidden node")
	}
}

func TestRenderCommandKeepsInputGraph(t *testing.T) {
	c, _, path := testCLI(t)

	if _, err := execute(t, c, "render", path, "-f", "json"); err != nil {
		t.Fatalf("render: %v", err)
	}

	in, err := graph.ReadGraphFile(path)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if len(in.Nodes) != 4 || len(in.Edges) != 3 {
		t.Errorf("input graph changed: %d nodes, %d relationships", len(in.Nodes), len(in.Edges))
	}

	visible, err := graph.ReadGraphFile(strings.TrimSuffix(path, ".json") + ".visible.json")
	if err != nil {
		t.Fatalf("read visible subset: %v", err)
	}
	if got := strings.Join(nodeIDs(visible), ","); got != "d1,c1" {
		t.Errorf("visible = %s, want d1,c1", got)
	}

	if _, err := execute(t, c, "render", path, "-f", "json", "-o", path); err == nil {
		t.Error("explicit output onto the input did not fail")
	}
	if in, err := graph.ReadGraphFile(path); err != nil || len(in.Nodes) != 4 {
		t.Errorf("input graph changed by explicit output: %v", err)
	}
}

func TestAvoidInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(input, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(dir, "graph")

	tests := []struct {
		name, path, format, want string
		explicit, wantErr        bool
	}{
		{"other format", base + ".html", "html", base + ".html", false, false},
		{"stdout", "-", "json", "-", true, false},
		{"derived collision", base + ".json", "json", base + ".visible.json", false, false},
		{"explicit collision", base + ".json", "json", "", true, true},
		{"explicit other path", filepath.Join(dir, "view.json"), "json", filepath.Join(dir, "view.json"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := avoidInput(tt.path, input, base, tt.format, tt.explicit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("avoidInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("avoidInput() = %q, want %q", got, tt.want)
			}
		})
	}

	if got, err := avoidInput("out.json", "", "out", "json", true); err != nil || got != "out.json" {
		t.Errorf("avoidInput without input = %q, %v", got, err)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	c, _, path := testCLI(t)

	tests := []struct {
		name string
		args []string
		code gserrors.Code
	}{
		{"unknown format", []string{"render", path, "-f", "gif"}, ""},
		{"bad view", []string{"render", path, "--view", "table"}, gserrors.ErrCodeInvalidViewMode},
		{"bad height", []string{"render", path, "--height", "20000"}, gserrors.ErrCodeInvalidHeight},
		{"watch without file", []string{"render", "--watch"}, ""},
		{"missing file", []string{"render", filepath.Join(t.TempDir(), "nope.json")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, c, tt.args...)
			if err == nil {
				t.Fatal("want error")
			}
			if tt.code != "" && !gserrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRenderFormatDetailedDOT(t *testing.T) {
	c, _, path := testCLI(t)
	runner, err := c.newRunner(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.ReadGraphFile(path)
	if err != nil {
		t.Fatal(err)
	}

	opts := &renderOpts{Options: pipeline.Options{Expanded: []string{"c1"}}, detailed: true, rankDir: "TB"}
	res, err := runner.Render(context.Background(), g, opts.Options)
	if err != nil {
		t.Fatal(err)
	}
	data, err := renderFormat(context.Background(), res, FormatDOT, opts)
	if err != nil {
		t.Fatalf("renderFormat: %v", err)
	}
	dot := string(data)
	for _, want := range []string{"rankdir=TB;", "penwidth=3", "name: Ada"} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "secret body") {
		t.Error("dot leaks a reserved property")
	}
}
