package layout

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/graphscope/pkg/graph"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		mode      graph.ViewMode
		nodes     int
		want      string
		diags     int
	}{
		{"Cola", Cola, graph.ViewData, 10, Cola, 0},
		{"Cose", Cose, graph.ViewData, 10, Cose, 0},
		{"Random", Random, graph.ViewSchema, 500, Random, 0},
		{"Unknown", "foo", graph.ViewData, 10, Cola, 1},
		{"Empty", "", graph.ViewData, 10, Cola, 1},
		{"CaseSensitive", "Dagre", graph.ViewData, 10, Cola, 1},
		{"DagreData", Dagre, graph.ViewData, 500, Dagre, 0},
		{"DagreSmallSchema", Dagre, graph.ViewSchema, 50, Dagre, 0},
		{"DagreDenseSchema", Dagre, graph.ViewSchema, 51, Circle, 1},
		{"CircleDenseSchema", Circle, graph.ViewSchema, 80, Circle, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select(tt.requested, tt.mode, tt.nodes)
			if sel.Name != tt.want {
				t.Errorf("Name = %q, want %q", sel.Name, tt.want)
			}
			if sel.Requested != tt.requested {
				t.Errorf("Requested = %q, want %q", sel.Requested, tt.requested)
			}
			if len(sel.Diagnostics) != tt.diags {
				t.Errorf("diagnostics = %v, want %d", sel.Diagnostics, tt.diags)
			}
			if sel.Params["name"] != tt.want {
				t.Errorf("params name = %v, want %q", sel.Params["name"], tt.want)
			}
		})
	}
}

func TestSelectUnknownMatchesDefaultPreset(t *testing.T) {
	sel := Select("foo", graph.ViewData, 3)
	want, _ := Preset(Default)
	if !reflect.DeepEqual(sel.Params, want) {
		t.Errorf("params = %v, want %v", sel.Params, want)
	}
	if sel.Diagnostics[0].Level != LevelWarn {
		t.Errorf("level = %v, want warn", sel.Diagnostics[0].Level)
	}
}

func TestPresetIsCopy(t *testing.T) {
	p, _ := Preset(Cola)
	p["nodeSpacing"] = 1
	again, _ := Preset(Cola)
	if again["nodeSpacing"] != 50 {
		t.Error("Preset returned shared map")
	}
	if _, ok := Preset("nope"); ok {
		t.Error("unknown preset reported as found")
	}
}

func TestPresetValues(t *testing.T) {
	tests := []struct {
		preset string
		key    string
		want   any
	}{
		{Cola, "maxSimulationTime", 4000},
		{Cola, "convergenceThreshold", 0.01},
		{Cose, "nodeRepulsion", 400000},
		{Cose, "coolingFactor", 0.95},
		{Dagre, "ranker", "tight-tree"},
		{Dagre, "rankSep", 75},
		{Circle, "startAngle", 4.71238898},
		{Circle, "clockwise", true},
		{Random, "animate", false},
	}
	for _, tt := range tests {
		t.Run(tt.preset+"/"+tt.key, func(t *testing.T) {
			p, ok := Preset(tt.preset)
			if !ok {
				t.Fatalf("preset %q missing", tt.preset)
			}
			if p[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, p[tt.key], tt.want)
			}
		})
	}
	if len(Names()) != 5 {
		t.Errorf("Names = %v", Names())
	}
}

func schemaGraph(n int) ([]graph.Node, []graph.Edge) {
	nodes := make([]graph.Node, n)
	for i := range nodes {
		nodes[i] = graph.Node{ID: fmt.Sprintf("t%d", i), Labels: []string{fmt.Sprintf("Type%d", i)}}
	}
	var edges []graph.Edge
	for i := 0; i+1 < n; i++ {
		edges = append(edges, graph.Edge{
			ID:     fmt.Sprintf("r%d", i),
			Source: nodes[i].ID,
			Target: nodes[i+1].ID,
			Type:   "REL",
		})
	}
	return nodes, edges
}

func TestCap(t *testing.T) {
	nodes, edges := schemaGraph(150)

	gotNodes, gotEdges, diag := Cap(nodes, edges, graph.ViewSchema)
	if len(gotNodes) != MaxSchemaNodes {
		t.Fatalf("nodes = %d, want %d", len(gotNodes), MaxSchemaNodes)
	}
	if gotNodes[0].ID != "t0" || gotNodes[99].ID != "t99" {
		t.Error("Cap did not keep the input prefix")
	}
	if len(gotEdges) != 99 {
		t.Errorf("edges = %d, want 99", len(gotEdges))
	}
	if diag == nil || diag.Level != LevelWarn {
		t.Errorf("diagnostic = %+v", diag)
	}

	// appending to the capped slice must not clobber the caller's nodes
	_ = append(gotNodes, graph.Node{ID: "extra"})
	if nodes[100].ID != "t100" {
		t.Error("Cap result aliases the input tail")
	}
}

func TestCapNoop(t *testing.T) {
	nodes, edges := schemaGraph(150)
	if n, e, d := Cap(nodes, edges, graph.ViewData); len(n) != 150 || len(e) != 149 || d != nil {
		t.Errorf("data view was capped: %d nodes, %d edges, %v", len(n), len(e), d)
	}

	nodes, edges = schemaGraph(100)
	if n, e, d := Cap(nodes, edges, graph.ViewSchema); len(n) != 100 || len(e) != 99 || d != nil {
		t.Errorf("schema at the limit was capped: %d nodes, %d edges, %v", len(n), len(e), d)
	}
}

func ExampleSelect() {
	sel := Select("dagre", graph.ViewSchema, 80)
	fmt.Println(sel.Name)
	for _, d := range sel.Diagnostics {
		fmt.Println(d.Message)
	}
	// Output:
	// circle
	// dense schema, using circular layout instead of dagre
}
