package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/graphscope/pkg/graph"
)

func sample() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "d1", Labels: []string{"Document"}, Properties: graph.Props("fileName", "a.pdf")},
			{ID: "p1", Labels: []string{"Person"}, Properties: graph.Props("id", `Ada "the" Countess`, "text", "hidden", "born", 1815)},
		},
		Edges: []graph.Edge{
			{ID: "r1", Source: "d1", Target: "p1", Type: "MENTIONS"},
			{ID: "r2", Source: "d1", Target: "ghost", Type: "MENTIONS"},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sample(), graph.ExpansionSet{}, Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR;",
		`"d1" [label="a.pdf", fillcolor="#3b82f6"];`,
		`label="Ada \"the\" Countess"`,
		`"d1" -> "p1" [label="MENTIONS"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("ToDOT() wrote an edge to a missing node")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sample(), graph.ExpansionSet{}, Options{Detailed: true, RankDir: "TB"})

	if !strings.Contains(dot, "rankdir=TB;") {
		t.Error("ToDOT() ignored RankDir")
	}
	if !strings.Contains(dot, `born: 1815`) {
		t.Error("ToDOT() detailed output missing property")
	}
	if strings.Contains(dot, "hidden") {
		t.Error("ToDOT() detailed output contains a reserved property")
	}
}

func TestToDOT_Expanded(t *testing.T) {
	dot := ToDOT(sample(), graph.NewExpansionSet("p1"), Options{})
	if !strings.Contains(dot, "penwidth=3") {
		t.Error("ToDOT() expanded node missing bold outline")
	}
}

func TestFmtLabel(t *testing.T) {
	n := graph.Node{Labels: []string{"Chunk"}, Properties: graph.Props("position", 2)}
	if got := fmtLabel(n, false); got != "Chunk" {
		t.Errorf("fmtLabel() simple = %q, want Chunk", got)
	}
	if got := fmtLabel(n, true); got != "Chunk\nChunk\nposition: 2" {
		t.Errorf("fmtLabel() detailed = %q", got)
	}
}

func TestQuote(t *testing.T) {
	if got := quote("a\"b\\c\nd"); got != `"a\"b\\c\nd"` {
		t.Errorf("quote = %s", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox was modified")
	}
}
