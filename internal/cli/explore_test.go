package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render/layout"
	"github.com/matzehuels/graphscope/pkg/session"
	"github.com/matzehuels/graphscope/pkg/store"
)

func newTestExplore(t *testing.T) exploreModel {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	sess, err := session.New(graph.ViewData, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	m := newExploreModel(context.Background(), &store.Static{G: documentGraph()}, pipeline.NewRunner(nil, nil, logger), sess)
	m.logger = logger
	m.sessions = session.NewMemoryStore()
	m.output = filepath.Join(t.TempDir(), "explore.html")
	return step(t, m, m.Init()())
}

// step feeds msg to the model and runs the resulting commands until none
// is left.
func step(t *testing.T, m exploreModel, msg tea.Msg) exploreModel {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(exploreModel)
		if cmd == nil {
			break
		}
		msg = cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			break
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func rowIDs(m exploreModel) []string {
	ids := make([]string, len(m.rows))
	for i, n := range m.rows {
		ids[i] = n.ID
	}
	return ids
}

func TestExploreInitialRender(t *testing.T) {
	m := newTestExplore(t)

	if got := rowIDs(m); !slices.Equal(got, []string{"d1", "c1"}) {
		t.Errorf("rows = %v, want [d1 c1]", got)
	}
	if m.busy {
		t.Error("model still busy after render")
	}
	html, err := os.ReadFile(m.output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(html), "<html") {
		t.Error("output is not an HTML document")
	}
}

func TestExploreExpandCollapse(t *testing.T) {
	m := newTestExplore(t)

	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	if got := rowIDs(m); !slices.Equal(got, []string{"d1", "c1", "p1"}) {
		t.Fatalf("rows after expand = %v", got)
	}
	if !m.sess.Expanded.Has("c1") {
		t.Error("c1 not in expansion set")
	}
	saved, err := m.sessions.Get(context.Background(), m.sess.ID)
	if err != nil || !saved.Expanded.Has("c1") {
		t.Errorf("expansion not saved: %v", err)
	}

	m = step(t, m, key("enter"))
	if got := rowIDs(m); !slices.Equal(got, []string{"d1", "c1"}) {
		t.Errorf("rows after collapse = %v", got)
	}
	if m.result.Stats.Expanded != 0 {
		t.Errorf("Stats.Expanded = %d after collapse", m.result.Stats.Expanded)
	}
}

func TestExploreReset(t *testing.T) {
	m := newTestExplore(t)
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	if len(m.rows) != 4 {
		t.Fatalf("rows = %v, want all four nodes", rowIDs(m))
	}

	m = step(t, m, key("r"))
	if got := rowIDs(m); !slices.Equal(got, []string{"d1", "c1"}) {
		t.Errorf("rows after reset = %v", got)
	}
	if m.sess.Expanded.Len() != 0 {
		t.Error("reset kept expanded ids")
	}
	if m.cursor >= len(m.rows) {
		t.Errorf("cursor %d out of range after reset", m.cursor)
	}
}

func TestExploreViewToggle(t *testing.T) {
	m := newTestExplore(t)

	m = step(t, m, key("v"))
	if m.sess.View != graph.ViewSchema {
		t.Fatalf("view = %s, want schema", m.sess.View)
	}
	if len(m.rows) != 4 {
		t.Errorf("schema rows = %v", rowIDs(m))
	}

	// Expansion is a data view operation.
	m = step(t, m, key("enter"))
	if m.sess.Expanded.Len() != 0 {
		t.Error("expanded a node in schema view")
	}

	m = step(t, m, key("v"))
	if m.sess.View != graph.ViewData || len(m.rows) != 2 {
		t.Errorf("back to data view: view=%s rows=%v", m.sess.View, rowIDs(m))
	}
}

func TestExploreLayoutCycle(t *testing.T) {
	m := newTestExplore(t)
	m = step(t, m, key("l"))
	if m.sess.Layout != layout.Names()[0] {
		t.Errorf("layout = %q, want %q", m.sess.Layout, layout.Names()[0])
	}
	if m.result.Payload.Layout != m.sess.Layout {
		t.Errorf("payload layout = %q, want %q", m.result.Payload.Layout, m.sess.Layout)
	}
}

func TestExploreQuit(t *testing.T) {
	m := newTestExplore(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestExploreLoadFailureQuits(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	sess, _ := session.New(graph.ViewData, "", 0)
	m := newExploreModel(context.Background(), &store.Static{}, pipeline.NewRunner(nil, nil, logger), sess)

	next, cmd := m.Update(loadedMsg{err: os.ErrNotExist})
	if cmd == nil {
		t.Fatal("load failure before any render should quit")
	}
	if next.(exploreModel).err == nil {
		t.Error("load error not recorded")
	}
}

func TestExploreView(t *testing.T) {
	m := newTestExplore(t)
	view := m.View()
	for _, want := range []string{"Explore Graph", "a.pdf", "▸", "[1/2]", "2 visible"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestNextLayout(t *testing.T) {
	names := layout.Names()
	if got := nextLayout(""); got != names[0] {
		t.Errorf("nextLayout(\"\") = %q", got)
	}
	if got := nextLayout(names[len(names)-1]); got != names[0] {
		t.Errorf("nextLayout(last) = %q, want wrap to %q", got, names[0])
	}
	if got := nextLayout(names[0]); got != names[1] {
		t.Errorf("nextLayout(%q) = %q", names[0], got)
	}
}
