package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/httputil"
	"github.com/matzehuels/graphscope/pkg/store"
)

const graphResponse = `{"status":"Success","data":{
	"nodes":[
		{"element_id":"d1","labels":["Document"],"properties":{"fileName":"a.pdf"}},
		{"element_id":"c1","labels":["Chunk"],"properties":{"text":"body","position":1}}
	],
	"relationships":[
		{"element_id":"r1","start_node_element_id":"d1","end_node_element_id":"c1","type":"HAS_CHUNK"}
	]}}`

func newTestStore(t *testing.T, h http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		URL:       srv.URL + "/",
		URI:       "neo4j+s://db host",
		Username:  "neo4j",
		Password:  "secret",
		Database:  "neo4j",
		Documents: []string{"a.pdf"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.WithClient(httputil.NewClient(time.Second, nil).WithHTTPClient(srv.Client()).WithRetry(2, time.Millisecond))
	return s
}

func TestGraph(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != RouteGraph {
			t.Errorf("path = %s, want %s", r.URL.Path, RouteGraph)
		}
		r.ParseForm()
		if got := r.PostForm.Get("uri"); got != "neo4j+s://db+host" {
			t.Errorf("uri = %q", got)
		}
		if got := r.PostForm.Get("document_names"); got != `["a.pdf"]` {
			t.Errorf("document_names = %q", got)
		}
		if r.PostForm.Get("userName") != "neo4j" || r.PostForm.Get("password") != "secret" {
			t.Error("credentials not forwarded")
		}
		w.Write([]byte(graphResponse))
	})

	g, err := s.Graph(context.Background())
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("Graph() = %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestSchema(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != RouteSchema {
			t.Errorf("path = %s, want %s", r.URL.Path, RouteSchema)
		}
		r.ParseForm()
		if r.PostForm.Has("document_names") {
			t.Error("schema request sent document_names")
		}
		w.Write([]byte(`{"status":"Success","data":{"nodes":[{"element_id":"Person","labels":["Person"],"properties":{}}],"relationships":[]}}`))
	})

	g, err := s.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "Person" {
		t.Errorf("Schema() = %+v", g.Nodes)
	}
}

func TestNeighbors(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.URL.Path != RouteNeighbours || r.PostForm.Get("elementId") == "" {
			t.Errorf("unexpected request %s %v", r.URL.Path, r.PostForm)
		}
		if r.PostForm.Get("elementId") == "gone" {
			w.Write([]byte(`{"status":"Success","data":{"nodes":[],"relationships":[]}}`))
			return
		}
		w.Write([]byte(graphResponse))
	})
	ctx := context.Background()

	g, err := s.Neighbors(ctx, "c1")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(g.Nodes) != 2 || g.Nodes[0].ID != "c1" {
		t.Errorf("Neighbors(c1) nodes = %+v", g.Nodes)
	}
	if g.Nodes[0].Properties.Has("text") {
		t.Error("reserved property not stripped")
	}

	if _, err := s.Neighbors(ctx, "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Neighbors(gone) = %v, want ErrNotFound", err)
	}
	if _, err := s.Neighbors(ctx, ""); !gserrors.Is(err, gserrors.ErrCodeInvalidElementID) {
		t.Errorf("Neighbors(\"\") = %v, want invalid element id", err)
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name:    "failed status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"status":"Failed","error":"bad credentials"}`)) },
			check:   func(err error) bool { return err != nil && !gserrors.Is(err, gserrors.ErrCodeStoreUnavailable) },
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			check:   func(err error) bool { return gserrors.Is(err, gserrors.ErrCodeStoreUnavailable) },
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			check:   func(err error) bool { return errors.Is(err, store.ErrNotFound) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, tt.handler)
			_, err := s.Graph(context.Background())
			if !tt.check(err) {
				t.Errorf("Graph() error = %v", err)
			}
		})
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New(Config{URL: "ftp://backend"}); !gserrors.Is(err, gserrors.ErrCodeInvalidInput) {
		t.Errorf("New(ftp) = %v, want invalid input", err)
	}
}
