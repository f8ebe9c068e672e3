// Package store defines the graph storage collaborator and the boundary
// through which neighbourhood lookups reach the visualization.
//
// # Backends
//
// Each backend lives in its own subpackage:
//
//   - file: a JSON graph file, reloaded when it changes
//   - sqlite: nodes and relationships tables in a SQLite database
//   - mongo: nodes and relationships collections in MongoDB
//   - remote: the HTTP API of an extraction backend
//
// # Boundary
//
// Backends return errors. [FetchNeighbors] is the only call the host makes
// when a user expands a node, and it never fails: a lookup error is logged
// and an empty subset is returned so the current view stays intact.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/observability"
)

// ErrNotFound is returned when a requested node does not exist.
var ErrNotFound = errors.New("not found")

// Lookup operation names, used for metrics and cache keys.
const (
	OpGraph     = "graph"
	OpSchema    = "schema"
	OpNeighbors = "neighbors"
)

// Store reads graph records.
type Store interface {
	// Graph returns every node and relationship.
	Graph(ctx context.Context) (graph.Graph, error)

	// Schema returns the type-level graph: one node per label and one
	// relationship per (source label, type, target label).
	Schema(ctx context.Context) (graph.Graph, error)

	// Neighbors returns the closed one-hop neighbourhood of elementID with
	// reserved properties stripped. It returns [ErrNotFound] when the node
	// does not exist.
	Neighbors(ctx context.Context, elementID string) (graph.Graph, error)

	// Close releases backend resources.
	Close() error
}

// FetchNeighbors looks up the neighbourhood of elementID and never fails.
// On any error, including [ErrNotFound], it logs and returns an empty subset.
func FetchNeighbors(ctx context.Context, s Store, elementID string, logger *log.Logger) graph.Graph {
	if logger == nil {
		logger = log.Default()
	}
	g, err := s.Neighbors(ctx, elementID)
	if err != nil {
		logger.Error("neighbour lookup failed", "element_id", elementID, "err", err)
		return graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	}
	logger.Debug("fetched neighbours",
		"element_id", elementID,
		"nodes", len(g.Nodes),
		"relationships", len(g.Edges))
	return g
}

// Observed reports every lookup of s to the registered store hooks under
// the given backend name.
func Observed(s Store, backend string) Store {
	return &observed{inner: s, backend: backend}
}

type observed struct {
	inner   Store
	backend string
}

func (o *observed) Graph(ctx context.Context) (graph.Graph, error) {
	return o.track(ctx, OpGraph, func() (graph.Graph, error) { return o.inner.Graph(ctx) })
}

func (o *observed) Schema(ctx context.Context) (graph.Graph, error) {
	return o.track(ctx, OpSchema, func() (graph.Graph, error) { return o.inner.Schema(ctx) })
}

func (o *observed) Neighbors(ctx context.Context, elementID string) (graph.Graph, error) {
	return o.track(ctx, OpNeighbors, func() (graph.Graph, error) { return o.inner.Neighbors(ctx, elementID) })
}

func (o *observed) Close() error { return o.inner.Close() }

func (o *observed) track(ctx context.Context, op string, fn func() (graph.Graph, error)) (graph.Graph, error) {
	start := time.Now()
	g, err := fn()
	observability.Store().OnFetch(ctx, o.backend, op, len(g.Nodes), time.Since(start), err)
	return g, err
}

// Static serves lookups from a graph held in memory. Backends that load
// a whole graph at once embed it.
type Static struct {
	G graph.Graph
}

// Graph returns the held graph.
func (s *Static) Graph(context.Context) (graph.Graph, error) {
	return s.G, nil
}

// Schema derives the schema graph from the held graph.
func (s *Static) Schema(context.Context) (graph.Graph, error) {
	return graph.SchemaOf(s.G), nil
}

// Neighbors returns the neighbourhood of elementID in the held graph.
func (s *Static) Neighbors(_ context.Context, elementID string) (graph.Graph, error) {
	if _, ok := s.G.Node(elementID); !ok {
		return graph.Graph{}, ErrNotFound
	}
	return graph.Neighborhood(s.G, elementID), nil
}

// Close does nothing.
func (s *Static) Close() error { return nil }

var _ Store = (*Static)(nil)
