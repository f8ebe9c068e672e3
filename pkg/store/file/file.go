// Package file serves a graph from a JSON file.
//
// The file holds either the bare {"nodes": [...], "relationships": [...]}
// shape or the API envelope {"status": "Success", "data": {...}}. It is
// re-read whenever its modification time changes, so an external process
// can keep extracting into it while a server or TUI is running.
package file

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/store"
)

// Store is a file-backed [store.Store].
type Store struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	static  store.Static
}

// Open reads path and returns a store serving it.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := s.current(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the graph file path.
func (s *Store) Path() string { return s.path }

// current returns the in-memory view, reloading the file if it changed.
func (s *Store) current() (*store.Static, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat graph file: %w", err)
	}
	if !s.modTime.IsZero() && info.ModTime().Equal(s.modTime) {
		return &s.static, nil
	}

	g, err := graph.ReadGraphFile(s.path)
	if err != nil {
		return nil, err
	}
	s.static = store.Static{G: g}
	s.modTime = info.ModTime()
	return &s.static, nil
}

// Graph implements [store.Store].
func (s *Store) Graph(ctx context.Context) (graph.Graph, error) {
	st, err := s.current()
	if err != nil {
		return graph.Graph{}, err
	}
	return st.Graph(ctx)
}

// Schema implements [store.Store].
func (s *Store) Schema(ctx context.Context) (graph.Graph, error) {
	st, err := s.current()
	if err != nil {
		return graph.Graph{}, err
	}
	return st.Schema(ctx)
}

// Neighbors implements [store.Store].
func (s *Store) Neighbors(ctx context.Context, elementID string) (graph.Graph, error) {
	st, err := s.current()
	if err != nil {
		return graph.Graph{}, err
	}
	return st.Neighbors(ctx, elementID)
}

// Close does nothing.
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
