// Package session holds the per-user exploration state of the host shell.
//
// A [Session] owns the expansion set, the chosen view mode and layout, and
// the neighbour records merged in by expansions. The visualization core never
// sees a Session: the host takes an immutable [Session.Snapshot] of the
// expansion set and passes it to the render pipeline.
//
// Stores persist sessions between requests:
//   - [MemoryStore]: in-process map, for a single server or the TUI
//   - [FileStore]: JSON files, for the CLI
//   - [RedisStore]: Redis, for multi-instance deployments
//
// # Usage
//
//	sess, err := session.New(graph.ViewData, "cola", session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	sess.Expand("4:ab:17")
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err = store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
//	    // start over
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/graphscope/pkg/graph"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Session stores one user's exploration state.
type Session struct {
	ID       string             `json:"id"`
	Expanded graph.ExpansionSet `json:"expanded"`
	View     graph.ViewMode     `json:"view"`
	Layout   string             `json:"layout,omitempty"`

	// Neighbours holds records fetched on expansion that the base graph
	// did not contain.
	Neighbours graph.Graph `json:"neighbours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session with an empty expansion set.
func New(view graph.ViewMode, layout string, ttl time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if view == "" {
		view = graph.ViewData
	}

	now := time.Now()
	return &Session{
		ID:         id.String(),
		Expanded:   graph.NewExpansionSet(),
		View:       view,
		Layout:     layout,
		Neighbours: graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}},
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Expand marks id as explicitly opened and merges its neighbourhood into
// the session's records. neighbours may be empty.
func (s *Session) Expand(id string, neighbours graph.Graph) {
	s.Expanded = s.Expanded.With(id)
	s.Neighbours = graph.Merge(s.Neighbours, neighbours)
	s.touch()
}

// Collapse removes id from the expansion set. Merged records are kept so
// re-expanding does not need another lookup.
func (s *Session) Collapse(id string) {
	s.Expanded = s.Expanded.Without(id)
	s.touch()
}

// Reset empties the expansion set and drops merged records.
func (s *Session) Reset() {
	s.Expanded = graph.NewExpansionSet()
	s.Neighbours = graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	s.touch()
}

// Snapshot returns the expansion set as of now. Later changes to the
// session do not affect it.
func (s *Session) Snapshot() graph.ExpansionSet {
	return graph.NewExpansionSet(s.Expanded.IDs()...)
}

// Working returns base with the session's merged neighbour records appended.
func (s *Session) Working(base graph.Graph) graph.Graph {
	return graph.Merge(base, s.Neighbours)
}

// Extend pushes the expiry out by ttl from now.
func (s *Session) Extend(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

func (s *Session) touch() { s.UpdatedAt = time.Now() }

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist and ErrExpired if it
	// exists but has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
