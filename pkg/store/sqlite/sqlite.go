// Package sqlite serves a graph from a SQLite database.
//
// Nodes and relationships live in two tables that keep insertion order.
// Labels and properties are stored as JSON text, so property order and
// scalar types survive a round trip:
//
//	nodes(position, element_id, labels, properties)
//	relationships(position, element_id, start_node_element_id, end_node_element_id, type)
//
// The driver is modernc.org/sqlite, which needs no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	position   INTEGER PRIMARY KEY AUTOINCREMENT,
	element_id TEXT NOT NULL UNIQUE,
	labels     TEXT NOT NULL DEFAULT '[]',
	properties TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS relationships (
	position              INTEGER PRIMARY KEY AUTOINCREMENT,
	element_id            TEXT NOT NULL DEFAULT '',
	start_node_element_id TEXT NOT NULL,
	end_node_element_id   TEXT NOT NULL,
	type                  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_relationships_start ON relationships(start_node_element_id);
CREATE INDEX IF NOT EXISTS idx_relationships_end ON relationships(end_node_element_id);
`

// Store is a SQLite-backed [store.Store].
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// tables exist.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the tables and indexes if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Import appends g to the database in one transaction. Nodes whose element
// id already exists are skipped.
func (s *Store) Import(ctx context.Context, g graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO nodes (element_id, labels, properties) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range g.Nodes {
		labels, err := json.Marshal(nonNil(n.Labels))
		if err != nil {
			return err
		}
		props, err := json.Marshal(n.Properties)
		if err != nil {
			return fmt.Errorf("encode properties of %s: %w", n.ID, err)
		}
		if _, err := nodeStmt.ExecContext(ctx, n.ID, string(labels), string(props)); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `INSERT INTO relationships (element_id, start_node_element_id, end_node_element_id, type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare relationship insert: %w", err)
	}
	defer relStmt.Close()

	for _, e := range g.Edges {
		if _, err := relStmt.ExecContext(ctx, e.ID, e.Source, e.Target, e.Type); err != nil {
			return fmt.Errorf("insert relationship %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Graph implements [store.Store].
func (s *Store) Graph(ctx context.Context) (graph.Graph, error) {
	nodes, err := s.queryNodes(ctx, `SELECT element_id, labels, properties FROM nodes ORDER BY position`)
	if err != nil {
		return graph.Graph{}, err
	}
	edges, err := s.queryEdges(ctx, `SELECT element_id, start_node_element_id, end_node_element_id, type FROM relationships ORDER BY position`)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.Graph{Nodes: nodes, Edges: edges}, nil
}

// Schema implements [store.Store].
func (s *Store) Schema(ctx context.Context) (graph.Graph, error) {
	g, err := s.Graph(ctx)
	if err != nil {
		return graph.Graph{}, err
	}
	return graph.SchemaOf(g), nil
}

// Neighbors implements [store.Store].
func (s *Store) Neighbors(ctx context.Context, elementID string) (graph.Graph, error) {
	edges, err := s.queryEdges(ctx, `
		SELECT element_id, start_node_element_id, end_node_element_id, type
		FROM relationships
		WHERE start_node_element_id = ? OR end_node_element_id = ?
		ORDER BY position`, elementID, elementID)
	if err != nil {
		return graph.Graph{}, err
	}

	// Adjacent ids are resolved inside SQLite; binding one variable per
	// edge would exceed the bound-variable limit on hub nodes.
	nodes, err := s.queryNodes(ctx, `
		SELECT element_id, labels, properties
		FROM nodes
		WHERE element_id = ?
		   OR element_id IN (SELECT end_node_element_id FROM relationships WHERE start_node_element_id = ?)
		   OR element_id IN (SELECT start_node_element_id FROM relationships WHERE end_node_element_id = ?)
		ORDER BY position`, elementID, elementID, elementID)
	if err != nil {
		return graph.Graph{}, err
	}

	local := graph.Graph{Nodes: nodes, Edges: edges}
	if _, ok := local.Node(elementID); !ok {
		return graph.Graph{}, store.ErrNotFound
	}
	return graph.Neighborhood(local, elementID), nil
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []graph.Node{}
	for rows.Next() {
		var n graph.Node
		var labels, props string
		if err := rows.Scan(&n.ID, &labels, &props); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if err := json.Unmarshal([]byte(labels), &n.Labels); err != nil {
			return nil, fmt.Errorf("decode labels of %s: %w", n.ID, err)
		}
		if err := json.Unmarshal([]byte(props), &n.Properties); err != nil {
			return nil, fmt.Errorf("decode properties of %s: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	edges := []graph.Edge{}
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Type); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}

var _ store.Store = (*Store)(nil)
