// Package mongo serves a graph from two MongoDB collections.
//
// Documents in the nodes collection carry the element id in _id, a labels
// array, a properties subdocument and a position used for ordering:
//
//	{_id: "4:ab:1", labels: ["Person"], properties: {id: "Ada"}, position: 0}
//
// Relationships hold their endpoints in start and end:
//
//	{_id: "5:ab:9", start: "4:ab:1", end: "4:ab:2", type: "MENTIONS", position: 0}
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/store"
)

// Collection names.
const (
	CollectionNodes         = "nodes"
	CollectionRelationships = "relationships"
)

// DefaultDatabase is used when Config.Database is empty.
const DefaultDatabase = "graphscope"

// Config holds MongoDB connection settings.
type Config struct {
	URI      string
	Database string

	// ConnectTimeout bounds the initial ping. Defaults to 10s.
	ConnectTimeout time.Duration
}

// Store is a MongoDB-backed [store.Store].
type Store struct {
	client *mongo.Client
	nodes  *mongo.Collection
	rels   *mongo.Collection
}

// Connect opens a client, pings the server and ensures the relationship
// endpoint indexes exist.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client: client,
		nodes:  db.Collection(CollectionNodes),
		rels:   db.Collection(CollectionRelationships),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.rels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "end", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

type nodeDoc struct {
	ID         string   `bson:"_id"`
	Labels     []string `bson:"labels"`
	Properties bson.D   `bson:"properties"`
	Position   int      `bson:"position"`
}

type relDoc struct {
	ID       string `bson:"_id,omitempty"`
	Start    string `bson:"start"`
	End      string `bson:"end"`
	Type     string `bson:"type"`
	Position int    `bson:"position"`
}

// Import replaces the collections' contents with g.
func (s *Store) Import(ctx context.Context, g graph.Graph) error {
	if _, err := s.nodes.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	if _, err := s.rels.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear relationships: %w", err)
	}

	if len(g.Nodes) > 0 {
		docs := make([]any, 0, len(g.Nodes))
		for i, n := range g.Nodes {
			docs = append(docs, toNodeDoc(n, i))
		}
		if _, err := s.nodes.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert nodes: %w", err)
		}
	}
	if len(g.Edges) > 0 {
		docs := make([]any, 0, len(g.Edges))
		for i, e := range g.Edges {
			docs = append(docs, relDoc{ID: e.ID, Start: e.Source, End: e.Target, Type: e.Type, Position: i})
		}
		if _, err := s.rels.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert relationships: %w", err)
		}
	}
	return nil
}

// Graph implements [store.Store].
func (s *Store) Graph(ctx context.Context) (graph.Graph, error) {
	nodes, err := s.findNodes(ctx, bson.D{})
	if err != nil {
		return graph.Graph{}, err
	}
	edges, err := s.findEdges(ctx, bson.D{})
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
	edges, err := s.findEdges(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "start", Value: elementID}},
		bson.D{{Key: "end", Value: elementID}},
	}}})
	if err != nil {
		return graph.Graph{}, err
	}

	ids := bson.A{elementID}
	for _, e := range edges {
		ids = append(ids, e.Other(elementID))
	}
	nodes, err := s.findNodes(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return graph.Graph{}, err
	}

	local := graph.Graph{Nodes: nodes, Edges: edges}
	if _, ok := local.Node(elementID); !ok {
		return graph.Graph{}, store.ErrNotFound
	}
	return graph.Neighborhood(local, elementID), nil
}

func (s *Store) findNodes(ctx context.Context, filter bson.D) ([]graph.Node, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := s.nodes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	var docs []nodeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}

	nodes := make([]graph.Node, 0, len(docs))
	for _, d := range docs {
		nodes = append(nodes, fromNodeDoc(d))
	}
	return nodes, nil
}

func (s *Store) findEdges(ctx context.Context, filter bson.D) ([]graph.Edge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := s.rels.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find relationships: %w", err)
	}
	var docs []relDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}

	edges := make([]graph.Edge, 0, len(docs))
	for _, d := range docs {
		edges = append(edges, graph.Edge{ID: d.ID, Source: d.Start, Target: d.End, Type: d.Type})
	}
	return edges, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}

func toNodeDoc(n graph.Node, position int) nodeDoc {
	props := make(bson.D, 0, len(n.Properties))
	for _, p := range n.Properties {
		props = append(props, bson.E{Key: p.Key, Value: p.Value.Interface()})
	}
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	return nodeDoc{ID: n.ID, Labels: labels, Properties: props, Position: position}
}

func fromNodeDoc(d nodeDoc) graph.Node {
	props := make(graph.Properties, 0, len(d.Properties))
	for _, e := range d.Properties {
		props = append(props, graph.Property{Key: e.Key, Value: graph.ValueOf(e.Value)})
	}
	return graph.Node{ID: d.ID, Labels: d.Labels, Properties: props}
}

var _ store.Store = (*Store)(nil)
