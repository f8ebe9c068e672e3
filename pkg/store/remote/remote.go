// Package remote reads graphs from the HTTP API of an extraction backend.
//
// The backend answers form POSTs on three routes:
//
//	POST /graph_query           uri, userName, password, database, email, document_names
//	POST /schema_visualization  uri, userName, password, database, email
//	POST /get_neighbours        uri, userName, password, database, elementId
//
// Responses are wrapped as {"status": "Success", "data": {...}} with the
// graph in data.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/httputil"
	"github.com/matzehuels/graphscope/pkg/store"
)

// API routes.
const (
	RouteGraph      = "/graph_query"
	RouteSchema     = "/schema_visualization"
	RouteNeighbours = "/get_neighbours"
)

// Config holds the backend location and the database credentials it
// forwards to the graph database.
type Config struct {
	URL      string
	URI      string
	Username string
	Password string
	Database string
	Email    string

	// Documents restricts Graph to these source documents. Empty means all.
	Documents []string

	Timeout time.Duration
}

// Store is an HTTP-backed [store.Store].
type Store struct {
	cfg    Config
	base   string
	client *httputil.Client
}

// New validates cfg and returns a Store.
func New(cfg Config) (*Store, error) {
	if err := gserrors.ValidateURL(cfg.URL); err != nil {
		return nil, err
	}
	return &Store{
		cfg:    cfg,
		base:   strings.TrimRight(cfg.URL, "/"),
		client: httputil.NewClient(cfg.Timeout, map[string]string{"Accept": "application/json"}),
	}, nil
}

// WithClient replaces the HTTP client.
func (s *Store) WithClient(c *httputil.Client) *Store {
	s.client = c
	return s
}

// Graph implements [store.Store].
func (s *Store) Graph(ctx context.Context) (graph.Graph, error) {
	form := s.credentials()
	form.Set("email", s.cfg.Email)
	docs := s.cfg.Documents
	if docs == nil {
		docs = []string{}
	}
	names, err := json.Marshal(docs)
	if err != nil {
		return graph.Graph{}, err
	}
	form.Set("document_names", string(names))
	return s.post(ctx, RouteGraph, form)
}

// Schema implements [store.Store].
func (s *Store) Schema(ctx context.Context) (graph.Graph, error) {
	form := s.credentials()
	form.Set("email", s.cfg.Email)
	return s.post(ctx, RouteSchema, form)
}

// Neighbors implements [store.Store].
func (s *Store) Neighbors(ctx context.Context, elementID string) (graph.Graph, error) {
	if err := gserrors.ValidateElementID(elementID); err != nil {
		return graph.Graph{}, err
	}
	form := s.credentials()
	form.Set("elementId", elementID)

	g, err := s.post(ctx, RouteNeighbours, form)
	if err != nil {
		return graph.Graph{}, err
	}
	if _, ok := g.Node(elementID); !ok {
		return graph.Graph{}, store.ErrNotFound
	}
	return graph.Neighborhood(g, elementID), nil
}

// Close implements [store.Store].
func (s *Store) Close() error { return nil }

// credentials builds the connection fields every route takes. The backend
// reads uri from a form field, so spaces would decode as '+' separators.
func (s *Store) credentials() url.Values {
	return url.Values{
		"uri":      {strings.ReplaceAll(s.cfg.URI, " ", "+")},
		"userName": {s.cfg.Username},
		"password": {s.cfg.Password},
		"database": {s.cfg.Database},
	}
}

func (s *Store) post(ctx context.Context, route string, form url.Values) (graph.Graph, error) {
	body, err := s.client.PostForm(ctx, s.base+route, form)
	if err != nil {
		if errors.Is(err, httputil.ErrNotFound) {
			return graph.Graph{}, store.ErrNotFound
		}
		return graph.Graph{}, gserrors.Wrap(gserrors.ErrCodeStoreUnavailable, err, "%s", route)
	}
	g, err := graph.ReadGraph(bytes.NewReader(body))
	if err != nil {
		return graph.Graph{}, fmt.Errorf("%s: %w", route, err)
	}
	return g, nil
}

var _ store.Store = (*Store)(nil)
