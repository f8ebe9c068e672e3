package store

import (
	"bytes"
	"context"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/observability"
)

const storeKeyType = "store"

// Cached decorates s with a read-through cache. Successful lookups are
// kept for [cache.StoreTTL]; errors are never cached. A nil keyer uses
// [cache.DefaultKeyer].
func Cached(s Store, c cache.Cache, keyer cache.Keyer, backend string) Store {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &cached{inner: s, cache: c, keyer: keyer, backend: backend}
}

type cached struct {
	inner   Store
	cache   cache.Cache
	keyer   cache.Keyer
	backend string
}

func (c *cached) Graph(ctx context.Context) (graph.Graph, error) {
	return c.through(ctx, OpGraph, "", func() (graph.Graph, error) { return c.inner.Graph(ctx) })
}

func (c *cached) Schema(ctx context.Context) (graph.Graph, error) {
	return c.through(ctx, OpSchema, "", func() (graph.Graph, error) { return c.inner.Schema(ctx) })
}

func (c *cached) Neighbors(ctx context.Context, elementID string) (graph.Graph, error) {
	return c.through(ctx, OpNeighbors, elementID, func() (graph.Graph, error) { return c.inner.Neighbors(ctx, elementID) })
}

func (c *cached) Close() error { return c.inner.Close() }

func (c *cached) through(ctx context.Context, op, id string, fetch func() (graph.Graph, error)) (graph.Graph, error) {
	key := c.keyer.StoreKey(c.backend, op, id)

	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, storeKeyType)
			return g, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, storeKeyType)

	g, err := fetch()
	if err != nil {
		return g, err
	}
	if data, err := graph.MarshalGraph(g); err == nil {
		if c.cache.Set(ctx, key, data, cache.StoreTTL) == nil {
			observability.Cache().OnCacheSet(ctx, storeKeyType, len(data))
		}
	}
	return g, nil
}
