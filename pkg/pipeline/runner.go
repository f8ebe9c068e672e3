package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/observability"
	"github.com/matzehuels/graphscope/pkg/render/payload"
	"github.com/matzehuels/graphscope/pkg/visibility"
)

const payloadKeyType = "payload"

// Runner encapsulates render execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached payloads. Defaults to [cache.PayloadTTL].
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.PayloadTTL,
	}
}

// Render computes the visible subset of g and emits its payload.
//
// Invalid options are returned as errors. Everything past validation is
// reported through the payload itself, so a nil error always comes with a
// renderable document. Graph and empty payloads are memoized by graph
// fingerprint and render options; error payloads are never cached.
func (r *Runner) Render(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	mode := opts.ViewMode()
	expanded := opts.ExpansionSet()
	visible := visibility.Compute(g.Nodes, g.Edges, expanded, mode)
	observability.Pipeline().OnVisibility(ctx, string(mode), len(g.Nodes), len(visible.Nodes), time.Since(start))

	result := &Result{
		Visible: visible,
		Stats: Stats{
			TotalNodes:    len(g.Nodes),
			VisibleNodes:  len(visible.Nodes),
			Relationships: len(visible.Edges),
			Expanded:      expanded.Len(),
		},
	}

	r.Logger.Debug("computed visibility",
		"view", mode,
		"total", result.Stats.TotalNodes,
		"visible", result.Stats.VisibleNodes,
		"expanded", result.Stats.Expanded)

	var key string
	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
		if keyOpts, ok := opts.PayloadKeyOpts(); ok {
			key = r.Keyer.PayloadKey(result.GraphHash, keyOpts)
		}
	}

	if key != "" {
		if p, ok := r.lookup(ctx, key); ok {
			// Diagnostics describe the request, not the render, so they are
			// reported on hits too.
			if !visible.IsEmpty() {
				arrange(ctx, opts.Logger, visible.Nodes, visible.Edges, opts)
			}
			result.Payload = p
			result.CacheHit = true
			result.Stats.Duration = time.Since(start)
			return result, nil
		}
	}

	result.Payload = build(ctx, visible.Nodes, visible.Edges, opts)
	result.Stats.Duration = time.Since(start)

	if key != "" && result.Payload.Kind != payload.KindError {
		r.store(ctx, key, result.Payload)
	}

	r.Logger.Info("rendered graph",
		"kind", result.Payload.Kind,
		"layout", result.Payload.Layout,
		"nodes", result.Payload.Nodes,
		"duration", result.Stats.Duration)
	return result, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (payload.Payload, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, payloadKeyType)
		return payload.Payload{}, false
	}

	var p payload.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		observability.Cache().OnCacheMiss(ctx, payloadKeyType)
		return payload.Payload{}, false
	}
	observability.Cache().OnCacheHit(ctx, payloadKeyType)
	return p, true
}

func (r *Runner) store(ctx context.Context, key string, p payload.Payload) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, payloadKeyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
