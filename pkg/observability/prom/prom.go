// Package prom implements the observability hooks with Prometheus metrics.
//
// A [Metrics] value owns its registry, so tests and embedded servers can
// create as many as they need without colliding on the global one.
//
//	m := prom.New()
//	observability.SetPipelineHooks(m)
//	observability.SetCacheHooks(m)
//	observability.SetStoreHooks(m)
//	observability.SetHTTPHooks(m)
//	mux.Handle("/metrics", m.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/graphscope/pkg/observability"
)

const namespace = "graphscope"

// Metrics holds every collector and implements all observability hooks.
type Metrics struct {
	registry *prometheus.Registry

	RendersTotal      *prometheus.CounterVec
	RenderDuration    *prometheus.HistogramVec
	RenderedNodes     *prometheus.HistogramVec
	VisibleRatio      *prometheus.HistogramVec
	DiagnosticsTotal  *prometheus.CounterVec
	CacheEventsTotal  *prometheus.CounterVec
	CacheWriteBytes   *prometheus.HistogramVec
	StoreFetchesTotal *prometheus.CounterVec
	StoreDuration     *prometheus.HistogramVec
	ClientRequests    *prometheus.CounterVec
	ClientDuration    *prometheus.HistogramVec
	ServerRequests    *prometheus.CounterVec
	ServerDuration    *prometheus.HistogramVec
}

// New creates a registry with all collectors registered.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	f := promauto.With(m.registry)

	m.RendersTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of payloads emitted",
		},
		[]string{"view", "kind"},
	)
	m.RenderDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Payload build duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"view"},
	)
	m.RenderedNodes = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rendered_nodes",
			Help:      "Number of nodes handed to the element mapper",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"view"},
	)
	m.VisibleRatio = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "visible_ratio",
			Help:      "Fraction of nodes left visible by progressive disclosure",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"view"},
	)
	m.DiagnosticsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_diagnostics_total",
			Help:      "Layout fallbacks, downgrades and truncations",
		},
		[]string{"message"},
	)
	m.CacheEventsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes",
		},
		[]string{"key_type", "event"},
	)
	m.CacheWriteBytes = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_write_bytes",
			Help:      "Size of cache writes in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"key_type"},
	)
	m.StoreFetchesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetches_total",
			Help:      "Graph store lookups",
		},
		[]string{"backend", "op", "status"},
	)
	m.StoreDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_fetch_duration_seconds",
			Help:      "Graph store lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	m.ClientRequests = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_requests_total",
			Help:      "Outgoing HTTP requests",
		},
		[]string{"method", "host", "status"},
	)
	m.ClientDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "client_request_duration_seconds",
			Help:      "Outgoing HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "host"},
	)
	m.ServerRequests = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
	m.ServerDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.ServerRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.ServerDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// OnVisibility implements [observability.PipelineHooks].
func (m *Metrics) OnVisibility(_ context.Context, view string, total, visible int, _ time.Duration) {
	if total == 0 {
		return
	}
	m.VisibleRatio.WithLabelValues(view).Observe(float64(visible) / float64(total))
}

// OnRenderStart implements [observability.PipelineHooks].
func (m *Metrics) OnRenderStart(_ context.Context, view string, nodeCount int) {
	m.RenderedNodes.WithLabelValues(view).Observe(float64(nodeCount))
}

// OnRenderComplete implements [observability.PipelineHooks].
func (m *Metrics) OnRenderComplete(_ context.Context, view, kind string, d time.Duration) {
	m.RendersTotal.WithLabelValues(view, kind).Inc()
	m.RenderDuration.WithLabelValues(view).Observe(d.Seconds())
}

// OnDiagnostic implements [observability.PipelineHooks].
func (m *Metrics) OnDiagnostic(_ context.Context, message string) {
	m.DiagnosticsTotal.WithLabelValues(message).Inc()
}

// OnCacheHit implements [observability.CacheHooks].
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements [observability.CacheHooks].
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements [observability.CacheHooks].
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheEventsTotal.WithLabelValues(keyType, "set").Inc()
	m.CacheWriteBytes.WithLabelValues(keyType).Observe(float64(size))
}

// OnFetch implements [observability.StoreHooks].
func (m *Metrics) OnFetch(_ context.Context, backend, op string, _ int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreFetchesTotal.WithLabelValues(backend, op, status).Inc()
	m.StoreDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// OnRequest implements [observability.HTTPHooks].
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements [observability.HTTPHooks].
func (m *Metrics) OnResponse(_ context.Context, method, host, _ string, statusCode int, d time.Duration) {
	m.ClientRequests.WithLabelValues(method, host, strconv.Itoa(statusCode)).Inc()
	m.ClientDuration.WithLabelValues(method, host).Observe(d.Seconds())
}

// OnError implements [observability.HTTPHooks].
func (m *Metrics) OnError(_ context.Context, method, host, _ string, _ error) {
	m.ClientRequests.WithLabelValues(method, host, "error").Inc()
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.StoreHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
