package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()
	if m.Registry() == nil {
		t.Fatal("Registry() returned nil")
	}
	if m.RendersTotal == nil || m.StoreFetchesTotal == nil || m.ServerRequests == nil {
		t.Error("collectors not initialized")
	}

	// two registries must not collide
	_ = New()
}

func TestPipelineHooks(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnRenderStart(ctx, "data", 12)
	m.OnRenderComplete(ctx, "data", "graph", 5*time.Millisecond)
	m.OnRenderComplete(ctx, "data", "graph", 5*time.Millisecond)
	m.OnRenderComplete(ctx, "schema", "empty", time.Millisecond)
	m.OnDiagnostic(ctx, "schema too large, truncating")
	m.OnVisibility(ctx, "data", 0, 0, time.Millisecond)
	m.OnVisibility(ctx, "data", 10, 5, time.Millisecond)

	if got := testutil.ToFloat64(m.RendersTotal.WithLabelValues("data", "graph")); got != 2 {
		t.Errorf("renders_total{data,graph} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RendersTotal.WithLabelValues("schema", "empty")); got != 1 {
		t.Errorf("renders_total{schema,empty} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("schema too large, truncating")); got != 1 {
		t.Errorf("layout_diagnostics_total = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.VisibleRatio); n != 1 {
		t.Errorf("visible_ratio series = %d, want 1", n)
	}
}

func TestCacheAndStoreHooks(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnCacheHit(ctx, "payload")
	m.OnCacheMiss(ctx, "payload")
	m.OnCacheMiss(ctx, "payload")
	m.OnCacheSet(ctx, "payload", 2048)
	m.OnFetch(ctx, "mongo", "neighbors", 3, time.Millisecond, nil)
	m.OnFetch(ctx, "mongo", "neighbors", 0, time.Millisecond, errors.New("down"))

	if got := testutil.ToFloat64(m.CacheEventsTotal.WithLabelValues("payload", "miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StoreFetchesTotal.WithLabelValues("mongo", "neighbors", "error")); got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
}

func TestHTTPHooks(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnRequest(ctx, "POST", "api:8000", "/get_neighbours")
	m.OnResponse(ctx, "POST", "api:8000", "/get_neighbours", 200, time.Millisecond)
	m.OnError(ctx, "POST", "api:8000", "/get_neighbours", errors.New("timeout"))
	m.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.ClientRequests.WithLabelValues("POST", "api:8000", "200")); got != 1 {
		t.Errorf("client 200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ClientRequests.WithLabelValues("POST", "api:8000", "error")); got != 1 {
		t.Errorf("client errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ServerRequests.WithLabelValues("GET", "/healthz", "200")); got != 1 {
		t.Errorf("server requests = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnRenderComplete(context.Background(), "data", "graph", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "graphscope_renders_total") {
		t.Errorf("metrics output missing renders counter:\n%s", body)
	}
}
