package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	gserrors "github.com/matzehuels/graphscope/pkg/errors"
)

func testClient(srv *httptest.Server, headers map[string]string) *Client {
	return NewClient(time.Second, headers).
		WithHTTPClient(srv.Client()).
		WithRetry(3, time.Millisecond)
}

func TestNewClient(t *testing.T) {
	c := NewClient(0, map[string]string{"Authorization": "Bearer token"})
	if c.http == nil || c.http.Timeout != DefaultTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", c.http.Timeout, DefaultTimeout)
	}
	if c.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("X-Default") != "default" {
			t.Error("default header not sent")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(r.PostForm.Get("database")))
	}))
	defer srv.Close()

	c := testClient(srv, map[string]string{"X-Default": "default"})
	body, err := c.PostForm(context.Background(), srv.URL, url.Values{"database": {"neo4j"}})
	if err != nil {
		t.Fatalf("PostForm() error: %v", err)
	}
	if string(body) != "neo4j" {
		t.Errorf("PostForm() body = %q, want neo4j", body)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testClient(srv, nil).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(body) != "ok" || calls.Load() != 3 {
		t.Errorf("Get() = %q after %d calls, want ok after 3", body, calls.Load())
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
		calls  int32
	}{
		{"not found", http.StatusNotFound, ErrNotFound, 1},
		{"bad request", http.StatusBadRequest, ErrNetwork, 1},
		{"server error", http.StatusInternalServerError, ErrNetwork, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := testClient(srv, nil).Get(context.Background(), srv.URL)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get() error = %v, want %v", err, tt.want)
			}
			if calls.Load() != tt.calls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.calls)
			}
		})
	}
}

func TestClientRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv, nil).WithRetry(1, time.Millisecond).Get(context.Background(), srv.URL)
	var rl *gserrors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Get() error = %v, want RateLimitedError", err)
	}
}

func TestRetryAfter(t *testing.T) {
	if d := retryAfter(&RetryableError{Err: &gserrors.RateLimitedError{RetryAfter: 2}}); d != 2*time.Second {
		t.Errorf("retryAfter = %v, want 2s", d)
	}
	if d := retryAfter(&gserrors.RateLimitedError{RetryAfter: 3600}); d != maxRetryAfter {
		t.Errorf("retryAfter = %v, want cap %v", d, maxRetryAfter)
	}
	if d := retryAfter(errors.New("other")); d != 0 {
		t.Errorf("retryAfter = %v, want 0", d)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errors.New("temporary")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}
