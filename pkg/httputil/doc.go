// Package httputil provides the HTTP client used to reach remote graph
// backends.
//
// # Overview
//
//   - [Client]: form and GET requests with default headers and hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Retry] only repeats operations whose error is wrapped in
// [RetryableError]. [Client] marks these as retryable:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Usage:
//
//	c := httputil.NewClient(30*time.Second, nil)
//	body, err := c.PostForm(ctx, "https://backend/graph_query", form)
//
// # Observability
//
// Every attempt is reported to [observability.HTTP], so the Prometheus
// hooks count requests per host and status.
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Timeout: 30 seconds per request
//   - Max attempts: 3
//   - Base backoff: 1 second
package httputil
