// Package cache provides byte-oriented caching for rendered payloads and
// storage lookups.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for CLI usage
//   - [RedisCache]: shared cache for multi-instance servers
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component derives them the
// same way. [DefaultKeyer] hashes the inputs that determine an entry;
// [ScopedKeyer] adds a namespace prefix on top of another keyer.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that must distinguish a miss from an
// empty value.
var ErrCacheMiss = errors.New("cache miss")

// Default entry lifetimes.
const (
	// PayloadTTL bounds how long a rendered payload is reused.
	PayloadTTL = 24 * time.Hour

	// StoreTTL bounds how long a storage lookup is reused. Graphs change as
	// documents are extracted, so this is short.
	StoreTTL = 5 * time.Minute
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// PayloadKeyOpts holds the render inputs, besides the graph itself, that
// change a payload.
type PayloadKeyOpts struct {
	View     string   `json:"view"`
	Layout   string   `json:"layout"`
	Height   int      `json:"height"`
	Expanded []string `json:"expanded"`
	Palette  string   `json:"palette,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// PayloadKey returns the key of a rendered payload for a graph fingerprint.
	PayloadKey(graphHash string, opts PayloadKeyOpts) string

	// StoreKey returns the key of a storage lookup.
	StoreKey(backend, op, id string) string
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PayloadKey implements [Keyer].
func (DefaultKeyer) PayloadKey(graphHash string, opts PayloadKeyOpts) string {
	return hashKey("payload", graphHash, opts)
}

// StoreKey implements [Keyer].
func (DefaultKeyer) StoreKey(backend, op, id string) string {
	return hashKey("store", backend, op, id)
}
