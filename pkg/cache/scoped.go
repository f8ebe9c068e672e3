package cache

// ScopedKeyer wraps a Keyer with a prefix so that several tenants, or
// several graphs served by one process, can share a backend.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "graph:contracts:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PayloadKey generates a prefixed payload key.
func (k *ScopedKeyer) PayloadKey(graphHash string, opts PayloadKeyOpts) string {
	return k.prefix + k.inner.PayloadKey(graphHash, opts)
}

// StoreKey generates a prefixed storage lookup key.
func (k *ScopedKeyer) StoreKey(backend, op, id string) string {
	return k.prefix + k.inner.StoreKey(backend, op, id)
}
