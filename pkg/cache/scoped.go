package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database without reading each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tracetower:staging:")
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

// TraceKey generates a prefixed trace key.
func (k *ScopedKeyer) TraceKey(source, id string) string {
	return k.prefix + k.inner.TraceKey(source, id)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(traceHash, opts)
}
