// Package cache stores rendered trace artifacts.
//
// # Backends
//
//   - [NullCache] never stores anything (--no-cache)
//   - [FileCache] keeps entries under a local directory (CLI)
//   - [RedisCache] shares entries between server instances
//
// # Keys
//
// A [Keyer] derives keys from the SHA-256 of a trace's canonical JSON plus
// the options that affect the output, so an unchanged trace rendered with
// unchanged options is a cache hit regardless of where it was loaded from.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default entry lifetimes.
const (
	// TraceTTL bounds how long a loaded trace is reused. Traces of a
	// running agent keep growing, so this stays short.
	TraceTTL = 5 * time.Minute
	// ArtifactTTL applies to layouts and markup derived from a trace hash.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key-value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// TraceKey names a trace loaded from a source.
	TraceKey(source, id string) string
	// ArtifactKey names an artifact rendered from the trace with the given
	// content hash.
	ArtifactKey(traceHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format       string `json:"format"`
	DefaultModel string `json:"default_model,omitempty"`
	OutputBudget int    `json:"output_budget,omitempty"`
	Direction    string `json:"direction,omitempty"`
	ClickHandler string `json:"click_handler,omitempty"`
	DeriveLinks  bool   `json:"derive_links,omitempty"`
	Detailed     bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// TraceKey returns "trace:<source>:<id>".
func (DefaultKeyer) TraceKey(source, id string) string {
	return fmt.Sprintf("trace:%s:%s", source, id)
}

// ArtifactKey hashes the trace hash together with opts.
func (DefaultKeyer) ArtifactKey(traceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", traceHash, opts)
}
