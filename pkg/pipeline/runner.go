package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tracetower/pkg/cache"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/source"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so they share one caching policy.
//
// The Runner keeps no per-run state; multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
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
	}
}

// Load reads a trace from src. sourceName identifies src in cache keys
// ("file", "mongo"). Loaded traces are cached for [cache.TraceTTL] unless
// refresh is set. The boolean result reports a cache hit.
func (r *Runner) Load(ctx context.Context, src source.Source, sourceName, id string, refresh bool) (traceio.Document, bool, error) {
	key := r.Keyer.TraceKey(sourceName, id)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var doc traceio.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				observability.Cache().OnCacheHit(ctx, "trace")
				return doc, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("trace cache unavailable", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "trace")
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, sourceName, id)
	start := time.Now()
	doc, err := src.Load(ctx, id)
	hooks.OnLoadComplete(ctx, sourceName, id, len(doc.Nodes), time.Since(start), err)
	if err != nil {
		return traceio.Document{}, false, fmt.Errorf("load %s: %w", id, err)
	}

	r.Logger.Debug("loaded trace", "source", sourceName, "id", id, "trace", doc.TraceID,
		"nodes", len(doc.Nodes), "duration", time.Since(start))

	if data, err := json.Marshal(doc); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TraceTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "trace", len(data))
		}
	}
	return doc, false, nil
}

// Prepare derives reverse links when requested and indexes the nodes.
// Dangling references are logged as warnings and stay available on the
// returned graph.
func (r *Runner) Prepare(nodes []trace.Node, opts Options) (*trace.Graph, error) {
	if opts.DeriveLinks {
		nodes = trace.DeriveLinks(nodes)
	}
	g, err := trace.Build(nodes)
	if err != nil {
		return nil, err
	}
	for _, w := range g.Warnings() {
		r.Logger.Warn("dangling reference", "node", w.NodeID, "relation", w.Relation, "ref", w.Ref)
	}
	return g, nil
}

// Execute renders doc in every requested format. Artifacts are cached by the
// trace's content hash and the options that affect each format, so the
// result is independent of where the trace was loaded from.
func (r *Runner) Execute(ctx context.Context, doc traceio.Document, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		TraceID:   doc.TraceID,
		Artifacts: make(map[string][]byte, len(opts.Formats)),
	}

	hash, err := TraceHash(doc.Nodes)
	if err != nil {
		return nil, err
	}
	result.TraceHash = hash

	prepStart := time.Now()
	g, err := r.Prepare(doc.Nodes, opts)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	result.Graph = g
	result.Warnings = g.Warnings()
	result.Stats.NodeCount = g.Len()
	result.Stats.PrepareTime = time.Since(prepStart)

	renderStart := time.Now()
	for _, format := range opts.Formats {
		if _, done := result.Artifacts[format]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, hit, err := r.renderCached(ctx, g, hash, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
		if hit {
			result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
		} else {
			result.CacheInfo.Misses = append(result.CacheInfo.Misses, format)
		}
	}
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered trace",
		"trace", doc.TraceID,
		"nodes", result.Stats.NodeCount,
		"formats", opts.Formats,
		"cached", len(result.CacheInfo.Hits),
		"duration", time.Since(prepStart))

	return result, nil
}

// ExecuteSource loads id from src and renders it.
func (r *Runner) ExecuteSource(ctx context.Context, src source.Source, sourceName, id string, opts Options) (*Result, error) {
	doc, _, err := r.Load(ctx, src, sourceName, id, opts.Refresh)
	if err != nil {
		return nil, err
	}
	if doc.TraceID == "" {
		doc.TraceID = id
	}
	return r.Execute(ctx, doc, opts)
}

func (r *Runner) renderCached(ctx context.Context, g *trace.Graph, hash, format string, opts Options) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := Render(ctx, g, format, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
		r.Logger.Warn("artifact cache write failed", "format", format, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
