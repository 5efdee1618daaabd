// Package pkg provides the core libraries for tracetower.
//
// # Overview
//
// Tracetower turns the node records of a multi-agent execution (users,
// agents, llm calls, tool calls, outputs) into layouts and diagrams. The
// pkg directory is organized by stage:
//
//  1. [trace] - Node model, indexing and link derivation
//  2. [io] and [source] - Reading traces from files and MongoDB
//  3. [layout] - Frontier-based Layout Tree computation
//  4. [render] - Flowchart, timeline and node-link renderers
//  5. [pipeline] - Orchestration (load → prepare → render) with caching
//  6. [server] - HTTP API over the pipeline
//
// # Architecture
//
//	Recorder (JSON export / MongoDB)
//	         ↓
//	    [io] / [source] (decode node records)
//	         ↓
//	    [trace] (derive links, build graph)
//	         ↓
//	    [layout] / [render] (Layout Tree, mermaid, DOT)
//	         ↓
//	    CLI output or HTTP response
//
// # Quick Start
//
//	doc, _ := io.ImportJSON("trace.json")
//	g, _ := trace.Build(trace.DeriveLinks(doc.Nodes))
//	fmt.Println(flowchart.FromGraph(g, flowchart.Options{}))
//
// Supporting packages: [cache] (file, Redis and null caches), [config]
// (TOML configuration), [errors] (error codes), [observability] (hooks),
// [buildinfo] (version information).
//
// [trace]: github.com/matzehuels/tracetower/pkg/trace
// [io]: github.com/matzehuels/tracetower/pkg/io
// [source]: github.com/matzehuels/tracetower/pkg/source
// [layout]: github.com/matzehuels/tracetower/pkg/layout
// [render]: github.com/matzehuels/tracetower/pkg/render
// [pipeline]: github.com/matzehuels/tracetower/pkg/pipeline
// [server]: github.com/matzehuels/tracetower/pkg/server
// [cache]: github.com/matzehuels/tracetower/pkg/cache
// [config]: github.com/matzehuels/tracetower/pkg/config
// [errors]: github.com/matzehuels/tracetower/pkg/errors
// [observability]: github.com/matzehuels/tracetower/pkg/observability
// [buildinfo]: github.com/matzehuels/tracetower/pkg/buildinfo
package pkg
