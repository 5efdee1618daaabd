// Package nodelink renders traces as traditional node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz:
// nodes appear as shapes coloured by node type, precedence edges as solid
// arrows and containment edges as dashed arrows. Subgraph scopes become
// nested clusters. It complements the Mermaid generators for cases where a
// self-contained image is preferred.
//
// # Usage
//
// Convert a trace graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include caller, callee and timestamps
//   - HideContainment: omit the dashed parent-to-child edges
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package nodelink
