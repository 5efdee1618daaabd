// Package trace models a recorded multi-agent execution as a graph of
// trace nodes.
//
// # Overview
//
// A trace is a flat list of [Node] records produced by the agent runtime:
// one per user turn, agent invocation, LLM call or tool call. Four
// independent relations live on the same node set:
//
//   - Containment: FatherID / ChildIDs nest calls inside their caller
//   - Precedence: PreIDs / PostIDs order siblings within a scope
//   - Concurrency: nodes sharing a ParallelGroup ran side by side
//   - Scoping: SubgraphPath places a node in a dot-separated namespace
//
// # Building a Graph
//
// [Build] indexes the list once and answers lookups in O(1):
//
//	g, err := trace.Build(nodes)
//	if err != nil {
//	    return err // trace.ErrEmptyGraph, trace.ErrDuplicateNodeID, ...
//	}
//	root, _ := g.Root()
//	next := g.Successors(root.ID)
//
// Malformed references never abort a build. They are collected as
// [DanglingReference] values available from [Graph.Warnings] and the
// offending edge is ignored by every query.
//
// Recorders often store only one direction of each relation. [DeriveLinks]
// returns a copy with PostIDs and ChildIDs filled in from PreIDs and
// FatherID.
//
// # Display Names
//
// [DisplayName] implements the labelling policy shared by the layout engine
// and the markup generators, including truncation of long names.
//
// # Concurrency
//
// A [Graph] is never modified after [Build] and may be shared between
// goroutines.
package trace
