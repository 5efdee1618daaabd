// Package layout orders the nodes of a trace into a nested Layout Tree.
//
// # Overview
//
// A trace is a DAG of calls: precedence edges say which call ran after
// which, containment edges say which calls ran inside another. The layout
// engine turns that into a tree a renderer can walk top to bottom:
//
//   - leaves and containers for nodes (containers hold the layout of their
//     children)
//   - parallel containers for members of the same parallel group that became
//     ready together
//   - joins for frontiers that produced several elements
//   - connectors between consecutive frontiers
//
// # Frontier Expansion
//
// Within one containment scope, the engine starts from the members without
// an in-scope predecessor and advances one frontier at a time. A member
// joins a frontier only after every in-scope predecessor has been
// processed, so the output never shows a node ahead of something it
// follows. A scope that cannot be fully processed yields a
// [*trace.CycleError] naming the stuck members.
//
// # Usage
//
//	g, err := trace.Build(nodes)
//	if err != nil {
//	    return err
//	}
//	tree, err := layout.New(g, layout.Options{}).LayoutTrace()
//
// Every node reachable from the trace roots appears in the tree exactly once.
package layout
