// Package io provides JSON import and export for traces.
//
// # Overview
//
// Traces reach tracetower as JSON written by the agent runtime's recorder,
// saved from the viewer API, or produced by hand for tests. This package
// reads all of those shapes into a [Document] and writes one canonical
// shape back out.
//
// # JSON Format
//
// The canonical format is an object with a "nodes" array:
//
//	{
//	  "trace_id": "t-42",
//	  "nodes": [
//	    {"id": "n1", "type": "user", "caller": "user", "postIds": ["n2"]},
//	    {"id": "n2", "type": "agent", "callee": "master", "preIds": ["n1"]}
//	  ]
//	}
//
// [ReadJSON] also accepts:
//
//   - a bare array of nodes
//   - the API response wrapper {"code": 200, "data": {"nodes": [...]}}
//   - recorder field names: node_id, node_type, father_node_id,
//     child_node_ids, pre_node_ids, post_node_ids, parallel_id,
//     subgraph_path, create_time, update_time
//
// Id lists may be given as a single string; blank ids are dropped.
// Non-string caller, callee, timestamp and output values are kept as
// compact JSON text.
//
// # Import
//
// Use [ImportJSON] to read a trace from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	doc, err := io.ImportJSON("trace.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Import checks only per-node requirements (id and type). Cross-node
// checks such as duplicate ids happen in [trace.Build].
//
// # Export
//
// Use [ExportJSON] to write a trace to a file, or [WriteJSON] to write to
// any io.Writer. [WriteLayout] encodes a computed Layout Tree for external
// renderers.
package io
