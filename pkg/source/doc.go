// Package source loads recorded traces.
//
// Two implementations of [Source] are provided:
//
//   - [FileSource] reads JSON files, either one file per trace in a
//     directory or a single file
//   - [MongoSource] queries the node collection written by the agent
//     runtime, where every node is a document carrying its trace_id
//
// Ids handed to a MongoSource may name either a trace or any of its nodes,
// which lets a link to a single node open the whole trace.
package source
