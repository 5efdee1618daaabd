// Package flowchart generates Mermaid flowchart markup for a trace.
//
// # Overview
//
// The output is plain text for an external diagram library. It is built in
// five sections that always appear in the same order:
//
//   - header: init directive, direction, invisible class definition
//   - scope blocks: one subgraph per subgraph path, with invisible entry
//     and exit placeholders, followed by parent-to-child scope links
//   - node declarations: one per node, labelled with its display name
//   - edges: containment and precedence, routed through scope placeholders
//     when they cross a scope boundary
//   - class assignments: agent, llm, tool, output or subgraph
//
// The last node of the input is the output node. Its label is its output
// text and its class is "output".
//
// # Safety
//
// Node ids are reduced to [A-Za-z0-9_], keep clear of Mermaid keywords and
// are made unique. Labels escape quotes and angle brackets as entity codes,
// so trace content cannot break out of a label.
//
// # Usage
//
//	code, err := flowchart.Generate(nodes, flowchart.Options{})
package flowchart
