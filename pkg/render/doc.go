// Package render groups the text renderers for recorded traces.
//
// Every renderer consumes an indexed [trace.Graph] and returns plain text:
//
//   - [flowchart]: mermaid flowchart code following precedence links, with
//     subgraphs for nested calls and parallel groups
//   - [timeline]: mermaid gantt code with one section per caller
//   - [nodelink]: Graphviz DOT with one cluster per subgraph scope, and SVG
//     rendering of that DOT through Graphviz
//
// The renderers are pure functions of their input; caching and format
// selection live in the pipeline package.
//
// [trace.Graph]: github.com/matzehuels/tracetower/pkg/trace.Graph
// [flowchart]: github.com/matzehuels/tracetower/pkg/render/flowchart
// [timeline]: github.com/matzehuels/tracetower/pkg/render/timeline
// [nodelink]: github.com/matzehuels/tracetower/pkg/render/nodelink
package render
