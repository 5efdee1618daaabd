package flowchart

import (
	"slices"
	"strings"

	"github.com/matzehuels/tracetower/pkg/trace"
)

const (
	// InitDirective is the first line of every flowchart.
	InitDirective = `%%{init: {"flowchart": {"curve": "basis", "htmlLabels": true}}}%%`
	// InvisibleClassDef hides the synthetic scope entry and exit nodes.
	InvisibleClassDef = "classDef invisible fill:none,stroke:none,color:none;"
	// LineBreak separates lines inside a node label.
	LineBreak = "<br>"

	// DefaultDirection is the flowchart direction when none is set.
	DefaultDirection = "TD"
	// DefaultOutputBudget is the output label length when none is set.
	DefaultOutputBudget = 30
)

// Style classes assigned to nodes and scopes.
const (
	StyleAgent    = "agent"
	StyleLLM      = "llm"
	StyleTool     = "tool"
	StyleOutput   = "output"
	StyleSubgraph = "subgraph"
)

// Options configures flowchart generation.
type Options struct {
	// DefaultModel labels llm nodes without a callee.
	DefaultModel string
	// OutputBudget is the number of characters of the output node's first
	// line shown before it is cut with an ellipsis. Defaults to
	// [DefaultOutputBudget].
	OutputBudget int
	// Direction is the flowchart direction (TD, LR, ...). Defaults to
	// [DefaultDirection].
	Direction string
}

func (o Options) withDefaults() Options {
	if o.OutputBudget <= 0 {
		o.OutputBudget = DefaultOutputBudget
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	return o
}

// Generate renders nodes as flowchart markup. It fails with
// [trace.ErrNoRootNode] for an empty list and with the [trace.Build]
// errors for invalid ids.
func Generate(nodes []trace.Node, opts Options) (string, error) {
	if len(nodes) == 0 {
		return "", trace.ErrNoRootNode
	}
	g, err := trace.Build(nodes)
	if err != nil {
		return "", err
	}
	return FromGraph(g, opts), nil
}

// FromGraph renders an already indexed trace. Output is deterministic for a
// given node order.
func FromGraph(g *trace.Graph, opts Options) string {
	opts = opts.withDefaults()
	b := newBuilder()
	names := newNamer()

	// Node ids claim their names before scopes so plain ids stay unchanged.
	for _, id := range g.IDs() {
		names.node(id)
	}

	b.headerLine("%s", InitDirective)
	b.headerLine("flowchart %s", opts.Direction)
	b.headerLine("%s", InvisibleClassDef)

	writeScopes(b, names, g.Scopes())

	last := g.Last().ID
	order := traversal(g, Root(g).ID)
	for _, id := range order {
		n, _ := g.Node(id)
		safe := names.node(id)
		if id == last {
			b.declare(safe, outputLabel(n, opts))
			b.class(safe, StyleOutput)
			continue
		}
		b.declare(safe, escapeLabel(trace.DisplayName(n, opts.DefaultModel)))
		b.class(safe, styleFor(n.Type))
	}

	for _, id := range order {
		for _, to := range neighbors(g, id) {
			writeEdge(b, names, g.ScopeOf(id), g.ScopeOf(to), names.node(id), names.node(to))
		}
	}
	return b.String()
}

// Root returns the node a flowchart starts from: the first top-level node
// called by the user, else the first node.
func Root(g *trace.Graph) *trace.Node {
	nodes := g.Nodes()
	for _, n := range nodes {
		if n.IsRoot() && n.Caller == "user" {
			return n
		}
	}
	return nodes[0]
}

func writeScopes(b *builder, names *namer, scopes []trace.Scope) {
	for _, s := range scopes {
		safe := names.scope(s.Path)
		b.scopeLine("subgraph %s[\"%s\"]", safe, escapeLabel(s.Path))
		for _, id := range s.Members {
			b.scopeLine("    %s", names.node(id))
		}
		b.scopeLine("    %s:::invisible", entryID(safe))
		b.scopeLine("    %s:::invisible", exitID(safe))
		b.scopeLine("end")
		b.class(safe, StyleSubgraph)
	}
	for _, s := range scopes {
		if s.Parent == "" {
			continue
		}
		b.scopeLine("%s --> %s", exitID(names.scope(s.Parent)), entryID(names.scope(s.Path)))
	}
}

// writeEdge connects from and to, routing through the synthetic entry or
// exit of a scope when the edge crosses into or out of it.
func writeEdge(b *builder, names *namer, fromScope, toScope, from, to string) {
	switch {
	case fromScope == toScope:
		b.edge(from, to)
	case fromScope == "" && toScope != "":
		entry := entryID(names.scope(toScope))
		b.edge(from, entry)
		b.edge(entry, to)
	case fromScope != "" && toScope == "":
		exit := exitID(names.scope(fromScope))
		b.edge(from, exit)
		b.edge(exit, to)
	default:
		b.edge(from, to)
	}
}

// traversal returns every node id once: a depth-first walk from root along
// children then successors, followed by walks from any node not reached,
// in input order.
func traversal(g *trace.Graph, root string) []string {
	visited := make(map[string]bool, g.Len())
	order := make([]string, 0, g.Len())

	walk := func(start string) {
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			order = append(order, id)

			next := neighbors(g, id)
			for i := len(next) - 1; i >= 0; i-- {
				if !visited[next[i]] {
					stack = append(stack, next[i])
				}
			}
		}
	}

	walk(root)
	for _, id := range g.IDs() {
		if !visited[id] {
			walk(id)
		}
	}
	return order
}

func neighbors(g *trace.Graph, id string) []string {
	next := slices.Clone(g.Children(id))
	for _, s := range g.Successors(id) {
		if !slices.Contains(next, s) {
			next = append(next, s)
		}
	}
	return next
}

func styleFor(t trace.NodeType) string {
	switch t {
	case trace.TypeLLM:
		return StyleLLM
	case trace.TypeTool:
		return StyleTool
	case trace.TypeOutput:
		return StyleOutput
	default:
		return StyleAgent
	}
}

// outputLabel renders the output node's text. A first line longer than the
// budget is cut with an ellipsis and the rest dropped; otherwise all lines
// are kept, joined with [LineBreak].
func outputLabel(n *trace.Node, opts Options) string {
	text := strings.TrimSpace(strings.ReplaceAll(n.Output, "\r\n", "\n"))
	if text == "" {
		return escapeLabel(trace.DisplayName(n, opts.DefaultModel))
	}

	lines := strings.Split(text, "\n")
	if first := lines[0]; len([]rune(first)) > opts.OutputBudget {
		return escapeLabel(trace.Truncate(first, opts.OutputBudget) + trace.Ellipsis)
	}
	for i, line := range lines {
		lines[i] = escapeLabel(line)
	}
	return strings.Join(lines, LineBreak)
}
