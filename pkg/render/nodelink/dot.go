package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds caller, callee and timestamps to node labels.
	// When false, only the display name is shown.
	Detailed bool
	// DefaultModel labels llm nodes without a callee.
	DefaultModel string
	// HideContainment drops the dashed parent-to-child edges.
	HideContainment bool
}

// ToDOT converts a trace graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Every subgraph scope becomes a cluster, nested like the scope paths.
// Precedence edges are solid; containment edges are dashed.
func ToDOT(g *trace.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	scopes := g.Scopes()
	children := make(map[string][]trace.Scope)
	for _, s := range scopes {
		children[s.Parent] = append(children[s.Parent], s)
	}

	for _, n := range g.Nodes() {
		if g.ScopeOf(n.ID) != "" {
			continue
		}
		writeNode(&buf, "  ", n, opts)
	}
	for i, s := range children[""] {
		writeCluster(&buf, g, s, children, opts, "  ", strconv.Itoa(i))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, to := range g.Successors(n.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.ID, to)
		}
		if opts.HideContainment {
			continue
		}
		for _, child := range g.Children(n.ID) {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey50, arrowhead=empty];\n", n.ID, child)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeCluster(buf *bytes.Buffer, g *trace.Graph, s trace.Scope, children map[string][]trace.Scope, opts Options, indent, suffix string) {
	fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, suffix)
	inner := indent + "  "
	fmt.Fprintf(buf, "%slabel=%q;\n", inner, s.Path)
	fmt.Fprintf(buf, "%sstyle=\"rounded,dashed\";\n", inner)
	fmt.Fprintf(buf, "%scolor=grey60;\n", inner)
	for _, id := range s.Members {
		n, _ := g.Node(id)
		writeNode(buf, inner, n, opts)
	}
	for i, c := range children[s.Path] {
		writeCluster(buf, g, c, children, opts, inner, suffix+"_"+strconv.Itoa(i))
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func writeNode(buf *bytes.Buffer, indent string, n *trace.Node, opts Options) {
	label := fmtLabel(n, opts)
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(fmtAttrs(n, label), ", "))
}

func fmtLabel(n *trace.Node, opts Options) string {
	name := trace.DisplayName(n, opts.DefaultModel)
	if !opts.Detailed {
		return name
	}

	parts := []string{name}
	if n.Caller != "" {
		parts = append(parts, "caller: "+n.Caller)
	}
	if n.Callee != "" && n.Callee != name {
		parts = append(parts, "callee: "+n.Callee)
	}
	if n.CreatedAt != "" {
		parts = append(parts, "start: "+n.CreatedAt)
	}
	if n.UpdatedAt != "" {
		parts = append(parts, "end: "+n.UpdatedAt)
	}
	return strings.Join(parts, "\n")
}

// typeAttrs holds the shape and colour for each node type.
var typeAttrs = map[trace.NodeType][]string{
	trace.TypeUser:   {"shape=ellipse", "fillcolor=\"#fde68a\""},
	trace.TypeAgent:  {"fillcolor=\"#bfdbfe\""},
	trace.TypeLLM:    {"shape=hexagon", "fillcolor=\"#ddd6fe\""},
	trace.TypeTool:   {"shape=component", "fillcolor=\"#bbf7d0\""},
	trace.TypeOutput: {"shape=note", "fillcolor=\"#e5e7eb\""},
}

func fmtAttrs(n *trace.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if extra, ok := typeAttrs[n.Type]; ok {
		attrs = append(attrs, extra...)
	}
	if n.ParallelGroup != "" {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from its
// viewBox instead of fixed point sizes.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
