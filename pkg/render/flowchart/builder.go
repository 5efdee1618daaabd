package flowchart

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// builder accumulates flowchart lines per section and assembles them in a
// fixed order. It refuses duplicate declarations, edges and class
// assignments.
type builder struct {
	header  []string
	scopes  []string
	decls   []string
	edges   []string
	classes []string

	declared map[string]bool
	linked   map[[2]string]bool
	classed  map[string]bool
}

func newBuilder() *builder {
	return &builder{
		declared: make(map[string]bool),
		linked:   make(map[[2]string]bool),
		classed:  make(map[string]bool),
	}
}

func (b *builder) headerLine(format string, args ...any) {
	b.header = append(b.header, fmt.Sprintf(format, args...))
}

func (b *builder) scopeLine(format string, args ...any) {
	b.scopes = append(b.scopes, fmt.Sprintf(format, args...))
}

func (b *builder) declare(id, label string) bool {
	if b.declared[id] {
		return false
	}
	b.declared[id] = true
	b.decls = append(b.decls, fmt.Sprintf("%s[\"%s\"]", id, label))
	return true
}

func (b *builder) edge(from, to string) {
	if from == to {
		return
	}
	key := [2]string{from, to}
	if b.linked[key] {
		return
	}
	b.linked[key] = true
	b.edges = append(b.edges, from+" --> "+to)
}

func (b *builder) class(id, style string) {
	if b.classed[id] {
		return
	}
	b.classed[id] = true
	b.classes = append(b.classes, "class "+id+" "+style)
}

func (b *builder) String() string {
	var buf bytes.Buffer
	for _, section := range [][]string{b.header, b.scopes, b.decls, b.edges, b.classes} {
		for _, line := range section {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// reserved lists keywords that cannot be used as bare node ids.
var reserved = map[string]bool{
	"end":       true,
	"graph":     true,
	"flowchart": true,
	"subgraph":  true,
	"class":     true,
	"classdef":  true,
	"click":     true,
	"style":     true,
	"linkstyle": true,
	"direction": true,
	"default":   true,
}

// namer maps trace ids and scope paths to unique markup identifiers.
type namer struct {
	taken map[string]bool
	ids   map[string]string
}

func newNamer() *namer {
	return &namer{taken: make(map[string]bool), ids: make(map[string]string)}
}

// node returns the markup id for a trace node id.
func (n *namer) node(id string) string {
	if safe, ok := n.ids[id]; ok {
		return safe
	}
	safe := n.unique(sanitizeID(id))
	n.taken[safe] = true
	n.ids[id] = safe
	return safe
}

// scope returns the markup id for a subgraph path. The derived entry and
// exit placeholder ids are reserved along with it.
func (n *namer) scope(path string) string {
	key := "\x00scope:" + path
	if safe, ok := n.ids[key]; ok {
		return safe
	}
	base := sanitizeID(strings.ReplaceAll(path, ".", "__"))
	safe := base
	for i := 2; n.taken[safe] || n.taken[entryID(safe)] || n.taken[exitID(safe)]; i++ {
		safe = base + "_" + strconv.Itoa(i)
	}
	n.taken[safe] = true
	n.taken[entryID(safe)] = true
	n.taken[exitID(safe)] = true
	n.ids[key] = safe
	return safe
}

func (n *namer) unique(base string) string {
	safe := base
	for i := 2; n.taken[safe]; i++ {
		safe = base + "_" + strconv.Itoa(i)
	}
	return safe
}

func entryID(scope string) string { return scope + "_entry" }
func exitID(scope string) string  { return scope + "_exit" }

// sanitizeID replaces every character outside [A-Za-z0-9_] with an
// underscore and steers clear of reserved keywords.
func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "node"
	}
	if reserved[strings.ToLower(out)] {
		return out + "_"
	}
	return out
}

var labelEscaper = strings.NewReplacer(
	`"`, "#quot;",
	"<", "#lt;",
	">", "#gt;",
	"\r", "",
	"\n", " ",
)

// escapeLabel makes s safe inside a quoted node label.
func escapeLabel(s string) string {
	return labelEscaper.Replace(s)
}
