package trace

import "strings"

// ScopeSeparator splits a subgraph path into nested scope names.
const ScopeSeparator = "."

// Scope is one namespace of the subgraph hierarchy.
type Scope struct {
	// Path is the full dot-separated path, e.g. "planner.search".
	Path string
	// Parent is the enclosing path, empty for a top-level scope.
	Parent string
	// Members lists the ids of nodes whose SubgraphPath equals Path, in
	// input order. Scopes implied only by a deeper path have no members.
	Members []string
}

// ParentScope returns path without its last segment, or "" for a path
// without separator.
func ParentScope(path string) string {
	i := strings.LastIndex(path, ScopeSeparator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Scopes derives the subgraph hierarchy from the nodes' SubgraphPath
// values. Scopes are returned in first-seen order; ancestors that never
// appear on their own are materialized right before their first
// descendant, outermost first.
func (g *Graph) Scopes() []Scope {
	var scopes []Scope
	idx := make(map[string]int)

	var ensure func(path string) int
	ensure = func(path string) int {
		if i, ok := idx[path]; ok {
			return i
		}
		parent := ParentScope(path)
		if parent != "" {
			ensure(parent)
		}
		idx[path] = len(scopes)
		scopes = append(scopes, Scope{Path: path, Parent: parent})
		return idx[path]
	}

	for _, n := range g.nodes {
		path := strings.Trim(n.SubgraphPath, ScopeSeparator)
		if path == "" {
			continue
		}
		i := ensure(path)
		scopes[i].Members = append(scopes[i].Members, n.ID)
	}
	return scopes
}

// ScopeOf returns the normalized subgraph path of id, or "".
func (g *Graph) ScopeOf(id string) string {
	n, ok := g.index[id]
	if !ok {
		return ""
	}
	return strings.Trim(n.SubgraphPath, ScopeSeparator)
}
