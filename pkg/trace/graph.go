package trace

import (
	"fmt"
	"slices"
)

// Graph is an immutable, indexed view of a trace.
//
// All lookups are O(1) after the O(n) index build in [Build]. Precedence
// queries merge both directions of the relation, so a node listed in
// A.PostIDs is a successor of A even if its own PreIDs omit A.
//
// A Graph is safe for concurrent reads.
type Graph struct {
	nodes    []*Node
	index    map[string]*Node
	order    map[string]int
	incoming map[string][]string // id -> predecessor ids (preIds ∪ transpose of postIds)
	outgoing map[string][]string // id -> successor ids (postIds ∪ transpose of preIds)
	children map[string][]string // id -> contained ids (childIds ∪ nodes naming id as father)
	warnings []DanglingReference
}

// Build indexes nodes into a Graph. The input is copied; later changes to
// it do not affect the Graph.
//
// Build fails with [ErrEmptyGraph] for an empty list, [ErrInvalidNodeID]
// for a node without id and [ErrDuplicateNodeID] when ids collide.
// References to unknown ids are recorded as [DanglingReference] warnings.
func Build(nodes []Node) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	g := &Graph{
		nodes:    make([]*Node, 0, len(nodes)),
		index:    make(map[string]*Node, len(nodes)),
		order:    make(map[string]int, len(nodes)),
		incoming: make(map[string][]string, len(nodes)),
		outgoing: make(map[string][]string, len(nodes)),
		children: make(map[string][]string, len(nodes)),
	}

	for i := range nodes {
		n := nodes[i].clone()
		if n.ID == "" {
			return nil, ErrInvalidNodeID
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
		}
		g.index[n.ID] = &n
		g.order[n.ID] = i
		g.nodes = append(g.nodes, &n)
	}

	for _, n := range g.nodes {
		for _, post := range n.PostIDs {
			if g.checkRef(n.ID, RelationPost, post) {
				g.link(n.ID, post)
			}
		}
		for _, pre := range n.PreIDs {
			if g.checkRef(n.ID, RelationPre, pre) {
				g.link(pre, n.ID)
			}
		}
		for _, child := range n.ChildIDs {
			if g.checkRef(n.ID, RelationChild, child) {
				g.contain(n.ID, child)
			}
		}
	}
	for _, n := range g.nodes {
		if n.FatherID != "" && g.checkRef(n.ID, RelationFather, n.FatherID) {
			g.contain(n.FatherID, n.ID)
		}
	}
	return g, nil
}

func (g *Graph) checkRef(id string, rel Relation, ref string) bool {
	if _, ok := g.index[ref]; ok {
		return true
	}
	g.warnings = append(g.warnings, DanglingReference{NodeID: id, Relation: rel, Ref: ref})
	return false
}

func (g *Graph) link(from, to string) {
	if !slices.Contains(g.outgoing[from], to) {
		g.outgoing[from] = append(g.outgoing[from], to)
	}
	if !slices.Contains(g.incoming[to], from) {
		g.incoming[to] = append(g.incoming[to], from)
	}
}

func (g *Graph) contain(parent, child string) {
	if !slices.Contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns the nodes in input order. The slice is a copy but the
// pointers refer to the graph's nodes, which must not be modified.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// IDs returns all node ids in input order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Has reports whether id is part of the trace.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Position returns the input index of id, or -1.
func (g *Graph) Position(id string) int {
	if i, ok := g.order[id]; ok {
		return i
	}
	return -1
}

// Last returns the last node in input order.
func (g *Graph) Last() *Node { return g.nodes[len(g.nodes)-1] }

// Root returns the first node without a father. When several candidates
// exist the first one in input order wins; this is a documented tie-break,
// not an error.
func (g *Graph) Root() (*Node, bool) {
	for _, n := range g.nodes {
		if n.IsRoot() {
			return n, true
		}
	}
	return nil, false
}

// Roots returns the top-level nodes: nodes without a father or whose father
// is not part of the trace.
func (g *Graph) Roots() []string {
	var ids []string
	for _, n := range g.nodes {
		if n.IsRoot() || !g.Has(n.FatherID) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Children returns the ids nested inside id: its known ChildIDs followed by
// any other node naming id as its father, in input order.
func (g *Graph) Children(id string) []string { return g.children[id] }

// Successors returns the precedence successors of id.
func (g *Graph) Successors(id string) []string { return g.outgoing[id] }

// Predecessors returns the precedence predecessors of id.
func (g *Graph) Predecessors(id string) []string { return g.incoming[id] }

// PredecessorsWithin returns the predecessors of id that are members of set.
func (g *Graph) PredecessorsWithin(set map[string]bool, id string) []string {
	var out []string
	for _, p := range g.incoming[id] {
		if set[p] {
			out = append(out, p)
		}
	}
	return out
}

// Warnings returns the dangling references found while building.
func (g *Graph) Warnings() []DanglingReference { return slices.Clone(g.warnings) }
