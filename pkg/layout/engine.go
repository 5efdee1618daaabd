package layout

import "github.com/matzehuels/tracetower/pkg/trace"

// RootContainerID is the container id used by [Engine.LayoutTrace].
const RootContainerID = "root"

// Options configures element labels.
type Options struct {
	// DefaultModel labels llm nodes that have no callee.
	DefaultModel string
}

// Engine lays out the nodes of one trace. It holds no state between calls;
// concurrent calls on the same Engine are safe.
type Engine struct {
	g    *trace.Graph
	opts Options
}

// New creates an Engine over g.
func New(g *trace.Graph, opts Options) *Engine {
	return &Engine{g: g, opts: opts}
}

// LayoutTrace lays out the whole trace: the top-level nodes of g (see
// [trace.Graph.Roots]) under [RootContainerID], recursing into containment.
func (e *Engine) LayoutTrace() (Tree, error) {
	return e.Layout(e.g.Roots(), RootContainerID)
}

// Layout orders nodeIDs into a Layout Tree by frontier expansion over the
// precedence relation restricted to nodeIDs.
//
// The entry frontier holds the members without an in-set predecessor. Each
// frontier becomes one step of the tree: members sharing a parallel group
// are wrapped in a parallel container, several results are wrapped in a
// join, and consecutive steps are separated by a connector. A member only
// enters a frontier once all its in-set predecessors have been processed,
// so no node ever precedes a node it follows.
//
// Nodes with children become containers holding the recursive layout of
// their children. Unknown ids are ignored and a node is never placed twice,
// which also stops containment cycles.
//
// If the expansion stalls with members left over (a precedence cycle, or
// members whose predecessors are unreachable), Layout returns a
// [*trace.CycleError] listing them.
func (e *Engine) Layout(nodeIDs []string, containerID string) (Tree, error) {
	st := &state{placed: make(map[string]bool)}
	elems, err := e.layoutScope(st, nodeIDs, containerID)
	if err != nil {
		return Tree{}, err
	}
	return Tree{ContainerID: containerID, Elements: elems}, nil
}

// state is local to one Layout call.
type state struct {
	placed map[string]bool
}

func (e *Engine) layoutScope(st *state, nodeIDs []string, containerID string) ([]Element, error) {
	members := make(map[string]bool, len(nodeIDs))
	ids := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if !e.g.Has(id) || members[id] {
			continue
		}
		members[id] = true
		ids = append(ids, id)
	}

	pending := make(map[string]int, len(ids))
	var frontier []string
	for _, id := range ids {
		n := len(e.g.PredecessorsWithin(members, id))
		pending[id] = n
		if n == 0 {
			frontier = append(frontier, id)
		}
	}

	processed := make(map[string]bool, len(ids))
	var out []Element
	for len(frontier) > 0 {
		elems, err := e.frontierElements(st, frontier)
		if err != nil {
			return nil, err
		}
		if len(elems) > 0 {
			if len(out) > 0 {
				out = append(out, Element{Kind: KindConnector})
			}
			if len(elems) > 1 {
				out = append(out, Element{Kind: KindJoin, Children: elems})
			} else {
				out = append(out, elems[0])
			}
		}
		for _, id := range frontier {
			processed[id] = true
		}
		frontier = e.nextFrontier(frontier, members, processed, pending)
	}

	if len(processed) < len(ids) {
		var unreachable []string
		for _, id := range ids {
			if !processed[id] {
				unreachable = append(unreachable, id)
			}
		}
		return nil, &trace.CycleError{ContainerID: containerID, Unreachable: unreachable}
	}
	return out, nil
}

// nextFrontier releases the successors of frontier whose in-set
// predecessors are now all processed, in discovery order.
func (e *Engine) nextFrontier(frontier []string, members, processed map[string]bool, pending map[string]int) []string {
	var next []string
	for _, id := range frontier {
		for _, s := range e.g.Successors(id) {
			if !members[s] || processed[s] {
				continue
			}
			pending[s]--
			if pending[s] == 0 {
				next = append(next, s)
			}
		}
	}
	return next
}

// bucket is either a parallel group or a single node, in first-seen order.
type bucket struct {
	group string
	ids   []string
}

func (e *Engine) frontierElements(st *state, frontier []string) ([]Element, error) {
	var buckets []bucket
	groupIdx := make(map[string]int)
	for _, id := range frontier {
		n, _ := e.g.Node(id)
		if n.ParallelGroup == "" {
			buckets = append(buckets, bucket{ids: []string{id}})
			continue
		}
		if i, ok := groupIdx[n.ParallelGroup]; ok {
			buckets[i].ids = append(buckets[i].ids, id)
			continue
		}
		groupIdx[n.ParallelGroup] = len(buckets)
		buckets = append(buckets, bucket{group: n.ParallelGroup, ids: []string{id}})
	}

	var elems []Element
	for _, b := range buckets {
		var branches []Element
		for _, id := range b.ids {
			el, ok, err := e.element(st, id)
			if err != nil {
				return nil, err
			}
			if ok {
				branches = append(branches, el)
			}
		}
		switch {
		case len(branches) > 1:
			elems = append(elems, Element{Kind: KindParallel, Group: b.group, Children: branches})
		case len(branches) == 1:
			elems = append(elems, branches[0])
		}
	}
	return elems, nil
}

// element builds the leaf or container for id. It reports false when id was
// already placed elsewhere in this layout.
func (e *Engine) element(st *state, id string) (Element, bool, error) {
	if st.placed[id] {
		return Element{}, false, nil
	}
	st.placed[id] = true

	n, _ := e.g.Node(id)
	el := Element{
		Kind:   KindLeaf,
		NodeID: n.ID,
		Type:   n.Type,
		Label:  trace.DisplayName(n, e.opts.DefaultModel),
	}
	if children := e.g.Children(id); len(children) > 0 {
		nested, err := e.layoutScope(st, children, id)
		if err != nil {
			return Element{}, false, err
		}
		el.Kind = KindContainer
		el.Children = nested
	}
	return el, true, nil
}
