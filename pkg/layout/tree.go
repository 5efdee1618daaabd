package layout

import "github.com/matzehuels/tracetower/pkg/trace"

// Kind tags the variant of an [Element].
type Kind string

const (
	// KindLeaf is a node without nested calls.
	KindLeaf Kind = "leaf"
	// KindContainer is a node whose nested calls are laid out in Children.
	// Whether it is shown expanded or collapsed is up to the renderer.
	KindContainer Kind = "container"
	// KindParallel holds one branch per member of a parallel group.
	KindParallel Kind = "parallel"
	// KindJoin groups the elements of a frontier that produced more than one.
	KindJoin Kind = "join"
	// KindConnector separates consecutive frontiers.
	KindConnector Kind = "connector"
)

// Element is one item of a Layout Tree. Only the fields relevant to Kind are
// set: NodeID, Type and Label for leaves and containers, Group for parallel
// containers, Children for containers, parallel containers and joins.
type Element struct {
	Kind     Kind           `json:"kind"`
	NodeID   string         `json:"node_id,omitempty"`
	Type     trace.NodeType `json:"type,omitempty"`
	Label    string         `json:"label,omitempty"`
	Group    string         `json:"group,omitempty"`
	Children []Element      `json:"children,omitempty"`
}

// Tree is the ordered layout of one containment scope.
type Tree struct {
	ContainerID string    `json:"container_id"`
	Elements    []Element `json:"elements"`
}

// IsNode reports whether the element stands for a trace node.
func (e Element) IsNode() bool { return e.Kind == KindLeaf || e.Kind == KindContainer }

// Walk calls fn for every element in depth-first order, parents first.
// Returning false from fn skips the element's children.
func Walk(elements []Element, fn func(e Element, depth int) bool) {
	walk(elements, 0, fn)
}

func walk(elements []Element, depth int, fn func(Element, int) bool) {
	for _, e := range elements {
		if fn(e, depth) {
			walk(e.Children, depth+1, fn)
		}
	}
}

// NodeIDs returns the ids of all node elements in tree order.
func (t Tree) NodeIDs() []string {
	var ids []string
	Walk(t.Elements, func(e Element, _ int) bool {
		if e.IsNode() {
			ids = append(ids, e.NodeID)
		}
		return true
	})
	return ids
}
