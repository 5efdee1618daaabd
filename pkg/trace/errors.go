package trace

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyGraph is returned by [Build] when the node list is empty.
	ErrEmptyGraph = errors.New("trace contains no nodes")

	// ErrNoRootNode is returned when no plausible root can be chosen.
	ErrNoRootNode = errors.New("no root node")

	// ErrDisconnectedOrCyclic is matched by [*CycleError] when layout stalls
	// with unprocessed nodes left.
	ErrDisconnectedOrCyclic = errors.New("disconnected or cyclic graph")

	// ErrInvalidNodeID is returned by [Build] for a node with an empty id.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Build] when two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")
)

// CycleError reports the nodes a layout could not reach, either because a
// precedence cycle blocks them or because none of their predecessors is
// reachable from the entry frontier.
type CycleError struct {
	ContainerID string
	Unreachable []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s in %q: unreachable nodes [%s]",
		ErrDisconnectedOrCyclic, e.ContainerID, strings.Join(e.Unreachable, ", "))
}

// Is makes errors.Is(err, ErrDisconnectedOrCyclic) succeed.
func (e *CycleError) Is(target error) bool { return target == ErrDisconnectedOrCyclic }

// Relation names the field a reference was found in.
type Relation string

const (
	RelationChild  Relation = "childIds"
	RelationPre    Relation = "preIds"
	RelationPost   Relation = "postIds"
	RelationFather Relation = "fatherId"
)

// DanglingReference is a reference to an id that is not part of the trace.
// It is never fatal: the edge or child is skipped.
type DanglingReference struct {
	NodeID   string
	Relation Relation
	Ref      string
}

func (d DanglingReference) String() string {
	return fmt.Sprintf("node %s: %s references unknown node %s", d.NodeID, d.Relation, d.Ref)
}
