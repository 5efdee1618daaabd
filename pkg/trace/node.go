package trace

import (
	"strings"
	"unicode/utf8"
)

// NodeType classifies a recorded step.
type NodeType string

const (
	TypeUser   NodeType = "user"
	TypeAgent  NodeType = "agent"
	TypeLLM    NodeType = "llm"
	TypeTool   NodeType = "tool"
	TypeOutput NodeType = "output"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeUser, TypeAgent, TypeLLM, TypeTool, TypeOutput:
		return true
	}
	return false
}

// Node is one recorded step of a multi-agent execution.
//
// Nodes are produced once by the upstream recorder and treated as read-only.
// ChildIDs describe containment (calls nested inside this node), PreIDs and
// PostIDs describe precedence between nodes of the same scope.
type Node struct {
	ID            string   `json:"id"`
	Type          NodeType `json:"type"`
	Caller        string   `json:"caller,omitempty"`
	Callee        string   `json:"callee,omitempty"`
	FatherID      string   `json:"fatherId,omitempty"`
	ChildIDs      []string `json:"childIds,omitempty"`
	PreIDs        []string `json:"preIds,omitempty"`
	PostIDs       []string `json:"postIds,omitempty"`
	ParallelGroup string   `json:"parallelGroup,omitempty"`
	SubgraphPath  string   `json:"subgraphPath,omitempty"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	Output        string   `json:"output,omitempty"`
}

// IsRoot reports whether the node has no containing node.
func (n *Node) IsRoot() bool { return n.FatherID == "" }

// clone returns a deep copy so callers can never alias ingested slices.
func (n Node) clone() Node {
	n.ChildIDs = cloneIDs(n.ChildIDs)
	n.PreIDs = cloneIDs(n.PreIDs)
	n.PostIDs = cloneIDs(n.PostIDs)
	return n
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Display-name limits shared by the layout and markup generators.
const (
	// MaxNameLength is the longest display name shown untruncated.
	MaxNameLength = 15
	// TruncatedNameLength is the number of characters kept when truncating.
	TruncatedNameLength = 12
	// Ellipsis marks a truncated name or label.
	Ellipsis = "..."
	// DefaultToolName is shown for tool nodes without a callee.
	DefaultToolName = "tool"
	// DefaultModelName is shown for llm nodes without a callee unless
	// overridden by configuration.
	DefaultModelName = "default_llm"
)

// DisplayName returns the label for n:
//
//   - agent: callee, else the node id
//   - llm: callee, else defaultModel (DefaultModelName when empty)
//   - tool: callee, else "tool"
//   - anything else: the node id
//
// Names longer than MaxNameLength characters are cut to TruncatedNameLength
// characters followed by Ellipsis.
func DisplayName(n *Node, defaultModel string) string {
	var name string
	switch n.Type {
	case TypeAgent:
		name = firstNonEmpty(n.Callee, n.ID)
	case TypeLLM:
		if defaultModel == "" {
			defaultModel = DefaultModelName
		}
		name = firstNonEmpty(n.Callee, defaultModel)
	case TypeTool:
		name = firstNonEmpty(n.Callee, DefaultToolName)
	default:
		name = n.ID
	}
	return TruncateName(name)
}

// TruncateName applies the display-name length policy to s. Lengths are
// counted in characters, not bytes.
func TruncateName(s string) string {
	if utf8.RuneCountInString(s) <= MaxNameLength {
		return s
	}
	return Truncate(s, TruncatedNameLength) + Ellipsis
}

// Truncate returns the first n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
