package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/tracetower/pkg/trace"
)

var (
	// ErrNoNodes is returned when a document carries no node list.
	ErrNoNodes = errors.New("document has no nodes")

	// ErrMissingType is returned for a node without a type.
	ErrMissingType = errors.New("node type is required")
)

// Document is a trace as stored on disk or returned by the API.
type Document struct {
	TraceID string       `json:"trace_id,omitempty"`
	Nodes   []trace.Node `json:"nodes"`
}

// envelope covers the object shapes a trace can arrive in: a bare
// {"nodes": ...} document or the API response {"code": ..., "data": {...}}.
type envelope struct {
	TraceID string          `json:"trace_id"`
	Nodes   json.RawMessage `json:"nodes"`
	Data    *struct {
		TraceID string          `json:"trace_id"`
		Nodes   json.RawMessage `json:"nodes"`
	} `json:"data"`
}

// record accepts both the camelCase schema and the recorder's snake_case
// field names.
type record struct {
	ID            string `json:"id"`
	NodeID        string `json:"node_id"`
	Type          string `json:"type"`
	NodeType      string `json:"node_type"`
	TraceID       string `json:"trace_id"`
	Caller        text   `json:"caller"`
	Callee        text   `json:"callee"`
	FatherID      string `json:"fatherId"`
	FatherNodeID  string `json:"father_node_id"`
	ChildIDs      idList `json:"childIds"`
	ChildNodeIDs  idList `json:"child_node_ids"`
	PreIDs        idList `json:"preIds"`
	PreNodeIDs    idList `json:"pre_node_ids"`
	PostIDs       idList `json:"postIds"`
	PostNodeIDs   idList `json:"post_node_ids"`
	ParallelGroup string `json:"parallelGroup"`
	ParallelID    string `json:"parallel_id"`
	SubgraphPath  string `json:"subgraphPath"`
	SubgraphPath2 string `json:"subgraph_path"`
	CreatedAt     text   `json:"createdAt"`
	CreateTime    text   `json:"create_time"`
	UpdatedAt     text   `json:"updatedAt"`
	UpdateTime    text   `json:"update_time"`
	Output        text   `json:"output"`
}

// ReadJSON decodes a trace from r.
//
// The input may be a bare array of node records, an object with a "nodes"
// array (and optional "trace_id"), or an API response wrapping that object
// under "data". Records may use either camelCase or snake_case field names
// (node_id, node_type, father_node_id, pre_node_ids, parallel_id,
// create_time, ...). Id lists may be a single string, and empty ids inside
// them are dropped, so [""] means "none".
//
// ReadJSON fails on malformed JSON, a missing node list, a node without id
// ([trace.ErrInvalidNodeID]) or type ([ErrMissingType]). It does not check
// references between nodes; that is [trace.Build]'s job. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	return decode(data)
}

// ImportJSON reads the trace stored in the JSON file at path.
func ImportJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := ReadJSON(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func decode(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Document{}, ErrNoNodes
	}

	var doc Document
	rawNodes := json.RawMessage(data)
	if data[0] == '{' {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return Document{}, fmt.Errorf("decode: %w", err)
		}
		doc.TraceID = env.TraceID
		rawNodes = env.Nodes
		if len(rawNodes) == 0 && env.Data != nil {
			doc.TraceID = env.Data.TraceID
			rawNodes = env.Data.Nodes
		}
		if len(rawNodes) == 0 || string(rawNodes) == "null" {
			return Document{}, ErrNoNodes
		}
	}

	var records []record
	if err := json.Unmarshal(rawNodes, &records); err != nil {
		return Document{}, fmt.Errorf("decode nodes: %w", err)
	}

	doc.Nodes = make([]trace.Node, 0, len(records))
	for i, rec := range records {
		n, err := rec.node()
		if err != nil {
			return Document{}, fmt.Errorf("node %d: %w", i, err)
		}
		if doc.TraceID == "" {
			doc.TraceID = rec.TraceID
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, nil
}

func (r record) node() (trace.Node, error) {
	n := trace.Node{
		ID:            pick(r.ID, r.NodeID),
		Type:          trace.NodeType(strings.ToLower(strings.TrimSpace(pick(r.Type, r.NodeType)))),
		Caller:        string(r.Caller),
		Callee:        string(r.Callee),
		FatherID:      pick(r.FatherID, r.FatherNodeID),
		ChildIDs:      merge(r.ChildIDs, r.ChildNodeIDs),
		PreIDs:        merge(r.PreIDs, r.PreNodeIDs),
		PostIDs:       merge(r.PostIDs, r.PostNodeIDs),
		ParallelGroup: pick(r.ParallelGroup, r.ParallelID),
		SubgraphPath:  pick(r.SubgraphPath, r.SubgraphPath2),
		CreatedAt:     pick(string(r.CreatedAt), string(r.CreateTime)),
		UpdatedAt:     pick(string(r.UpdatedAt), string(r.UpdateTime)),
		Output:        string(r.Output),
	}
	if n.ID == "" {
		return trace.Node{}, trace.ErrInvalidNodeID
	}
	if n.Type == "" {
		return trace.Node{}, fmt.Errorf("%s: %w", n.ID, ErrMissingType)
	}
	return n, nil
}

func pick(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}

func merge(a, b idList) []string {
	if len(a) > 0 {
		return a
	}
	if len(b) > 0 {
		return b
	}
	return nil
}

// idList decodes a list of ids that may also be written as one string or
// null. Blank entries are dropped.
type idList []string

func (l *idList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = clean([]string{single})
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("id list: %w", err)
	}
	*l = clean(many)
	return nil
}

func clean(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// text decodes a string field that the recorder may also store as a number
// or as structured JSON. Non-string values are kept in their compact JSON
// form.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*t = text(buf.String())
	return nil
}
