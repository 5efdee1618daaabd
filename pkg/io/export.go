package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tracetower/pkg/layout"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// WriteJSON encodes doc in the canonical camelCase schema and writes it to
// w. The output can be re-imported with [ReadJSON].
func WriteJSON(doc Document, w io.Writer) error {
	return encode(doc, w)
}

// ExportJSON writes doc to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

// WriteLayout encodes a Layout Tree as indented JSON.
func WriteLayout(tree layout.Tree, w io.Writer) error {
	return encode(tree, w)
}

// Canonical returns the compact camelCase encoding of nodes. Equal node
// lists always encode to equal bytes, which makes the result usable as a
// content hash input.
func Canonical(nodes []trace.Node) ([]byte, error) {
	data, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("encode nodes: %w", err)
	}
	return data, nil
}

func encode(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
