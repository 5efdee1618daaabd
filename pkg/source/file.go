package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	traceio "github.com/matzehuels/tracetower/pkg/io"
)

// FileSource reads traces from JSON files.
//
// When Path is a directory, trace "t1" is read from <Path>/t1.json. When
// Path is a file, that file is returned for every id.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource rooted at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads the trace named id.
func (s *FileSource) Load(ctx context.Context, id string) (traceio.Document, error) {
	if err := ctx.Err(); err != nil {
		return traceio.Document{}, err
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		return traceio.Document{}, fmt.Errorf("trace source %s: %w", s.Path, err)
	}

	path := s.Path
	if info.IsDir() {
		if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
			return traceio.Document{}, fmt.Errorf("%q: %w", id, ErrInvalidID)
		}
		path = filepath.Join(s.Path, id+".json")
	}

	doc, err := traceio.ImportJSON(path)
	if errors.Is(err, os.ErrNotExist) {
		return traceio.Document{}, fmt.Errorf("%s: %w", id, ErrTraceNotFound)
	}
	if err != nil {
		return traceio.Document{}, err
	}
	if doc.TraceID == "" {
		doc.TraceID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(doc.Nodes) > MaxNodes {
		doc.Nodes = doc.Nodes[:MaxNodes]
	}
	return doc, nil
}

// List returns the ids of the traces stored in a directory source, sorted
// by file name. A single-file source lists its own trace.
func (s *FileSource) List() ([]string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("trace source %s: %w", s.Path, err)
	}
	if !info.IsDir() {
		return []string{strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))}, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.Path, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = strings.TrimSuffix(filepath.Base(m), ".json")
	}
	return ids, nil
}

// Close is a no-op.
func (s *FileSource) Close(context.Context) error { return nil }
