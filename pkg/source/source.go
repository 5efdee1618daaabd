package source

import (
	"context"
	"errors"

	traceio "github.com/matzehuels/tracetower/pkg/io"
)

var (
	// ErrTraceNotFound is returned when no trace matches the requested id.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrInvalidID is returned for ids that cannot name a trace, such as an
	// empty id or one containing path separators.
	ErrInvalidID = errors.New("invalid trace id")
)

// MaxNodes caps the number of nodes loaded for one trace.
const MaxNodes = 10000

// Source loads recorded traces.
//
// The id passed to Load may name a trace or, for sources that index nodes,
// any node of the trace. Implementations return nodes in recording order
// and wrap [ErrTraceNotFound] when nothing matches.
type Source interface {
	Load(ctx context.Context, id string) (traceio.Document, error)
	Close(ctx context.Context) error
}
