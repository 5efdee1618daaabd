// Package errors provides structured error types for the tracetower
// application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// Structural failures of a trace (EMPTY_GRAPH, NO_ROOT_NODE, CYCLIC_GRAPH)
// mean the trace cannot be rendered. INVALID_* codes are caller mistakes,
// NOT_FOUND and UNAVAILABLE come from trace sources and caches.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid trace id: %s", id)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Map errors from the library packages
//	code := errors.Classify(err)
//	w.WriteHeader(errors.HTTPStatus(code))
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/matzehuels/tracetower/pkg/cache"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/source"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	ErrCodeEmptyGraph  Code = "EMPTY_GRAPH"
	ErrCodeNoRootNode  Code = "NO_ROOT_NODE"
	ErrCodeCyclicGraph Code = "CYCLIC_GRAPH"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Resource errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnavailable Code = "UNAVAILABLE"
	ErrCodeTimeout     Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Classify returns the code of err: the code of an *Error in the chain,
// otherwise the code matching a known sentinel error, otherwise
// ErrCodeInternal. Classify(nil) returns "".
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, trace.ErrEmptyGraph), errors.Is(err, traceio.ErrNoNodes):
		return ErrCodeEmptyGraph
	case errors.Is(err, trace.ErrNoRootNode):
		return ErrCodeNoRootNode
	case errors.Is(err, trace.ErrDisconnectedOrCyclic):
		return ErrCodeCyclicGraph
	case errors.Is(err, trace.ErrInvalidNodeID),
		errors.Is(err, trace.ErrDuplicateNodeID),
		errors.Is(err, traceio.ErrMissingType):
		return ErrCodeInvalidInput
	case errors.Is(err, source.ErrInvalidID):
		return ErrCodeInvalidID
	case errors.Is(err, source.ErrTraceNotFound):
		return ErrCodeNotFound
	case errors.Is(err, cache.ErrUnavailable):
		return ErrCodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}

// IsStructural reports whether code means the trace itself cannot be
// rendered.
func IsStructural(code Code) bool {
	switch code {
	case ErrCodeEmptyGraph, ErrCodeNoRootNode, ErrCodeCyclicGraph:
		return true
	}
	return false
}

// HTTPStatus maps a code to the HTTP status the API responds with.
func HTTPStatus(code Code) int {
	switch code {
	case "":
		return http.StatusOK
	case ErrCodeEmptyGraph, ErrCodeNoRootNode, ErrCodeCyclicGraph:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidID:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// Structural failures are reported as "cannot render this trace" followed
// by the reason. Other errors are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if IsStructural(Classify(err)) {
		return "cannot render this trace: " + err.Error()
	}
	return err.Error()
}
