package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/cache"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/source"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "node %d has no id", 3)
	if err.Code != ErrCodeInvalidInput || err.Message != "node 3 has no id" {
		t.Errorf("New() = {%v, %q}, want {%v, %q}", err.Code, err.Message, ErrCodeInvalidInput, "node 3 has no id")
	}
	if got, want := err.Error(), "INVALID_INPUT: node 3 has no id"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("lay out root: %w", trace.ErrDisconnectedOrCyclic)
	err := Wrap(ErrCodeCyclicGraph, cause, "cannot lay out trace %s", "t1")

	if err.Code != ErrCodeCyclicGraph || errors.Unwrap(err) != cause {
		t.Errorf("Wrap() = {%v, %v}, want {%v, %v}", err.Code, errors.Unwrap(err), ErrCodeCyclicGraph, cause)
	}
	if !errors.Is(err, trace.ErrDisconnectedOrCyclic) {
		t.Error("errors.Is(err, ErrDisconnectedOrCyclic) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeUnavailable,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeUnavailable,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidID, "test"),
			expected: ErrCodeInvalidID,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage_Structural(t *testing.T) {
	err := fmt.Errorf("layout: %w", trace.ErrEmptyGraph)
	got := UserMessage(err)
	if !strings.HasPrefix(got, "cannot render this trace: ") {
		t.Errorf("UserMessage() = %q, want cannot render prefix", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"coded", New(ErrCodeInvalidFormat, "bad"), ErrCodeInvalidFormat},
		{"empty graph", trace.ErrEmptyGraph, ErrCodeEmptyGraph},
		{"no nodes", fmt.Errorf("read: %w", traceio.ErrNoNodes), ErrCodeEmptyGraph},
		{"no root", trace.ErrNoRootNode, ErrCodeNoRootNode},
		{"cycle", fmt.Errorf("render layout: %w", &trace.CycleError{ContainerID: "root", Unreachable: []string{"a"}}), ErrCodeCyclicGraph},
		{"duplicate id", fmt.Errorf("%w: a", trace.ErrDuplicateNodeID), ErrCodeInvalidInput},
		{"missing type", traceio.ErrMissingType, ErrCodeInvalidInput},
		{"invalid id", source.ErrInvalidID, ErrCodeInvalidID},
		{"not found", fmt.Errorf("load t: %w", source.ErrTraceNotFound), ErrCodeNotFound},
		{"cache down", cache.ErrUnavailable, ErrCodeUnavailable},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"other", errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{"", http.StatusOK},
		{ErrCodeEmptyGraph, http.StatusUnprocessableEntity},
		{ErrCodeNoRootNode, http.StatusUnprocessableEntity},
		{ErrCodeCyclicGraph, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
