package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/tracetower/pkg/errors"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/observability"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/render/flowchart"
	"github.com/matzehuels/tracetower/pkg/render/timeline"
	"github.com/matzehuels/tracetower/pkg/source"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func sampleDoc() traceio.Document {
	return traceio.Document{
		TraceID: "t1",
		Nodes: []trace.Node{
			{ID: "u", Type: trace.TypeUser, Caller: "user", CreatedAt: "2025-01-01 10:00:00"},
			{ID: "a", Type: trace.TypeAgent, Caller: "user", Callee: "planner", PreIDs: []string{"u"}, CreatedAt: "2025-01-01 10:00:01"},
			{ID: "l", Type: trace.TypeLLM, Caller: "planner", FatherID: "a", CreatedAt: "2025-01-01 10:00:02"},
			{ID: "o", Type: trace.TypeOutput, Caller: "planner", PreIDs: []string{"a"}, Output: "done", CreatedAt: "2025-01-01 10:00:03"},
		},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	if err := traceio.ExportJSON(sampleDoc(), filepath.Join(dir, "t1.json")); err != nil {
		t.Fatal(err)
	}
	logger := log.New(&strings.Builder{})
	runner := pipeline.NewRunner(nil, nil, logger)
	return New(runner, source.NewFileSource(dir), "file", pipeline.Options{DeriveLinks: true}, logger).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q, want abc-123", RequestIDHeader, got)
	}
}

func TestView(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/view?item_id=t1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()

	var resp viewResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != http.StatusOK || resp.Message != "SUCCESS" {
		t.Errorf("wrapper = {%d, %q}, want {200, \"SUCCESS\"}", resp.Code, resp.Message)
	}

	// The body is a valid trace document again.
	doc, err := traceio.ReadJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("view body does not re-import: %v", err)
	}
	if doc.TraceID != "t1" || len(doc.Nodes) != 4 {
		t.Errorf("doc = %q with %d nodes", doc.TraceID, len(doc.Nodes))
	}
	if got := doc.Nodes[1].ChildIDs; len(got) != 1 || got[0] != "l" {
		t.Errorf("agent ChildIDs = %v, want derived [l]", got)
	}
	if got := doc.Nodes[0].PostIDs; len(got) != 1 || got[0] != "a" {
		t.Errorf("user PostIDs = %v, want derived [a]", got)
	}
}

func TestView_Errors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		target string
		status int
		code   apperrors.Code
	}{
		{"/view", http.StatusBadRequest, apperrors.ErrCodeInvalidID},
		{"/view?item_id=nope", http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"/view?item_id=..", http.StatusBadRequest, apperrors.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, tt.target, "")
		if rec.Code != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.target, rec.Code, tt.status)
			continue
		}
		if resp := decodeError(t, rec); resp.Code != tt.code || resp.RequestID == "" {
			t.Errorf("GET %s body = %+v, want code %s", tt.target, resp, tt.code)
		}
	}
}

func TestTraceArtifacts(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"flowchart", "text/plain", flowchart.InitDirective},
		{"timeline", "text/plain", timeline.ChartDirective},
		{"dot", "text/vnd.graphviz", "digraph G {"},
		{"layout", "application/json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/traces/t1/"+tt.format, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body = %q, want prefix %q", rec.Body.String(), tt.prefix)
			}
			if rec.Header().Get("X-Trace-Hash") == "" {
				t.Error("missing X-Trace-Hash")
			}
		})
	}
}

func TestTraceQueryOptions(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/traces/t1/flowchart?direction=lr", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "flowchart LR") {
		t.Errorf("body does not use direction LR:\n%s", rec.Body.String())
	}

	for _, target := range []string{
		"/traces/t1/flowchart?direction=up",
		"/traces/t1/flowchart?output_budget=-1",
		"/traces/t1/dot?detailed=maybe",
		"/traces/t1/pdf",
	} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestTraceNotFound(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/traces/missing/flowchart", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRender(t *testing.T) {
	h := newTestServer(t)
	body := `{"nodes": [
		{"node_id": "u", "node_type": "user", "caller": "user", "create_time": "2025-01-01 10:00:00"},
		{"node_id": "t", "node_type": "tool", "caller": "user", "callee": "search", "pre_node_ids": "u", "create_time": "2025-01-01 10:00:01"}
	]}`
	rec := do(t, h, http.MethodPost, "/render/timeline", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "search :t,") {
		t.Errorf("timeline does not contain the tool task:\n%s", rec.Body.String())
	}
}

func TestRender_Errors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   apperrors.Code
	}{
		{"malformed", "/render/flowchart", `{"nodes": [`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"no nodes", "/render/flowchart", `{"trace_id": "x"}`, http.StatusUnprocessableEntity, apperrors.ErrCodeEmptyGraph},
		{"empty list", "/render/timeline", `[]`, http.StatusUnprocessableEntity, apperrors.ErrCodeEmptyGraph},
		{"duplicate ids", "/render/flowchart", `[{"id":"a","type":"user"},{"id":"a","type":"tool"}]`, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"cycle", "/render/layout", `[{"id":"a","type":"agent","preIds":["b"]},{"id":"b","type":"agent","preIds":["a"]}]`, http.StatusUnprocessableEntity, apperrors.ErrCodeCyclicGraph},
		{"bad format", "/render/png", `[]`, http.StatusBadRequest, apperrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body = %s", rec.Code, tt.status, rec.Body.String())
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != apperrors.ErrCodeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes   []string
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	h := newTestServer(t)
	do(t, h, http.MethodGet, "/traces/t1/dot", "")
	do(t, h, http.MethodGet, "/traces/missing/dot", "")

	if len(hooks.routes) != 2 || hooks.routes[0] != "/traces/{id}/{format}" {
		t.Errorf("routes = %v, want the route pattern", hooks.routes)
	}
	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [200 404]", hooks.statuses)
	}
}
