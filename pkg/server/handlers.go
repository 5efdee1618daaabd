package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/tracetower/pkg/buildinfo"
	apperrors "github.com/matzehuels/tracetower/pkg/errors"
	traceio "github.com/matzehuels/tracetower/pkg/io"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/trace"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

// viewResponse mirrors the recorder API's wrapper so the body can be fed
// back into any tracetower command.
type viewResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    viewDocument `json:"data"`
}

type viewDocument struct {
	TraceID string       `json:"trace_id"`
	Nodes   []trace.Node `json:"nodes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

// handleView returns the nodes of the trace containing item_id with reverse
// links derived.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("item_id")
	if err := apperrors.ValidateID("item_id", id); err != nil {
		s.fail(w, r, err)
		return
	}
	doc, _, err := s.runner.Load(r.Context(), s.src, s.sourceName, id, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewResponse{
		Code:    http.StatusOK,
		Message: "SUCCESS",
		Data:    viewDocument{TraceID: doc.TraceID, Nodes: trace.DeriveLinks(doc.Nodes)},
	})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := apperrors.ValidateID("trace id", id); err != nil {
		s.fail(w, r, err)
		return
	}
	format, opts, err := s.options(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.runner.ExecuteSource(r.Context(), s.src, s.sourceName, id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeArtifact(w, format, res)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, opts, err := s.options(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	doc, err := traceio.ReadJSON(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		if apperrors.Classify(err) == apperrors.ErrCodeInternal {
			err = apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid trace document")
		}
		s.fail(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeArtifact(w, format, res)
}

// options reads the format path parameter and the render options in the
// query string over the server defaults.
func (s *Server) options(r *http.Request) (string, pipeline.Options, error) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		return "", pipeline.Options{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "unsupported format %q", format)
	}

	opts := s.defaults
	opts.Formats = []string{format}

	q := r.URL.Query()
	if v := q.Get("direction"); v != "" {
		opts.Direction = v
	}
	if v := q.Get("default_model"); v != "" {
		opts.DefaultModel = v
	}
	if v := q.Get("click_handler"); v != "" {
		opts.ClickHandler = v
	}
	if v := q.Get("output_budget"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return "", pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "output_budget must be a positive integer")
		}
		opts.OutputBudget = n
	}
	for name, dst := range map[string]*bool{
		"detailed":     &opts.Detailed,
		"refresh":      &opts.Refresh,
		"derive_links": &opts.DeriveLinks,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "%s must be a boolean", name)
			}
			*dst = b
		}
	}

	if err := opts.Validate(); err != nil {
		return "", pipeline.Options{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid render options")
	}
	return format, opts, nil
}

// fail maps err to a status code and writes the error body. Server-side
// failures are logged; caller mistakes are not.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.Classify(err)
	status := apperrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	writeError(w, r, status, code, apperrors.UserMessage(err))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code apperrors.Code, msg string) {
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	})
}

func writeArtifact(w http.ResponseWriter, format string, res *pipeline.Result) {
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("X-Trace-Hash", res.TraceHash)
	if len(res.Warnings) > 0 {
		w.Header().Set("X-Trace-Warnings", strconv.Itoa(len(res.Warnings)))
	}
	if len(res.CacheInfo.Hits) > 0 {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
