// Package server exposes the trace pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz                  liveness probe
//	GET  /view?item_id=ID          node list of the trace containing ID
//	GET  /traces/{id}/{format}     artifact of a stored trace
//	POST /render/{format}          artifact of the trace in the request body
//
// {format} is one of the pipeline formats (layout, flowchart, timeline, dot,
// svg). Render options are taken from the query string (direction,
// output_budget, default_model, click_handler, detailed, refresh) over the
// server defaults.
//
// Errors are JSON objects {"code": ..., "message": ..., "request_id": ...}.
// Traces that cannot be rendered (empty, no root, cyclic) answer 422,
// unknown traces 404.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/source"
)

// MaxBodyBytes bounds the size of a POST /render body.
const MaxBodyBytes = 16 << 20

const shutdownTimeout = 10 * time.Second

// Server serves traces loaded from one source.
type Server struct {
	runner     *pipeline.Runner
	src        source.Source
	sourceName string
	defaults   pipeline.Options
	logger     *log.Logger
}

// New creates a server. sourceName labels src in cache keys and hooks
// ("file", "mongo"); defaults supply render options the request leaves
// unset.
func New(runner *pipeline.Runner, src source.Source, sourceName string, defaults pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:     runner,
		src:        src,
		sourceName: sourceName,
		defaults:   defaults,
		logger:     logger,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/view", s.handleView)
	r.Get("/traces/{id}/{format}", s.handleTrace)
	r.Post("/render/{format}", s.handleRender)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, apperrors.ErrCodeNotFound, "no route for "+r.URL.Path)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
