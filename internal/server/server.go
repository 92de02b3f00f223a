// Package server exposes published artifacts over HTTP through the artifact
// cache, plus health, status and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/folio/internal/cache"
	"git.home.luguber.info/inful/folio/internal/daemon"
	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/generator"
	"git.home.luguber.info/inful/folio/internal/history"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	smw "git.home.luguber.info/inful/folio/internal/server/middleware"
)

const defaultStatusHistory = 20

// ArtifactGetter answers artifact lookups.
type ArtifactGetter interface {
	Get(ctx context.Context, collection, resource, ifNoneMatch string) (*cache.Response, error)
}

// StatusProvider reports sync state for /status.
type StatusProvider interface {
	Status() []daemon.CollectionStatus
	History(ctx context.Context, limit int) ([]history.Pass, error)
}

// Options configures a Server.
type Options struct {
	Addr        string
	Collections []string
	Artifacts   ArtifactGetter
	// Status is optional; /status is not served without it.
	Status StatusProvider
	// Registry is optional; /metrics is not served without it.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Server is the HTTP read path.
type Server struct {
	opts         Options
	collections  map[string]bool
	errorAdapter *ferrors.HTTPErrorAdapter
	handler      http.Handler
	httpServer   *http.Server
}

// New builds the routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		opts:         opts,
		collections:  make(map[string]bool, len(opts.Collections)),
		errorAdapter: ferrors.NewHTTPErrorAdapter(opts.Logger),
	}
	for _, c := range opts.Collections {
		s.collections[c] = true
	}

	mux := http.NewServeMux()
	artifacts := gzhttp.GzipHandler(http.HandlerFunc(s.handleArtifact))
	mux.Handle("GET /{collection}/{resource}", artifacts)
	mux.Handle("GET /{collection}/{$}", artifacts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	// Disabled endpoints still get a route; otherwise the collection index
	// pattern would redirect them to "/status/" and "/metrics/".
	if opts.Status != nil {
		mux.HandleFunc("GET /status", s.handleStatus)
	} else {
		mux.HandleFunc("GET /status", http.NotFound)
	}
	if opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(opts.Registry))
	} else {
		mux.HandleFunc("GET /metrics", http.NotFound)
	}
	s.handler = smw.Chain(opts.Logger, s.errorAdapter)(mux)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listen address and serves in the background. Bind errors
// are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", s.opts.Addr, err)
	}
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	s.opts.Logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.opts.Logger.Info("HTTP server stopped")
	return nil
}

// handleArtifact serves one artifact. Every failure is a 404 to the client;
// storage failures are logged at error level.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	resource := r.PathValue("resource")
	if resource == "" {
		resource = generator.KeyIndex
	}
	if !s.collections[collection] {
		http.NotFound(w, r)
		return
	}

	resp, err := s.opts.Artifacts.Get(r.Context(), collection, resource, r.Header.Get("If-None-Match"))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.opts.Logger.Error("Artifact lookup failed",
				logfields.Collection(collection),
				logfields.Resource(resource),
				logfields.Error(err))
		}
		http.NotFound(w, r)
		return
	}

	h := w.Header()
	h.Set("ETag", resp.ETag)
	if resp.FromCache {
		h.Set(smw.CacheHeader, "hit")
	} else {
		h.Set(smw.CacheHeader, "miss")
	}
	if resp.Status == cache.StatusNotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", resp.ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

type statusResponse struct {
	Collections []daemon.CollectionStatus `json:"collections"`
	History     []history.Pass            `json:"history"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	limit := defaultStatusHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorAdapter.WriteErrorResponse(w, r, ferrors.ValidationFailed("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	passes, err := s.opts.Status.History(r.Context(), limit)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, ferrors.InternalError("load sync history", err))
		return
	}
	if passes == nil {
		passes = []history.Pass{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{Collections: s.opts.Status.Status(), History: passes})
}
