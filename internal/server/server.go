// Package server exposes the scanner over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jacoelho/jscan/internal/output"
	"github.com/jacoelho/jscan/internal/ratelimit"
	"github.com/jacoelho/jscan/internal/scan"
	"github.com/jacoelho/jscan/internal/token"
)

// DefaultMaxBodyBytes caps request documents.
const DefaultMaxBodyBytes = 64 << 20

// Options hold server-wide scan settings. Zero values select defaults;
// a negative MaxDepth disables the depth limit.
type Options struct {
	Mapping      scan.FieldMapping
	Target       string
	MaxDepth     int
	Format       output.Format
	MaxBodyBytes int64
	// Limiter bounds accepted scans; nil accepts all.
	Limiter *ratelimit.Limiter
}

func (o *Options) defaults() {
	if o.Mapping.Len() == 0 {
		o.Mapping = scan.DefaultMapping()
	}
	if o.Target == "" {
		o.Target = scan.DefaultTarget
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = token.DefaultMaxDepth
	}
	if o.Format == "" {
		o.Format = output.FormatNDJSON
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server is the HTTP API for streaming extraction.
type Server struct {
	router chi.Router
	log    *slog.Logger
	opts   Options
}

func NewServer(log *slog.Logger, opts Options) *Server {
	opts.defaults()
	s := &Server{
		log:  log,
		opts: opts,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.Limiter != nil {
			r.Use(RateLimit(s.opts.Limiter))
		}
		r.Post("/scan", s.handleScan)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
