// Package server exposes registered modules over an HTTP validation API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
)

// Config configures a Server
type Config struct {
	Addr     string
	Registry *fortios.Registry // Defaults to fortios.Default()
	Logger   logger.Logger
}

// Server serves module specs and version checks
type Server struct {
	registry   *fortios.Registry
	log        logger.Logger
	metrics    *metrics
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and its routes
func New(cfg Config) *Server {
	s := &Server{
		registry: cfg.Registry,
		log:      cfg.Logger,
	}
	if s.registry == nil {
		s.registry = fortios.Default()
	}
	if s.log == nil {
		s.log = logger.NewSilentLogger()
	}

	// Isolated registry so tests can build more than one server
	reg := prometheus.NewRegistry()
	s.metrics = newMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/v1/modules", func(r chi.Router) {
		r.Get("/", s.listHandler)
		r.Get("/{module}/spec", s.specHandler)
		r.Post("/{module}/validate", s.validateHandler)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ServeHTTP lets the server be mounted or tested without listening
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Validation API listening", logger.F("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("Shutting down validation API")
	return s.httpServer.Shutdown(shutdownCtx)
}
