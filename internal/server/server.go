// Package server provides the HTTP API for serve mode: triggering runs,
// reading past results and artifacts, and streaming run progress.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/internal/events"
	"github.com/aristath/quantbench/internal/harness"
	"github.com/aristath/quantbench/internal/modules/charts"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// RunTrigger starts benchmark runs and reports whether one is active.
// *harness.Runner satisfies it.
type RunTrigger interface {
	TriggerRun() error
	Running() bool
}

// Config holds server configuration.
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	Runner  RunTrigger
	History *harness.HistoryRepository
	Bus     *events.Bus
	Port    int
}

// Server represents the HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	cfg     *config.Config
	runner  RunTrigger
	history *harness.HistoryRepository
	bus     *events.Bus
	charts  *charts.Service
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		cfg:     cfg.Config,
		runner:  cfg.Runner,
		history: cfg.History,
		bus:     cfg.Bus,
		charts:  charts.NewService(cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// The run stream is a long-lived socket, so it stays outside the
		// request timeout group.
		r.Get("/runs/stream", s.handleRunStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Post("/runs", s.handleTriggerRun)
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/latest", s.handleLatestRun)
			r.Get("/runs/{runID}", s.handleGetRun)
			r.Get("/report", s.handleReport)
			r.Get("/charts", s.handleListCharts)
			r.Get("/charts/{name}", s.handleGetChart)
			r.Get("/system/stats", s.handleSystemStats)
		})
	})
}

// Start starts the HTTP server. It blocks until the listener closes.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
