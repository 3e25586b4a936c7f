// Package server exposes the tutoring platform over HTTP: the
// assignment catalog, the sandboxed execute endpoint, hints, progress,
// and a health probe.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/config"
	"github.com/ciphersql/studio/internal/domain"
	"github.com/ciphersql/studio/internal/hints"
)

// Catalog is the assignment catalog consumed by the handlers.
type Catalog interface {
	List(ctx context.Context) ([]domain.AssignmentSummary, error)
	Get(ctx context.Context, id string) (domain.Assignment, error)
	Ping(ctx context.Context) error
}

// ProgressStore records and lists per-user attempt bookkeeping.
type ProgressStore interface {
	RecordAttempt(ctx context.Context, userID, assignmentID, lastQuery string, completed bool) (domain.Progress, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Progress, error)
}

// Sandbox runs one student query inside the assignment's namespace.
type Sandbox interface {
	RunQuery(ctx context.Context, tenantKey, assignmentID, rawQuery string, spec domain.Assignment) (domain.QueryResult, error)
}

// Pinger reports reachability of the sandbox database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the studio API.
type Server struct {
	cfg      config.ServerConfig
	catalog  Catalog
	progress ProgressStore
	sandbox  Sandbox
	hinter   hints.Generator // nil when hints are not configured
	dbPing   Pinger
	logger   *zap.Logger
	router   chi.Router
	http     *http.Server
}

// New creates a new Server. hinter may be nil; the hint endpoint then
// answers 503.
func New(cfg config.ServerConfig, catalog Catalog, progress ProgressStore, sandbox Sandbox, hinter hints.Generator, dbPing Pinger, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		progress: progress,
		sandbox:  sandbox,
		hinter:   hinter,
		dbPing:   dbPing,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", s.handleListAssignments)
			r.Get("/{id}", s.handleGetAssignment)
			r.Post("/{id}/execute", s.handleExecute)
			r.Post("/{id}/hint", s.handleHint)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/{userID}", s.handleListProgress)
			r.Post("/{userID}/{assignmentID}", s.handleRecordProgress)
		})
	})
}

// Handler returns the routed handler with CORS applied, for tests and
// for the HTTP server itself.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	return c.Handler(s.router)
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.Int("port", s.cfg.Port))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
