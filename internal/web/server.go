package web

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/emiliopalmerini/timecode/internal/ingest"
	"github.com/emiliopalmerini/timecode/internal/stats"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// maxBodyBytes bounds a POST /events body; 500 events fit comfortably.
const maxBodyBytes = 8 << 20

type Server struct {
	db     *sql.DB
	router chi.Router
	addr   string
	ingest *ingest.Service
	stats  *stats.Service
	logger zerolog.Logger
}

func NewServer(addr string, db *sql.DB, ing *ingest.Service, st *stats.Service, logger zerolog.Logger) *Server {
	s := &Server{
		db:     db,
		router: chi.NewRouter(),
		addr:   addr,
		ingest: ing,
		stats:  st,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.logger))
	s.router.Use(recoverer(s.logger))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.With(middleware.RequestSize(maxBodyBytes)).Post("/events", s.handleIngestEvents)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/project-daily", rangeHandler(s, s.stats.ProjectDaily))
			r.Get("/weekday", rangeHandler(s, s.stats.Weekday))
			r.Get("/languages", rangeHandler(s, s.stats.Languages))
			r.Get("/daily-totals", rangeHandler(s, s.stats.DailyTotals))
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, s.logger, "no route for "+r.URL.Path)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, s.logger, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", s.addr).Msg("Starting server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
