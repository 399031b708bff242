// internal/httpserver/server.go
//
// HTTP server wiring for the Riftle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Riftle endpoints: GET /riftle/status (optional auth),
//     POST /riftle/guess (requires auth),
//     GET /riftle/analytics/daily-plays.
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with player context when a valid
//     token is present; status still works for guests.

package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/guygir/RifTrade-sub001/internal/analytics"
	"github.com/guygir/RifTrade-sub001/internal/config"
	"github.com/guygir/RifTrade-sub001/internal/meta"
	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

// Server bundles the router, configuration, and the domain services.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	db       *sql.DB
	sessions *riftle.Service
	agg      *analytics.Aggregator
	meta     *meta.Store
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, db *sql.DB, sessions *riftle.Service, agg *analytics.Aggregator, metaStore *meta.Store) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, db: db, sessions: sessions, agg: agg, meta: metaStore}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromConfig(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "riftle-go",
			"endpoints": []string{"/health", "GET /riftle/status", "POST /riftle/guess", "GET /riftle/analytics/daily-plays", "/auth/*"},
		})
	})
	s.r.Get("/health", s.handleHealth)

	// Riftle endpoints
	s.r.With(s.withOptionalAuth()).Get("/riftle/status", s.handleStatus)
	s.r.With(s.requireAuth()).Post("/riftle/guess", s.handleGuess)
	s.r.Get("/riftle/analytics/daily-plays", s.handleDailyPlays)

	// Auth + profile
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// handleHealth pings the database and reports catalog snapshot freshness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	fresh, err := s.meta.IsCacheValid(r.Context(), 24*time.Hour)
	if err != nil {
		fresh = false
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "catalogFresh": fresh})
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromConfig enables credentialed CORS for a single origin.
func corsFromConfig(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
