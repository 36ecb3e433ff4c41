package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/triplan/internal/config"
	"github.com/claude/triplan/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	log     *slog.Logger
	apiKey  string
	planCfg config.PlanConfig
	whois   WhoisFunc
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, apiKey string, planCfg config.PlanConfig, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		log:     log,
		apiKey:  apiKey,
		planCfg: planCfg,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/cycle", s.handleGenerateCycle)
		r.Put("/api/v1/weeks/{monday}", s.handleReplaceWeek)
		r.Post("/api/v1/weeks/{monday}/rebalance", s.handleRebalanceWeek)
		r.Post("/api/v1/weeks/{monday}/freeze", s.handleFreezeWeek)
		r.Delete("/api/v1/weeks/{monday}/frozen", s.handleResetFrozen)
		r.Put("/api/v1/sessions/{id}", s.handleUpdateSession)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/weeks", s.handleQueryWeeks)
	s.router.Get("/api/v1/weeks/{monday}", s.handleGetWeek)
	s.router.Get("/api/v1/weeks/{monday}/calendar.ics", s.handleWeekCalendar)
	s.router.Get("/api/v1/curve", s.handleCurve)
	s.router.Get("/api/v1/stats/load", s.handleLoadStats)
	s.router.Get("/api/v1/me", s.handleMe)
}
