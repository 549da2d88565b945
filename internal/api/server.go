// Package api serves the tracker's HTTP JSON API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/wardenlabs/realm-tracker/internal/analytics"
	"github.com/wardenlabs/realm-tracker/internal/auth"
	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/export"
	"github.com/wardenlabs/realm-tracker/internal/ingest"
	"github.com/wardenlabs/realm-tracker/internal/metrics"
	"github.com/wardenlabs/realm-tracker/internal/model"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

// Server holds the API's collaborators and configuration.
type Server struct {
	store     store.Store
	auth      *auth.Service
	analytics *analytics.Service
	ingestor  *ingest.Ingestor
	export    *export.Builder
	cfg       *config.Config

	uploadLimiter *rate.Limiter
}

// NewServer wires the API server.
func NewServer(
	st store.Store,
	authSvc *auth.Service,
	analyticsSvc *analytics.Service,
	ingestor *ingest.Ingestor,
	exporter *export.Builder,
	cfg *config.Config,
) *Server {
	perMin := cfg.Upload.RatePerMin
	if perMin <= 0 {
		perMin = 3
	}
	return &Server{
		store:         st,
		auth:          authSvc,
		analytics:     analyticsSvc,
		ingestor:      ingestor,
		export:        exporter,
		cfg:           cfg,
		uploadLimiter: rate.NewLimiter(rate.Limit(perMin/60), int(perMin)),
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverPanics)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/search", s.handleSearch)
			r.Get("/players/{lordID}", s.handlePlayerStats)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/merits", s.handleMerits)
			r.Get("/alliances", s.handleAlliances)
			r.Get("/distribution", s.handleDistribution)
			r.Get("/inactivity", s.handleInactivity)
			r.Get("/uploads", s.handleListUploads)
			r.Get("/export", s.handleExport)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(model.RoleAdmin))
				r.Post("/upload", s.handleUpload)
				r.Post("/users", s.handleCreateUser)
				r.Get("/users", s.handleListUsers)
			})
		})
	})

	return r
}
