package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitalsync/internal/control"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *control.Service
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *control.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
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

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Post("/sync", s.handleTriggerSync)
		r.Get("/sync/latest", s.handleLatestSync)
		r.Get("/sync/log", s.handleSyncLog)

		r.Get("/metrics", s.handleListMetrics)
		r.Put("/metrics/{recordType}", s.handleSetMetric)

		r.Get("/preferences/duration", s.handleGetDuration)
		r.Put("/preferences/duration", s.handleSetDuration)
	})
}
