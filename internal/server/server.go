// internal/server/server.go
package server

import (
	"net/http"
	"os"
	"time"

	"client-onboarding/internal/common/config"
	"client-onboarding/internal/common/docstore"
	"client-onboarding/internal/common/logger"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers are the workflow endpoints mounted by the router.
type Handlers struct {
	CheckDuplicate http.Handler
	Submit         http.Handler
	Approve        http.Handler
}

type Server struct {
	config   *config.Config
	store    docstore.Store
	handlers Handlers
	logger   logger.Logger
	base     logger.Logger
	now      func() time.Time
	env      func(string) (string, bool)
}

func New(cfg *config.Config, store docstore.Store, handlers Handlers, log logger.Logger) *Server {
	return &Server{
		config:   cfg,
		store:    store,
		handlers: handlers,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
		base:     log,
		now:      time.Now,
		env:      os.LookupEnv,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/check-duplicate", s.handlers.CheckDuplicate)
		r.Method(http.MethodPost, "/submit", s.handlers.Submit)
		r.Method(http.MethodGet, "/approve", s.handlers.Approve)
		r.Get("/diagnostics", s.diagnostics)
		r.Get("/diagnostics/drives", s.drives)
	})

	r.Method(http.MethodGet, "/approve", s.handlers.Approve)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
