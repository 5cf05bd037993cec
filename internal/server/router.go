// Package server wires the HTTP surface: auth gate, device endpoints and
// command endpoints, plus unauthenticated health and metrics.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sifis-home/wp6-mobile-application-api/internal/command"
	"github.com/sifis-home/wp6-mobile-application-api/internal/config"
	"github.com/sifis-home/wp6-mobile-application-api/internal/configstore"
	"github.com/sifis-home/wp6-mobile-application-api/internal/identity"
	"github.com/sifis-home/wp6-mobile-application-api/internal/status"
)

// Version is reported by the health endpoint.
const Version = "0.2.0"

// Logger builds the process logger at the configured level.
func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.Level()).With().Timestamp().Logger()
	return &logger
}

// Server holds the loaded identity and the components behind the handlers.
// The identity and the stores are injected once at startup and live for the
// whole process; there is no teardown.
type Server struct {
	identity *identity.DeviceIdentity
	store    *configstore.Store
	reporter *status.Reporter
	dispatch *command.Dispatcher
	logger   *zerolog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New assembles a server from its components.
func New(id *identity.DeviceIdentity, store *configstore.Store, reporter *status.Reporter, dispatch *command.Dispatcher, logger *zerolog.Logger) *Server {
	return &Server{
		identity: id,
		store:    store,
		reporter: reporter,
		dispatch: dispatch,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// StopRequested is closed after a successful restart or shutdown command so
// main can stop the listener once the response has been sent.
func (s *Server) StopRequested() <-chan struct{} { return s.stopCh }

func (s *Server) requestStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.observe)

	// The mobile application may load the companion page from another
	// origin on the local link.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireKey)

		pr.Get("/device/status", s.handleStatus)
		pr.Get("/device/configuration", s.handleGetConfig)
		pr.Put("/device/configuration", s.handlePutConfig)

		pr.Get("/command/{name}", s.handleCommand)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":      true,
		"product": s.identity.ProductName,
		"version": Version,
	})
}
