// Package server exposes the operator HTTP API over the forwarder
// service: status, start/stop monitoring, ledger listing, the manual
// trigger and Prometheus metrics.
package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"autoswap/internal/observability"
)

// Server routes operator requests to the forwarder service.
type Server struct {
	service *handlerService
	logger  *log.Logger
}

// New creates a server over the given service.
func New(svc Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{service: &handlerService{svc}, logger: logger}
}

// Router builds the chi router with all operator routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/hyperliquid", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Get("/transactions", s.handleTransactions)
		r.Post("/manual-process", s.handleManualProcess)
		r.Get("/health", s.handleHealth)
	})
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	return r
}
