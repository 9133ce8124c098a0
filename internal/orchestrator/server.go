// Package orchestrator contains the HTTP API server and the glue that
// keeps the registry, controllers and schedules in step.
package orchestrator

import (
	"context"
	"net/http"
	"time"

	"capplane/internal/orchestrator/handlers"
	"capplane/internal/orchestrator/middleware"

	"golang.org/x/time/rate"
)

// webhook intake limits, per client address
const (
	webhookRateLimit = rate.Limit(5)
	webhookBurst     = 10
)

// Server is the HTTP server for the orchestrator API.
type Server struct {
	httpServer *http.Server
}

// New creates a new orchestrator server. metricsHandler serves
// GET /metrics and may be nil.
func New(addr string, h *handlers.Handlers, metricsHandler http.Handler) *Server {
	rl := middleware.RateLimit(webhookRateLimit, webhookBurst)

	mux := http.NewServeMux()

	mux.Handle("POST /triggers/ci", rl(http.HandlerFunc(h.TriggerCI)))

	mux.HandleFunc("GET /capacities", h.ListCapacities)
	mux.HandleFunc("GET /capacities/{id}", h.GetCapacity)
	mux.HandleFunc("GET /capacities/{id}/history", h.GetCapacityHistory)
	mux.HandleFunc("POST /capacities/{id}/actions", h.ManualAction)
	mux.HandleFunc("POST /capacities/{id}/abort", h.AbortRun)

	mux.HandleFunc("POST /workspaces/{id}/assign", h.AssignWorkspace)
	mux.HandleFunc("POST /inventory/reload", h.ReloadInventory)

	mux.HandleFunc("GET /healthz", h.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      middleware.RequestID(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
