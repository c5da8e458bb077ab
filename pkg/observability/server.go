package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Server exposes health and metrics endpoints on a dedicated port,
// separate from the diary API.
type Server struct {
	httpServer *http.Server
}

// NewServer creates an observability server listening on the given port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/health/live", LivenessHandler())
	mux.HandleFunc("/health/ready", ReadinessHandler())
	mux.Handle("/metrics", MetricsHandler())

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start starts the observability server and blocks until it stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
