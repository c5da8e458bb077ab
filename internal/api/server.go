// Package api exposes the writing session and diary over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tsuzuri-dev/tsuzuri/internal/journal"
	"github.com/tsuzuri-dev/tsuzuri/pkg/diary"
	"github.com/tsuzuri-dev/tsuzuri/pkg/observability"
)

// Server serves the diary API.
type Server struct {
	httpServer *http.Server
	controller *journal.Controller
	store      diary.Store
}

// NewServer creates an API server on addr.
func NewServer(addr string, controller *journal.Controller, store diary.Store) *Server {
	s := &Server{
		controller: controller,
		store:      store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/finish", s.handleFinish)
	mux.HandleFunc("POST /api/discard", s.handleDiscard)
	mux.HandleFunc("POST /api/diary/save", s.handleDiarySave)
	mux.HandleFunc("GET /api/diary/get", s.handleDiaryGet)
	mux.HandleFunc("POST /api/diary/delete", s.handleDiaryDelete)
	mux.HandleFunc("GET /api/diary/month", s.handleDiaryMonth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      metricsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		observability.RecordHTTPRequest(
			r.Method,
			r.URL.Path,
			strconv.Itoa(rec.status),
			time.Since(start),
		)
	})
}
