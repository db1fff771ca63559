// Package server provides the HTTP server that embeds verification sessions.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/log"
	"github.com/ayusman/humanv/internal/server/api"
	"github.com/ayusman/humanv/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Registry  *api.Registry

	// SweepInterval controls how often abandoned sessions are checked for timeout.
	SweepInterval time.Duration
}

// Server represents the HTTP server for humanv.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.SweepInterval <= 0 {
		config.SweepInterval = 10 * time.Second
	}

	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Registry != nil {
		api.NewSessionHandler(s.config.Registry).Register(s.router)
		s.router.Handle("/api/sessions/{id}/ws", NewSessionStreamHandler(s.config.Registry)).Methods(http.MethodGet)
	}

	// Register attempt log API if Store is configured
	if s.config.Store != nil {
		api.NewAttemptHandler(s.config.Store).Register(s.router)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Registry != nil {
		response.Sessions = s.config.Registry.Len()
	}

	writeJSON(w, http.StatusOK, response)
}

// Run serves on addr until ctx is cancelled, sweeping timed-out sessions in
// the background. Remaining sessions are abandoned on shutdown.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ticker.C:
			if s.config.Registry != nil {
				if n := s.config.Registry.Sweep(); n > 0 {
					log.Debug("swept sessions", zap.Int("count", n))
				}
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := srv.Shutdown(shutdownCtx)
			if s.config.Registry != nil {
				s.config.Registry.Close()
			}
			log.Info("http server stopped")
			return err
		}
	}
}
