// Package server provides the HTTP server for the pinchgrab viewer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/pinchgrab/internal/app"
	"github.com/ayusman/pinchgrab/internal/capture"
	"github.com/ayusman/pinchgrab/internal/server/api"
	"github.com/ayusman/pinchgrab/internal/store"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Config holds the server configuration. Every field is optional; routes
// whose dependencies are missing are not registered.
type Config struct {
	StaticDir string
	// ModelFS serves cursor models under /models/.
	ModelFS fs.FS
	Store   *store.Store
	Camera  capture.Camera
	App     *app.App
	Hub     *LandmarkHub
}

// Server represents the HTTP server for the pinchgrab application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if a := s.config.App; a != nil {
		renderer := a.Session().Renderer
		s.mux.Handle("/api/settings", api.NewSettingsHandler(a))
		s.mux.Handle("/api/status", api.NewStatusHandler(a))
		s.mux.Handle("/api/targets", api.NewTargetsHandler(renderer, a))
		s.mux.Handle("/api/scene", NewSceneHandler(renderer, a))
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/interactions", api.NewInteractionsHandler(s.config.Store))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/landmarks", s.config.Hub)
	}

	if s.config.ModelFS != nil {
		s.mux.Handle("/models/", http.FileServer(http.FS(s.config.ModelFS)))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["ready"] = s.config.App.Ready()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on http://%s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
