// Package server provides the HTTP surface of airtrail: JSON state and
// settings, stored strokes, a trail preview, the camera stream and a
// WebSocket feed of per-frame snapshots.
package server

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"gocv.io/x/gocv"

	"github.com/ayusman/airtrail/internal/app"
	"github.com/ayusman/airtrail/internal/gesture"
	"github.com/ayusman/airtrail/internal/hook"
	"github.com/ayusman/airtrail/internal/store"
	"github.com/ayusman/airtrail/pkg/logger"
	"github.com/ayusman/airtrail/pkg/metrics"
)

// Engine is the live pipeline the API reads from and controls. *app.App
// implements it.
type Engine interface {
	Snapshot() app.Snapshot
	Thresholds() gesture.Thresholds
	ApplyThresholds(ctx context.Context, th gesture.Thresholds) error
	ClearTrail()
	Preview(w io.Writer, size image.Point) error
	LatestFrame() (gocv.Mat, bool)
	Subscribe(fn func(app.Snapshot)) (unsubscribe func())
}

// Config holds the server configuration. Routes whose collaborator is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    Engine
	Hooks     *hook.Manager
	Metrics   *metrics.Manager
	// StreamFPS caps the MJPEG frame rate. Zero uses DefaultStreamFPS.
	StreamFPS int
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
	hub    *Hub
	log    logger.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Metrics == nil {
		config.Metrics = metrics.Default()
	}
	if config.StreamFPS <= 0 {
		config.StreamFPS = DefaultStreamFPS
	}
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
		log:    logger.Named("server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.HandleFunc("/api/health", s.instrument(s.handleHealth, "health")).Methods(http.MethodGet)
	r.Handle("/metrics", s.config.Metrics.Handler()).Methods(http.MethodGet)

	if s.config.Engine != nil {
		r.HandleFunc("/api/state", s.instrument(s.handleState, "state")).Methods(http.MethodGet)
		r.HandleFunc("/api/settings", s.instrument(s.handleGetSettings, "settings")).Methods(http.MethodGet)
		r.HandleFunc("/api/settings", s.instrument(s.handlePutSettings, "settings")).Methods(http.MethodPut)
		r.HandleFunc("/api/trail/clear", s.instrument(s.handleClearTrail, "trail_clear")).Methods(http.MethodPost)
		r.HandleFunc("/api/trail.png", s.instrument(s.handlePreview, "trail_png")).Methods(http.MethodGet)

		r.Handle("/api/stream", NewStreamHandler(s.config.Engine, s.config.StreamFPS)).Methods(http.MethodGet)

		s.hub = NewHub(s.config.Engine, s.config.Metrics)
		r.Handle("/api/hands", s.hub).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		strokes := &strokeHandler{repo: s.config.Store.Strokes(), log: s.log}
		r.HandleFunc("/api/strokes", s.instrument(strokes.list, "strokes")).Methods(http.MethodGet)
		r.HandleFunc("/api/strokes/{id}", s.instrument(strokes.get, "stroke")).Methods(http.MethodGet)
		r.HandleFunc("/api/strokes/{id}", s.instrument(strokes.delete, "stroke")).Methods(http.MethodDelete)
	}

	if s.config.Hooks != nil {
		hooks := &hookHandler{manager: s.config.Hooks, log: s.log}
		r.HandleFunc("/api/hooks", s.instrument(hooks.list, "hooks")).Methods(http.MethodGet)
		r.HandleFunc("/api/hooks/rescan", s.instrument(hooks.rescan, "hooks_rescan")).Methods(http.MethodPost)
	}

	// Serve the renderer if the static directory exists
	if s.config.StaticDir != "" {
		if info, err := os.Stat(s.config.StaticDir); err == nil && info.IsDir() {
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir))).Methods(http.MethodGet)
		}
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

func (s *Server) instrument(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(s.config.Metrics, next, endpoint)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// Close disconnects WebSocket clients.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
