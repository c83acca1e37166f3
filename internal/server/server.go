// Package server provides the HTTP server for the postural application.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/plugin"
	"github.com/ayusman/postural/internal/server/api"
	"github.com/ayusman/postural/internal/store"
)

// shutdownTimeout bounds graceful shutdown in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Classifier *gesture.Classifier
	Plugins    *plugin.Manager
	Preview    PreviewSource
	Toggle     api.Toggle
	Hub        *Hub
	Logger     *slog.Logger
}

// Server represents the HTTP server for the postural application.
type Server struct {
	config Config
	logger *slog.Logger
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Classifier == nil {
		config.Classifier = gesture.NewDefaultClassifier()
	}

	s := &Server{
		config: config,
		logger: logger,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/api/rules", api.NewRulesHandler(s.config.Classifier))
	r.Method(http.MethodPost, "/api/classify", api.NewClassifyHandler(s.config.Classifier))

	if s.config.Store != nil {
		r.Mount("/api/bindings", api.NewBindingHandler(s.config.Store, s.config.Classifier, s.config.Plugins).Routes())
		r.Mount("/api/events", api.NewEventHandler(s.config.Store).Routes())
	}

	if s.config.Plugins != nil {
		r.Method(http.MethodGet, "/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.Toggle != nil {
		status := api.NewStatusHandler(s.config.Toggle)
		r.Get("/api/status", status.Get)
		r.Put("/api/status", status.Put)
	}

	if s.config.Preview != nil {
		r.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.Hub != nil {
		r.Method(http.MethodGet, "/api/live", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
