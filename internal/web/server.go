package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/config"
	"github.com/kozaktomas/photo-booth/internal/kiosk"
	"github.com/kozaktomas/photo-booth/internal/metrics"
	"github.com/kozaktomas/photo-booth/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	kiosk      *kiosk.Kiosk
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, port int, host string, k *kiosk.Kiosk) *Server {
	r := chi.NewRouter()

	s := &Server{
		config: cfg,
		kiosk:  k,
		router: r,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the event stream stays open for the whole session.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down web server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
