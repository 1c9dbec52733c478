package web

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/photo-booth/internal/metrics"
	"github.com/kozaktomas/photo-booth/internal/web/handlers"
	"github.com/kozaktomas/photo-booth/internal/web/middleware"
	"github.com/kozaktomas/photo-booth/internal/web/static"
)

func (s *Server) setupRoutes() {
	k := s.kiosk

	var history handlers.HistoryStore
	if k.Swaps != nil {
		history = k.Swaps
	}

	// Create handlers
	workflowHandler := handlers.NewWorkflowHandler(k.Controller, k.Gallery, s.config.Catalog)
	galleryHandler := handlers.NewGalleryHandler(k.Gallery, s.config.Catalog)
	templatesHandler := handlers.NewTemplatesHandler(k.Client, k.Gallery, s.config.Catalog)
	resultHandler := handlers.NewResultHandler(k.Controller, k.Client)
	historyHandler := handlers.NewHistoryHandler(history)
	configHandler := handlers.NewConfigHandler(s.config, k.Client, history != nil)
	authHandler := handlers.NewAuthHandler(k)

	limiter := middleware.NewRateLimiter(s.config.Web.RateLimit, s.config.Web.RateBurst)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Event stream is long-lived and must not be cut by the request timeout.
		r.Get("/events", workflowHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(5 * time.Minute))

			r.Get("/state", workflowHandler.State)
			r.Get("/config", configHandler.Get)
			r.Get("/heartbeat", configHandler.Heartbeat)

			// Login surface for kiosks without auto-login
			r.Get("/auth/status", authHandler.Status)
			r.With(limiter.Handler).Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)

			// Gallery
			r.Get("/gallery", galleryHandler.Get)
			r.Post("/gallery/refresh", galleryHandler.Refresh)

			// User templates
			r.Post("/templates", templatesHandler.Upload)
			r.Delete("/templates", templatesHandler.Delete)

			// Session commands
			r.Route("/workflow", func(r chi.Router) {
				r.Use(limiter.Handler)
				r.Post("/select", workflowHandler.Select)
				r.Post("/confirm-template", workflowHandler.ConfirmTemplate)
				r.Post("/camera/retry", workflowHandler.RetryCamera)
				r.Post("/shot", workflowHandler.TakeShot)
				r.Post("/countdown", workflowHandler.StartCountdown)
				r.Post("/reset-shot", workflowHandler.ResetShot)
				r.Post("/confirm-shot", workflowHandler.ConfirmShot)
				r.Post("/swap", workflowHandler.Swap)
				r.Post("/redo", workflowHandler.Redo)
				r.Post("/back", workflowHandler.Back)
			})

			// Result
			r.Get("/result/image", resultHandler.Image)
			r.Get("/result/qr", resultHandler.QRCode)

			// History
			r.Get("/history", historyHandler.List)
		})
	})

	// Serve the kiosk front end
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the single-page kiosk front end
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := fs.Open(path)
	if err == nil {
		defer f.Close()

		stat, err := f.Stat()
		if err == nil && !stat.IsDir() {
			contentType := "application/octet-stream"
			switch {
			case strings.HasSuffix(path, ".html"):
				contentType = "text/html; charset=utf-8"
			case strings.HasSuffix(path, ".css"):
				contentType = "text/css; charset=utf-8"
			case strings.HasSuffix(path, ".js"):
				contentType = "application/javascript; charset=utf-8"
			case strings.HasSuffix(path, ".svg"):
				contentType = "image/svg+xml"
			case strings.HasSuffix(path, ".png"):
				contentType = "image/png"
			case strings.HasSuffix(path, ".ico"):
				contentType = "image/x-icon"
			}

			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(http.StatusOK)
			io.Copy(w, f)
			return
		}
	}

	// Unknown paths fall back to the kiosk page
	indexFile, err := fs.Open("/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer indexFile.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, indexFile)
}
