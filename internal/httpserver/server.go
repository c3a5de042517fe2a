package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/mw"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/routes"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	onClose func()
}

// NewRouter builds the router (middlewares, route registration).
func NewRouter(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	// --- Global middlewares
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)           // X-Request-ID on each request
	r.Use(mw.Log(d.Logger, d.TrustProxy)) // structured access logs
	r.Use(middleware.Recoverer)           // never crash the process on panic
	r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
	r.Use(mw.Timeout(d.RequestTimeout)) // skipped for live view upgrades
	r.Use(mw.SessionGate(d.Sessions, d.Cookies, d.Logger))

	routes.RegisterAll(r, d)
	return r
}

// New builds the HTTP server. onClose runs when shutdown begins, before
// waiting for in-flight requests; it must close hijacked connections
// (live views) that Shutdown does not track.
func New(listenAddr string, d deps.Deps, onClose func()) *Server {
	s := &http.Server{
		Addr:              listenAddr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  d.Logger,
		onClose: onClose,
	}
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	if s.onClose != nil {
		s.onClose()
	}
	return s.http.Shutdown(ctx)
}
