package live

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/feed"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// Handler upgrades gated requests to live views.
type Handler struct {
	upgrader websocket.Upgrader
	svc      Service
	feed     feed.Feed
	registry *Registry
	cfg      Config
	log      logger.Logger
}

// NewHandler creates the live view endpoint. allowedOrigins lists the
// origins (scheme://host[:port]) browsers may connect from; the request's own
// host is always allowed.
func NewHandler(svc Service, f feed.Feed, registry *Registry, cfg Config, allowedOrigins []string, log logger.Logger) *Handler {
	h := &Handler{
		svc:      svc,
		feed:     f,
		registry: registry,
		cfg:      cfg.withDefaults(),
		log:      log.With(logger.String("component", "live")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug("websocket upgrade failed", logger.Error(err))
		return
	}

	view := NewView(conn, id, h.svc, h.feed, h.registry, h.cfg, h.log)
	if err := view.Run(r.Context()); err != nil {
		h.log.Info("live view ended with error",
			logger.String("view_id", view.ID()),
			logger.Error(err))
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]struct{}, len(allowed))
	for _, raw := range allowed {
		if u, err := url.Parse(strings.TrimSpace(raw)); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Host)
		if host == strings.ToLower(r.Host) {
			return true
		}
		_, ok := hosts[host]
		return ok
	}
}
