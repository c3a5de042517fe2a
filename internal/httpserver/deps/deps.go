package deps

import (
	"net/http"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/bookmarks"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/view"
	"github.com/sweedalp/smart-bookmark-app/internal/live"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/scheduler"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time       // for testing, defaults to time.Now
	AllowedHosts   []string               // Host headers allowed to access the server
	AllowedCIDRS   []string               // IPs allowed to access healthz/readyz/infra/metrics
	TrustProxy     bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout time.Duration          // per-request timeout for non-streaming routes
	AuthRateBurst  int                    // token bucket size for /auth/*
	AuthRatePerMin int                    // token refill per client IP per minute for /auth/*
	Sessions       *auth.Manager          // session credential resolution
	Flow           *auth.Flow             // OAuth authorization-code flow
	Cookies        auth.Cookies           // cookie writer
	Bookmarks      *bookmarks.Service     // owner-scoped bookmark operations
	Live           http.Handler           // WebSocket live view endpoint
	Registry       *live.Registry         // mounted live views
	Health         *scheduler.HealthProbe // cached component status
	Renderer       *view.Renderer         // HTML pages
}
