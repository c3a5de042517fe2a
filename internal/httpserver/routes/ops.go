package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/handlers"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/mw"
)

func init() { Register(registerOps, opsAllowList) }

// opsAllowList restricts the operational endpoints to MARKD_ALLOWED_CIDRS.
func opsAllowList(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
	r.Handle("/metrics", promhttp.Handler())
}
