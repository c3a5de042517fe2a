package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/handlers"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/mw"
)

func init() { Register(registerAuth, authRateLimit) }

// authRateLimit throttles sign-in attempts per client IP.
func authRateLimit(d deps.Deps) Middleware {
	return mw.RateLimit(mw.RateLimitConfig{
		Name:              "auth",
		Burst:             d.AuthRateBurst,
		RefillPerIPPerMin: d.AuthRatePerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
}

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", handlers.AuthLogin(d))
		r.Get("/callback", handlers.AuthCallback(d))
		r.Post("/signout", handlers.AuthSignout(d))
	})
}
