package handlers

import (
	"errors"
	"net/http"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
)

const loginFailedURL = "/login?error=auth_failed"

// AuthLogin starts the OAuth flow: it stores a fresh state, pins it to the
// browser with a short-lived cookie and redirects to the provider.
func AuthLogin(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, redirectURL, err := d.Flow.Begin(r.Context(), r.URL.Query().Get("next"))
		if err != nil {
			d.Logger.Error("failed to start sign-in", logger.Error(err))
			metrics.AuthAttempts.WithLabelValues("error").Inc()
			http.Redirect(w, r, loginFailedURL, http.StatusFound)
			return
		}

		d.Cookies.SetState(w, state, d.Flow.StateTTL())
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// AuthCallback completes the OAuth flow and opens a session.
// Any failure lands on the sign-in page with the auth_failed indicator.
func AuthCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		cookieState := auth.ReadCookie(r, auth.StateCookie)
		d.Cookies.ClearState(w)

		if providerErr := q.Get("error"); providerErr != "" {
			d.Logger.Info("provider declined sign-in", logger.String("error", providerErr))
			metrics.AuthAttempts.WithLabelValues("declined").Inc()
			http.Redirect(w, r, loginFailedURL, http.StatusFound)
			return
		}

		id, next, err := d.Flow.Complete(r.Context(), q.Get("state"), cookieState, q.Get("code"), q.Get("next"))
		if err != nil {
			result := "failed"
			if errors.Is(err, domain.ErrStateMismatch) {
				result = "state_mismatch"
			}
			d.Logger.Warn("sign-in failed", logger.String("result", result), logger.Error(err))
			metrics.AuthAttempts.WithLabelValues(result).Inc()
			http.Redirect(w, r, loginFailedURL, http.StatusFound)
			return
		}

		session, token, err := d.Sessions.Create(r.Context(), id)
		if err != nil {
			d.Logger.Error("failed to create session", logger.Error(err))
			metrics.AuthAttempts.WithLabelValues("error").Inc()
			http.Redirect(w, r, loginFailedURL, http.StatusFound)
			return
		}

		metrics.AuthAttempts.WithLabelValues("success").Inc()
		d.Cookies.SetSession(w, token, session.ExpiresAt)
		http.Redirect(w, r, next, http.StatusFound)
	}
}

// AuthSignout destroys the server session and clears the cookie.
func AuthSignout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := auth.ReadCookie(r, auth.SessionCookie)
		if err := d.Sessions.Destroy(r.Context(), raw); err != nil {
			// The cookie is cleared anyway; the session expires on its own.
			d.Logger.Warn("failed to destroy session", logger.Error(err))
		}

		d.Cookies.ClearSession(w)
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}
