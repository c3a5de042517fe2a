package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// publicPrefixes are never gated.
var publicPrefixes = []string{"/auth/", "/static/", "/healthz", "/readyz", "/infra", "/metrics", "/favicon.ico"}

// SessionGate resolves the session cookie on every gated request.
//
//   - a valid session attaches its identity to the request context, and a
//     session inside its refresh window gets a fresh cookie;
//   - an invalid or expired cookie is cleared;
//   - anonymous requests under /bookmarks are sent to /login (live view
//     upgrades get 401 instead);
//   - signed-in requests for /login are sent to /bookmarks.
//
// A session store outage answers 503 rather than signing the user out.
func SessionGate(sessions *auth.Manager, cookies auth.Cookies, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isPublic(path) {
				next.ServeHTTP(w, r)
				return
			}

			id, ok, err := resolve(w, r, sessions, cookies)
			if err != nil {
				log.Error("session store unavailable",
					logger.String("path", path),
					logger.Error(err))
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}

			switch {
			case !ok && isGated(path):
				if websocket.IsWebSocketUpgrade(r) {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			case ok && path == "/login":
				http.Redirect(w, r, auth.DefaultNext, http.StatusFound)
				return
			}

			if ok {
				identitySlotFrom(r).UserID = id.UserID
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolve returns the identity behind the session cookie. ok is false when
// there is no usable session; err is set only when the store is unreachable.
func resolve(w http.ResponseWriter, r *http.Request, sessions *auth.Manager, cookies auth.Cookies) (domain.Identity, bool, error) {
	raw := auth.ReadCookie(r, auth.SessionCookie)
	if raw == "" {
		return domain.Identity{}, false, nil
	}

	res, err := sessions.Resolve(r.Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			cookies.ClearSession(w)
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, err
	}

	if res.Refreshed() {
		cookies.SetSession(w, res.Token, res.Session.ExpiresAt)
	}
	return res.Identity, true, nil
}

func isPublic(path string) bool {
	for _, p := range publicPrefixes {
		if path == strings.TrimSuffix(p, "/") || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isGated(path string) bool {
	return path == "/bookmarks" || strings.HasPrefix(path, "/bookmarks/")
}
