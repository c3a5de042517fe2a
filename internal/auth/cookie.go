package auth

import (
	"net/http"
	"time"
)

const (
	// SessionCookie carries the signed session credential.
	SessionCookie = "markd_session"
	// StateCookie binds a pending sign-in to the browser that started it.
	StateCookie = "markd_oauth_state"
)

// Cookies writes auth cookies with consistent attributes.
type Cookies struct {
	Secure bool
}

// SetSession stores the credential until expires.
func (c Cookies) SetSession(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge(expires),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes the credential from the browser.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	c.clear(w, SessionCookie, "/")
}

// SetState stores the OAuth state for the callback path only.
func (c Cookies) SetState(w http.ResponseWriter, state string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearState removes the OAuth state cookie.
func (c Cookies) ClearState(w http.ResponseWriter) {
	c.clear(w, StateCookie, "/auth")
}

func (c Cookies) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie returns the value of the named cookie, or "".
func ReadCookie(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func maxAge(expires time.Time) int {
	secs := int(time.Until(expires).Seconds())
	if secs <= 0 {
		return -1
	}
	return secs
}
