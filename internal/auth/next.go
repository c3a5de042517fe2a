package auth

import (
	"net/url"
	"strings"
)

// DefaultNext is where a sign-in lands when no return path is given.
const DefaultNext = "/bookmarks"

// SafeNext returns raw when it is a path on this site, DefaultNext otherwise.
// Absolute URLs, scheme-relative ("//host") and backslash tricks are refused
// so the callback cannot be turned into an open redirect.
func SafeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return DefaultNext
	}
	if strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n\t") {
		return DefaultNext
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultNext
	}
	return raw
}
