package domain

import (
	"net/url"
	"strings"
	"time"
)

// Bookmark is a single saved link owned by one authenticated user.
//
// The store assigns ID and CreatedAt on insert; neither changes afterwards.
// JSON field names follow the row layout so feed payloads and store rows
// decode into the same struct.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the store-assigned unique identifier (UUID).
	ID string `json:"id"`

	// Owner is the identity that created the bookmark.
	// It is the only key used for visibility.
	Owner string `json:"user_id"`

	// ─────────────────────────────
	// User-supplied content
	// ─────────────────────────────

	// Title is the display string. Never empty once stored.
	Title string `json:"title"`

	// URL is an absolute URL including scheme.
	// Example: https://go.dev/doc/
	URL string `json:"url"`

	// ─────────────────────────────
	// Ordering
	// ─────────────────────────────

	// CreatedAt is assigned by the store and is the sole sort key (newest first).
	CreatedAt time.Time `json:"created_at"`
}

// Domain returns the URL host without a leading "www.".
// The raw URL is returned when it does not parse.
func (b Bookmark) Domain() string {
	u, err := url.Parse(b.URL)
	if err != nil || u.Hostname() == "" {
		return b.URL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// FaviconURL returns a 32px favicon URL for the bookmark host, or "" when
// the URL has no host.
func (b Bookmark) FaviconURL() string {
	u, err := url.Parse(b.URL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(u.Hostname()) + "&sz=32"
}

// NewBookmark is the input of a create request, before the store assigns
// an ID and a creation time.
type NewBookmark struct {
	Owner string `json:"user_id" validate:"required"`
	Title string `json:"title" validate:"required,max=300"`
	URL   string `json:"url" validate:"required,max=2048,absurl"`
}

// Normalize trims surrounding whitespace from the user-supplied fields.
func (n NewBookmark) Normalize() NewBookmark {
	n.Title = strings.TrimSpace(n.Title)
	n.URL = strings.TrimSpace(n.URL)
	return n
}
