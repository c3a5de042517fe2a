package live

import (
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// Client operations.
const (
	OpCreate = "create"
	OpDelete = "delete"
)

// Server message types.
const (
	TypeSnapshot = "snapshot"
	TypeAck      = "ack"
	TypeError    = "error"
)

// ClientMessage is a request from the browser. Ref is echoed back in the
// matching ack or error.
type ClientMessage struct {
	Op    string `json:"op"`
	Ref   string `json:"ref,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	ID    string `json:"id,omitempty"`
}

// BookmarkView is a bookmark as rendered by the browser.
type BookmarkView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Favicon   string    `json:"favicon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type snapshotMessage struct {
	Type      string         `json:"type"`
	Count     int            `json:"count"`
	Bookmarks []BookmarkView `json:"bookmarks"`
}

type ackMessage struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

func newSnapshot(items []domain.Bookmark) snapshotMessage {
	views := make([]BookmarkView, len(items))
	for i, b := range items {
		views[i] = BookmarkView{
			ID:        b.ID,
			Title:     b.Title,
			URL:       b.URL,
			Domain:    b.Domain(),
			Favicon:   b.FaviconURL(),
			CreatedAt: b.CreatedAt,
		}
	}
	return snapshotMessage{Type: TypeSnapshot, Count: len(views), Bookmarks: views}
}
