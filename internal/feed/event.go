// Package feed carries row-level bookmark changes from the writer to every
// live view of the same owner.
package feed

import (
	"context"
	"errors"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// Table is the only table the feed reports on.
const Table = "bookmarks"

type EventType string

const (
	Insert EventType = "INSERT"
	Delete EventType = "DELETE"
)

// Event is one change notification.
//
// INSERT carries the full new row, DELETE carries the primary key and owner
// of the removed row.
type Event struct {
	Type  EventType        `json:"type"`
	Table string           `json:"table"`
	New   *domain.Bookmark `json:"new,omitempty"`
	Old   *OldRecord       `json:"old,omitempty"`
}

// OldRecord identifies a deleted row.
type OldRecord struct {
	ID    string `json:"id"`
	Owner string `json:"user_id"`
}

var ErrInvalidEvent = errors.New("invalid feed event")

func InsertEvent(b domain.Bookmark) Event {
	return Event{Type: Insert, Table: Table, New: &b}
}

func DeleteEvent(owner, id string) Event {
	return Event{Type: Delete, Table: Table, Old: &OldRecord{ID: id, Owner: owner}}
}

// Owner returns the owner of the row the event is about.
func (e Event) Owner() string {
	switch {
	case e.Type == Insert && e.New != nil:
		return e.New.Owner
	case e.Type == Delete && e.Old != nil:
		return e.Old.Owner
	default:
		return ""
	}
}

// Validate reports whether the event is well-formed enough to publish or apply.
func (e Event) Validate() error {
	if e.Table != Table {
		return ErrInvalidEvent
	}
	switch e.Type {
	case Insert:
		if e.New == nil || e.New.ID == "" || e.New.Owner == "" {
			return ErrInvalidEvent
		}
	case Delete:
		if e.Old == nil || e.Old.ID == "" || e.Old.Owner == "" {
			return ErrInvalidEvent
		}
	default:
		return ErrInvalidEvent
	}
	return nil
}

// Filter selects the events a subscription receives. An empty Owner
// subscribes to every owner.
type Filter struct {
	Owner string
}

// Feed publishes and subscribes to bookmark changes.
type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}

// Subscription is an open feed subscription.
//
// Close is idempotent and never blocks on the consumer. Once Close returns,
// Events is closed and no further event is delivered.
type Subscription interface {
	Events() <-chan Event
	Close() error
}
