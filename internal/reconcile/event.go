// Package reconcile merges the three sources of bookmark mutations seen by one
// live view (initial snapshot, confirmed local actions, remote feed events)
// into a single ordered, duplicate-free list.
//
// Everything here is pure: Reduce folds one Event over a State and returns the
// next State. The Reconciler type only holds the current State for one view.
package reconcile

import "github.com/sweedalp/smart-bookmark-app/internal/domain"

// Kind identifies the source and intent of an Event.
type Kind int

const (
	KindSeed Kind = iota
	KindLocalCreate
	KindLocalDelete
	KindRemoteInsert
	KindRemoteDelete
)

func (k Kind) String() string {
	switch k {
	case KindSeed:
		return "seed"
	case KindLocalCreate:
		return "local_create"
	case KindLocalDelete:
		return "local_delete"
	case KindRemoteInsert:
		return "remote_insert"
	case KindRemoteDelete:
		return "remote_delete"
	default:
		return "unknown"
	}
}

// Event is one mutation folded over a State.
type Event struct {
	Kind    Kind
	Record  domain.Bookmark   // LocalCreate, RemoteInsert
	Records []domain.Bookmark // Seed
	ID      string            // LocalDelete, RemoteDelete
}

func SeedEvent(records []domain.Bookmark) Event {
	return Event{Kind: KindSeed, Records: records}
}

func LocalCreate(b domain.Bookmark) Event {
	return Event{Kind: KindLocalCreate, Record: b}
}

func LocalDelete(id string) Event {
	return Event{Kind: KindLocalDelete, ID: id}
}

func RemoteInsert(b domain.Bookmark) Event {
	return Event{Kind: KindRemoteInsert, Record: b}
}

func RemoteDelete(id string) Event {
	return Event{Kind: KindRemoteDelete, ID: id}
}

// Outcome reports what an Event did to the State.
type Outcome int

const (
	// Applied means the visible list changed.
	Applied Outcome = iota
	// Noop means the event was valid but already reflected (duplicate insert,
	// delete of an absent id).
	Noop
	// Rejected means the event was discarded by the ownership check.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Noop:
		return "noop"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}
