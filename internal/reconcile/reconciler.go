package reconcile

import "github.com/sweedalp/smart-bookmark-app/internal/domain"

// Reconciler holds the current State of one live view.
//
// It is not safe for concurrent use: a view calls it from a single event
// loop, which makes every operation atomic with respect to the others.
type Reconciler struct {
	state State
}

// New returns an empty Reconciler bound to owner.
func New(owner string) *Reconciler {
	return &Reconciler{state: NewState(owner)}
}

// Owner returns the identity the visible set is restricted to.
func (r *Reconciler) Owner() string { return r.state.Owner }

// Apply folds ev into the current state. The reconciler owns its state, so
// deletes update the retired set in place.
func (r *Reconciler) Apply(ev Event) Outcome {
	next, out := reduce(r.state, ev, true)
	r.state = next
	return out
}

// Seed replaces the list with the initial snapshot.
func (r *Reconciler) Seed(records []domain.Bookmark) {
	r.Apply(SeedEvent(records))
}

// ApplyLocalCreate inserts a store-confirmed record created by this session.
func (r *Reconciler) ApplyLocalCreate(b domain.Bookmark) Outcome {
	return r.Apply(LocalCreate(b))
}

// ApplyLocalDelete removes a record after the store accepted the delete.
func (r *Reconciler) ApplyLocalDelete(id string) Outcome {
	return r.Apply(LocalDelete(id))
}

// ApplyRemoteInsert inserts a record delivered by the change feed.
func (r *Reconciler) ApplyRemoteInsert(b domain.Bookmark) Outcome {
	return r.Apply(RemoteInsert(b))
}

// ApplyRemoteDelete removes a record reported deleted by the change feed.
func (r *Reconciler) ApplyRemoteDelete(id string) Outcome {
	return r.Apply(RemoteDelete(id))
}

// Bookmarks returns a copy of the visible list.
func (r *Reconciler) Bookmarks() []domain.Bookmark {
	out := make([]domain.Bookmark, len(r.state.Items))
	copy(out, r.state.Items)
	return out
}

// IDs returns the visible IDs in display order.
func (r *Reconciler) IDs() []string {
	ids := make([]string, len(r.state.Items))
	for i, b := range r.state.Items {
		ids[i] = b.ID
	}
	return ids
}

// Len returns the number of visible bookmarks.
func (r *Reconciler) Len() int { return len(r.state.Items) }
