package reconcile

import "github.com/sweedalp/smart-bookmark-app/internal/domain"

// State is the immutable view state of one session.
//
// Items is ordered newest-first and never holds two records with the same ID.
// Retired holds the most recent MaxRetired IDs removed since the last seed;
// a deleted ID does not come back, whatever order the insert and delete
// arrive in.
type State struct {
	Owner   string
	Items   []domain.Bookmark
	Retired *Retired
}

// NewState returns an empty state for owner.
func NewState(owner string) State {
	return State{Owner: owner}
}

// Reduce applies ev to s and returns the next state.
// s is never modified; slices and the retired set are copied before they change.
func Reduce(s State, ev Event) (State, Outcome) {
	return reduce(s, ev, false)
}

// reduce is Reduce with an ownership flag. When owned is true the caller
// hands s over and never reads it again, so the retired set is updated in
// place instead of copied.
func reduce(s State, ev Event, owned bool) (State, Outcome) {
	switch ev.Kind {
	case KindSeed:
		return seed(s, ev.Records), Applied

	case KindLocalCreate:
		return insert(s, ev.Record)

	case KindRemoteInsert:
		// The feed is expected to be filtered by owner upstream, but it is
		// not the authorization boundary.
		if ev.Record.Owner != s.Owner {
			return s, Rejected
		}
		return insert(s, ev.Record)

	case KindLocalDelete, KindRemoteDelete:
		return remove(s, ev.ID, owned)

	default:
		return s, Noop
	}
}

func seed(s State, records []domain.Bookmark) State {
	items := make([]domain.Bookmark, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		items = append(items, r)
	}
	return State{Owner: s.Owner, Items: items}
}

func insert(s State, b domain.Bookmark) (State, Outcome) {
	if s.Retired.Has(b.ID) {
		return s, Noop
	}
	if indexOf(s.Items, b.ID) >= 0 {
		return s, Noop
	}

	at := insertIndex(s.Items, b)
	items := make([]domain.Bookmark, 0, len(s.Items)+1)
	items = append(items, s.Items[:at]...)
	items = append(items, b)
	items = append(items, s.Items[at:]...)

	return State{Owner: s.Owner, Items: items, Retired: s.Retired}, Applied
}

func remove(s State, id string, owned bool) (State, Outcome) {
	retired := s.Retired
	if !retired.Has(id) {
		switch {
		case retired == nil:
			retired = &Retired{}
		case !owned:
			retired = retired.clone()
		}
		retired.add(id)
	}

	i := indexOf(s.Items, id)
	if i < 0 {
		return State{Owner: s.Owner, Items: s.Items, Retired: retired}, Noop
	}

	items := make([]domain.Bookmark, 0, len(s.Items)-1)
	items = append(items, s.Items[:i]...)
	items = append(items, s.Items[i+1:]...)

	return State{Owner: s.Owner, Items: items, Retired: retired}, Applied
}

// insertIndex keeps the list newest-first. A record goes before the first
// item that is not newer than it, so a record at least as new as the head
// lands at the head. Records without a timestamp go to the head.
func insertIndex(items []domain.Bookmark, b domain.Bookmark) int {
	if b.CreatedAt.IsZero() {
		return 0
	}
	for i, it := range items {
		if !it.CreatedAt.After(b.CreatedAt) {
			return i
		}
	}
	return len(items)
}

func indexOf(items []domain.Bookmark, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
