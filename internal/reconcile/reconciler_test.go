package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func bm(id, owner string, minutes int) domain.Bookmark {
	return domain.Bookmark{
		ID:        id,
		Owner:     owner,
		Title:     "title " + id,
		URL:       "https://" + id + ".test",
		CreatedAt: t0.Add(time.Duration(minutes) * time.Minute),
	}
}

func sameIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

// ─────────────────────────────────────────────────────────────
// Scenarios
// ─────────────────────────────────────────────────────────────

func TestLocalCreateOnEmptySeed(t *testing.T) {
	r := New("u1")
	r.Seed(nil)

	out := r.ApplyLocalCreate(domain.Bookmark{ID: "1", Title: "A", URL: "https://a.test", CreatedAt: t0})
	if out != Applied {
		t.Errorf("ApplyLocalCreate() = %v, want %v", out, Applied)
	}
	sameIDs(t, r.IDs(), []string{"1"})
}

func TestRemoteInsertRejectsForeignOwner(t *testing.T) {
	r := New("u1")
	r.Seed([]domain.Bookmark{bm("1", "u1", 0)})

	out := r.ApplyRemoteInsert(bm("2", "u2", 5))
	if out != Rejected {
		t.Errorf("ApplyRemoteInsert() = %v, want %v", out, Rejected)
	}
	sameIDs(t, r.IDs(), []string{"1"})
}

func TestRemoteThenLocalDelete(t *testing.T) {
	r := New("u1")
	r.Seed([]domain.Bookmark{{ID: "1"}, {ID: "2"}})

	if out := r.ApplyRemoteDelete("1"); out != Applied {
		t.Errorf("ApplyRemoteDelete() = %v, want %v", out, Applied)
	}
	if out := r.ApplyLocalDelete("1"); out != Noop {
		t.Errorf("second delete = %v, want %v", out, Noop)
	}
	sameIDs(t, r.IDs(), []string{"2"})
}

func TestFeedEchoOfLocalCreate(t *testing.T) {
	r := New("u1")
	r.Seed(nil)

	rec := bm("3", "u1", 1)
	r.ApplyLocalCreate(rec)
	if out := r.ApplyRemoteInsert(rec); out != Noop {
		t.Errorf("echo ApplyRemoteInsert() = %v, want %v", out, Noop)
	}
	sameIDs(t, r.IDs(), []string{"3"})
}

// ─────────────────────────────────────────────────────────────
// Properties
// ─────────────────────────────────────────────────────────────

func TestSameIDInsertInEitherOrder(t *testing.T) {
	rec := bm("x", "u1", 0)
	seeds := [][]domain.Bookmark{
		nil,
		{bm("a", "u1", 10), bm("b", "u1", -10)},
	}

	orders := map[string][]Event{
		"local then remote":  {LocalCreate(rec), RemoteInsert(rec)},
		"remote then local":  {RemoteInsert(rec), LocalCreate(rec)},
		"local twice":        {LocalCreate(rec), LocalCreate(rec)},
		"remote twice":       {RemoteInsert(rec), RemoteInsert(rec)},
		"local remote local": {LocalCreate(rec), RemoteInsert(rec), LocalCreate(rec)},
	}

	for i, seed := range seeds {
		for name, events := range orders {
			t.Run(fmt.Sprintf("seed%d/%s", i, name), func(t *testing.T) {
				r := New("u1")
				r.Seed(seed)
				for _, ev := range events {
					r.Apply(ev)
				}
				count := 0
				for _, id := range r.IDs() {
					if id == "x" {
						count++
					}
				}
				if count != 1 {
					t.Errorf("occurrences of x = %d, want 1 (ids %v)", count, r.IDs())
				}
			})
		}
	}
}

func TestDeleteOfAbsentIDIsNoop(t *testing.T) {
	for _, del := range []func(*Reconciler, string) Outcome{
		(*Reconciler).ApplyLocalDelete,
		(*Reconciler).ApplyRemoteDelete,
	} {
		r := New("u1")
		r.Seed([]domain.Bookmark{bm("1", "u1", 2), bm("2", "u1", 1)})
		before := r.Bookmarks()

		if out := del(r, "missing"); out != Noop {
			t.Errorf("delete(missing) = %v, want %v", out, Noop)
		}
		if !reflect.DeepEqual(r.Bookmarks(), before) {
			t.Errorf("sequence changed: %v -> %v", before, r.Bookmarks())
		}
	}
}

func TestInsertPermutationsConverge(t *testing.T) {
	seed := []domain.Bookmark{bm("s1", "u1", 100), bm("s2", "u1", 0)}
	events := []Event{
		RemoteInsert(bm("a", "u1", 50)),
		LocalCreate(bm("b", "u1", 150)),
		RemoteInsert(bm("c", "u1", -5)),
		LocalCreate(bm("d", "u1", 50)),
	}

	var wantSet []string
	for _, perm := range permutations(len(events)) {
		r := New("u1")
		r.Seed(seed)
		for _, i := range perm {
			r.Apply(events[i])
		}

		ids := r.IDs()
		assertNewestFirst(t, r.Bookmarks())

		set := append([]string(nil), ids...)
		sort.Strings(set)
		if wantSet == nil {
			wantSet = set
			continue
		}
		if !reflect.DeepEqual(set, wantSet) {
			t.Fatalf("perm %v: set = %v, want %v", perm, set, wantSet)
		}
	}

	if len(wantSet) != 6 {
		t.Errorf("final set size = %d, want 6", len(wantSet))
	}
}

func TestInsertDeletePermutationsConverge(t *testing.T) {
	rec := bm("x", "u1", 3)
	events := []Event{
		LocalCreate(rec),
		RemoteInsert(rec),
		RemoteDelete("x"),
		LocalDelete("x"),
	}

	for _, perm := range permutations(len(events)) {
		r := New("u1")
		r.Seed([]domain.Bookmark{bm("keep", "u1", 0)})
		for _, i := range perm {
			r.Apply(events[i])
		}
		sameIDs(t, r.IDs(), []string{"keep"})
	}
}

func TestCreateThenDeleteRoundTrip(t *testing.T) {
	r := New("u1")
	r.Seed([]domain.Bookmark{bm("1", "u1", 20), bm("2", "u1", 10), bm("3", "u1", 0)})
	before := r.Bookmarks()

	for _, rec := range []domain.Bookmark{bm("new", "u1", 15), {ID: "unstamped"}} {
		r.ApplyLocalCreate(rec)
		r.ApplyLocalDelete(rec.ID)

		if !reflect.DeepEqual(r.Bookmarks(), before) {
			t.Errorf("round trip for %q changed sequence: %v", rec.ID, r.IDs())
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Ordering
// ─────────────────────────────────────────────────────────────

func TestInsertOrdering(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.Bookmark
		want []string
	}{
		{"newest goes to head", bm("n", "u1", 30), []string{"n", "1", "2", "3"}},
		{"middle keeps order", bm("n", "u1", 15), []string{"1", "n", "2", "3"}},
		{"oldest goes to tail", bm("n", "u1", -1), []string{"1", "2", "3", "n"}},
		{"tie goes before equal", bm("n", "u1", 10), []string{"1", "n", "2", "3"}},
		{"unstamped goes to head", domain.Bookmark{ID: "n", Owner: "u1"}, []string{"n", "1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("u1")
			r.Seed([]domain.Bookmark{bm("1", "u1", 20), bm("2", "u1", 10), bm("3", "u1", 0)})
			r.ApplyRemoteInsert(tt.rec)
			sameIDs(t, r.IDs(), tt.want)
		})
	}
}

func TestSeedReplacesAndDedupes(t *testing.T) {
	r := New("u1")
	r.Seed([]domain.Bookmark{bm("old", "u1", 0)})
	r.ApplyLocalDelete("old")

	r.Seed([]domain.Bookmark{bm("1", "u1", 2), bm("1", "u1", 2), bm("old", "u1", 0)})
	sameIDs(t, r.IDs(), []string{"1", "old"})
}

func TestDeletedIDStaysRetired(t *testing.T) {
	r := New("u1")
	r.Seed(nil)
	r.ApplyRemoteDelete("late")

	if out := r.ApplyLocalCreate(bm("late", "u1", 0)); out != Noop {
		t.Errorf("insert after delete = %v, want %v", out, Noop)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState("u1")
	s, _ = Reduce(s, SeedEvent([]domain.Bookmark{bm("1", "u1", 1), bm("2", "u1", 0)}))
	snapshot := append([]domain.Bookmark(nil), s.Items...)

	next, _ := Reduce(s, RemoteDelete("1"))
	_, _ = Reduce(next, LocalCreate(bm("3", "u1", 5)))

	if !reflect.DeepEqual(s.Items, snapshot) {
		t.Errorf("input state mutated: %v", s.Items)
	}
	if s.Retired.Len() != 0 {
		t.Errorf("input retired set mutated: %d ids", s.Retired.Len())
	}

	// A second delete from the same base must not leak into next.
	other, _ := Reduce(next, RemoteDelete("2"))
	if next.Retired.Has("2") {
		t.Error("retired set of the previous state mutated")
	}
	if !other.Retired.Has("1") || !other.Retired.Has("2") {
		t.Error("retired set should carry earlier deletes")
	}
}

func TestBookmarksReturnsCopy(t *testing.T) {
	r := New("u1")
	r.Seed([]domain.Bookmark{bm("1", "u1", 0)})

	got := r.Bookmarks()
	got[0].Title = "changed"

	if r.Bookmarks()[0].Title == "changed" {
		t.Error("Bookmarks() exposes internal state")
	}
}

func TestKindAndOutcomeStrings(t *testing.T) {
	if KindRemoteInsert.String() != "remote_insert" {
		t.Errorf("KindRemoteInsert.String() = %q", KindRemoteInsert.String())
	}
	if Rejected.String() != "rejected" {
		t.Errorf("Rejected.String() = %q", Rejected.String())
	}
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func assertNewestFirst(t *testing.T, items []domain.Bookmark) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		if items[i].CreatedAt.After(items[i-1].CreatedAt) {
			t.Fatalf("not newest-first at %d: %v after %v", i, items[i].ID, items[i-1].ID)
		}
	}
}

func permutations(n int) [][]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var out [][]int
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			out = append(out, append([]int(nil), idx...))
			return
		}
		for i := k; i < n; i++ {
			idx[k], idx[i] = idx[i], idx[k]
			walk(k + 1)
			idx[k], idx[i] = idx[i], idx[k]
		}
	}
	walk(0)
	return out
}

func TestRetiredSetIsBounded(t *testing.T) {
	r := New("u1")
	for i := 0; i < MaxRetired+10; i++ {
		r.ApplyRemoteDelete(fmt.Sprintf("gone-%d", i))
	}

	if got := r.state.Retired.Len(); got != MaxRetired {
		t.Fatalf("retired = %d, want %d", got, MaxRetired)
	}
	// The oldest IDs were evicted, the newest are still remembered.
	if r.state.Retired.Has("gone-0") {
		t.Error("oldest retired id should have been evicted")
	}
	last := fmt.Sprintf("gone-%d", MaxRetired+9)
	if out := r.ApplyRemoteInsert(bm(last, "u1", 0)); out != Noop {
		t.Errorf("insert of recently deleted id = %v, want %v", out, Noop)
	}

	// Repeated deletes of a remembered id do not grow the set.
	r.ApplyLocalDelete(last)
	if got := r.state.Retired.Len(); got != MaxRetired {
		t.Errorf("retired after repeat delete = %d, want %d", got, MaxRetired)
	}
}

func TestManyInsertDeletePairsStayFast(t *testing.T) {
	const pairs = 10000
	r := New("u1")
	r.Seed(nil)

	start := time.Now()
	for i := 0; i < pairs; i++ {
		id := fmt.Sprintf("id-%d", i)
		r.ApplyRemoteInsert(bm(id, "u1", i))
		r.ApplyLocalDelete(id)
	}
	elapsed := time.Since(start)

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if got := r.state.Retired.Len(); got > MaxRetired {
		t.Errorf("retired = %d, want at most %d", got, MaxRetired)
	}
	if elapsed > 2*time.Second {
		t.Errorf("%d insert/delete pairs took %v", pairs, elapsed)
	}
}
