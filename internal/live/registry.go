package live

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
)

// ViewInfo describes a mounted live view.
type ViewInfo struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	MountedAt time.Time `json:"mounted_at"`
}

type entry struct {
	info   ViewInfo
	cancel context.CancelFunc
}

// Registry tracks mounted live views so they can be counted and shut down.
type Registry struct {
	mu         sync.RWMutex
	views      map[string]entry // ID -> view
	lastChange time.Time
	closed     bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string]entry),
	}
}

// Add registers a view. cancel is called by CloseAll, or right away when
// the registry has already been closed.
func (r *Registry) Add(info ViewInfo, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		cancel()
		return
	}
	r.views[info.ID] = entry{info: info, cancel: cancel}
	r.lastChange = time.Now()
	metrics.LiveViews.Set(float64(len(r.views)))
}

// Remove unregisters a view. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.views[id]; !ok {
		return
	}
	delete(r.views, id)
	r.lastChange = time.Now()
	metrics.LiveViews.Set(float64(len(r.views)))
}

// Count returns the number of mounted views
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// CountOwner returns the number of views mounted by owner
func (r *Registry) CountOwner(owner string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.views {
		if e.info.Owner == owner {
			n++
		}
	}
	return n
}

// Snapshot returns the mounted views, oldest first
func (r *Registry) Snapshot() []ViewInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ViewInfo, 0, len(r.views))
	for _, e := range r.views {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MountedAt.Before(out[j].MountedAt) })
	return out
}

// LastChange returns when a view was last mounted or unmounted
func (r *Registry) LastChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastChange
}

// CloseAll cancels every mounted view and every view added afterwards.
// Views unregister themselves as they finish tearing down.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, e := range r.views {
		e.cancel()
	}
}
