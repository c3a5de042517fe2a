package reconcile

// MaxRetired bounds how many deleted IDs a state remembers. A retired ID only
// has to outlive the feed echo of its own insert, so the oldest are dropped
// first once the set is full.
const MaxRetired = 4096

// Retired is the set of IDs deleted since the last seed, in retirement order.
// The zero value and nil are both empty sets.
type Retired struct {
	ids   map[string]struct{}
	order []string // ring buffer, oldest at next once full
	next  int
}

// Has reports whether id has been retired.
func (r *Retired) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of remembered IDs.
func (r *Retired) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}

func (r *Retired) clone() *Retired {
	c := &Retired{
		ids:   make(map[string]struct{}, len(r.ids)+1),
		order: make([]string, len(r.order), cap(r.order)),
		next:  r.next,
	}
	for id := range r.ids {
		c.ids[id] = struct{}{}
	}
	copy(c.order, r.order)
	return c
}

// add records id in place, evicting the oldest entry when full.
func (r *Retired) add(id string) {
	if r.ids == nil {
		r.ids = make(map[string]struct{})
	}
	if _, ok := r.ids[id]; ok {
		return
	}
	if len(r.order) < MaxRetired {
		r.order = append(r.order, id)
	} else {
		delete(r.ids, r.order[r.next])
		r.order[r.next] = id
		r.next = (r.next + 1) % MaxRetired
	}
	r.ids[id] = struct{}{}
}
