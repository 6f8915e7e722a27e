package selector

import (
	"log/slog"
	"sort"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/event"
)

// Registry maintains the reverse indices selectors resolve against:
// tag name -> sorted entity set, id string -> entity.
//
// The indices are maintained incrementally. The registry subscribes to the
// Tags and Ident lifecycle events at wiring time; every add, update, and
// removal - including the ones fired mid-deactivation-sweep - adjusts the
// indices in place. Nothing is recomputed per query.
type Registry struct {
	byTag map[string][]entity.Entity
	byID  map[string]entity.Entity
}

// NewRegistry creates the registry and subscribes it to the Tags and Ident
// event streams on the bus.
func NewRegistry(bus *event.Bus) *Registry {
	r := &Registry{
		byTag: make(map[string][]entity.Entity),
		byID:  make(map[string]entity.Entity),
	}

	event.Subscribe(bus, func(ev behavior.Added[component.Tags]) {
		r.indexTags(ev.Entity, ev.Value)
	})
	event.Subscribe(bus, func(ev behavior.Updating[component.Tags]) {
		r.unindexTags(ev.Entity, ev.Old)
	})
	event.Subscribe(bus, func(ev behavior.Updated[component.Tags]) {
		r.indexTags(ev.Entity, ev.Value)
	})
	event.Subscribe(bus, func(ev behavior.Removing[component.Tags]) {
		r.unindexTags(ev.Entity, ev.Value)
	})

	event.Subscribe(bus, func(ev behavior.Added[component.Ident]) {
		r.indexID(ev.Entity, ev.Value)
	})
	event.Subscribe(bus, func(ev behavior.Updating[component.Ident]) {
		r.unindexID(ev.Entity, ev.Old)
	})
	event.Subscribe(bus, func(ev behavior.Updated[component.Ident]) {
		r.indexID(ev.Entity, ev.Value)
	})
	event.Subscribe(bus, func(ev behavior.Removing[component.Ident]) {
		r.unindexID(ev.Entity, ev.Value)
	})

	return r
}

// Resolve lazily yields the entities matching sel in ascending index order.
// Each call walks the current index state, so a resolution is restartable
// and always fresh. Iteration stops early if yield returns false.
func (r *Registry) Resolve(sel Selector, yield func(entity.Entity) bool) {
	switch sel.Kind {
	case ByID:
		if e, ok := r.byID[sel.Name]; ok {
			yield(e)
		}
	case ByTag:
		for _, e := range r.byTag[sel.Name] {
			if !yield(e) {
				return
			}
		}
	}
}

// AppendResolved appends the entities matching sel to dst in ascending
// order and returns the extended slice. Callers reuse dst across frames to
// keep resolution allocation-free.
func (r *Registry) AppendResolved(dst []entity.Entity, sel Selector) []entity.Entity {
	r.Resolve(sel, func(e entity.Entity) bool {
		dst = append(dst, e)
		return true
	})
	return dst
}

// TagCount returns the number of entities indexed under a tag.
func (r *Registry) TagCount(tag string) int {
	return len(r.byTag[tag])
}

// LookupID returns the entity registered under an id.
func (r *Registry) LookupID(id string) (entity.Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) indexTags(e entity.Entity, tags component.Tags) {
	tags.Each(func(label string) bool {
		set := r.byTag[label]
		i := sort.Search(len(set), func(i int) bool { return set[i] >= e })
		if i < len(set) && set[i] == e {
			return true // already indexed
		}
		set = append(set, 0)
		copy(set[i+1:], set[i:])
		set[i] = e
		r.byTag[label] = set
		return true
	})
}

func (r *Registry) unindexTags(e entity.Entity, tags component.Tags) {
	tags.Each(func(label string) bool {
		set := r.byTag[label]
		i := sort.Search(len(set), func(i int) bool { return set[i] >= e })
		if i < len(set) && set[i] == e {
			set = append(set[:i], set[i+1:]...)
			if len(set) == 0 {
				delete(r.byTag, label)
			} else {
				r.byTag[label] = set
			}
		}
		return true
	})
}

func (r *Registry) indexID(e entity.Entity, id component.Ident) {
	name := string(id)
	if name == "" {
		return
	}
	if prev, ok := r.byID[name]; ok && prev != e {
		slog.Warn("duplicate entity id, reindexing to the newer entity",
			"id", name,
			"previous", prev,
			"entity", e,
		)
	}
	r.byID[name] = e
}

func (r *Registry) unindexID(e entity.Entity, id component.Ident) {
	name := string(id)
	if cur, ok := r.byID[name]; ok && cur == e {
		delete(r.byID, name)
	}
}
