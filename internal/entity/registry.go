// Package entity owns the entity index space: allocation, recycling, and the
// deactivation sweep that clears an entity's components before its index is
// reused.
package entity

import (
	"errors"
	"fmt"
)

// Entity is an opaque index identifying a row across all component stores.
// There is no generation counter; a freed index is reused immediately.
type Entity = uint16

// ReservedCount is the size of the low index sub-range [0, ReservedCount)
// held back for system and singleton entities. Dynamic entities are
// allocated from [ReservedCount, capacity).
const ReservedCount = 256

// DefaultCapacity is the default size of the entity index space.
const DefaultCapacity = 8192

var (
	// ErrExhausted is returned by Activate when no dynamic index is free.
	ErrExhausted = errors.New("entity: index space exhausted")

	// ErrInactive is returned by operations that require an active entity.
	ErrInactive = errors.New("entity: index is not active")

	// ErrReserved is returned when ActivateAt is used outside the reserved
	// sub-range, or Activate would need to allocate inside it.
	ErrReserved = errors.New("entity: index is outside the reserved range")
)

// Registry tracks which entity indices are active and recycles freed ones.
//
// The index space is split: [0, ReservedCount) is claimed explicitly via
// ActivateAt for system entities; the remainder is handed out by Activate
// using a monotonic cursor plus a reclaimed-index stack.
//
// Component registries register cleanup functions at wiring time; Deactivate
// runs every cleanup before returning the index to the free pool, so no
// component row survives its entity.
type Registry struct {
	capacity int
	active   []bool
	cursor   uint16 // next never-used dynamic index
	free     []Entity
	count    int

	cleanups []func(Entity)
	resets   []func()
}

// NewRegistry creates a registry over an index space of the given capacity.
// Capacity must be greater than ReservedCount; zero selects DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity <= ReservedCount {
		panic(fmt.Sprintf("entity: capacity %d does not clear the reserved range %d", capacity, ReservedCount))
	}
	return &Registry{
		capacity: capacity,
		active:   make([]bool, capacity),
		cursor:   ReservedCount,
		free:     make([]Entity, 0, 64),
	}
}

// Capacity returns the size of the index space.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Count returns the number of active entities, reserved ones included.
func (r *Registry) Count() int {
	return r.count
}

// IsActive reports whether the index is currently allocated.
func (r *Registry) IsActive(e Entity) bool {
	return int(e) < r.capacity && r.active[e]
}

// Activate allocates a dynamic entity index, preferring recycled indices
// over fresh ones. Fails with ErrExhausted when the dynamic range is full.
func (r *Registry) Activate() (Entity, error) {
	if n := len(r.free); n > 0 {
		e := r.free[n-1]
		r.free = r.free[:n-1]
		r.active[e] = true
		r.count++
		return e, nil
	}
	if int(r.cursor) >= r.capacity {
		return 0, fmt.Errorf("%w: capacity %d", ErrExhausted, r.capacity)
	}
	e := r.cursor
	r.cursor++
	r.active[e] = true
	r.count++
	return e, nil
}

// ActivateAt claims a specific index inside the reserved sub-range.
// Used for system/singleton entities whose indices are fixed by convention.
// Claiming an already-active index fails.
func (r *Registry) ActivateAt(e Entity) error {
	if int(e) >= ReservedCount {
		return fmt.Errorf("%w: index %d", ErrReserved, e)
	}
	if r.active[e] {
		return fmt.Errorf("entity: reserved index %d already active", e)
	}
	r.active[e] = true
	r.count++
	return nil
}

// Deactivate sweeps every registered component cleanup for the entity, then
// returns the index to the free pool. Each cleanup fires its own lifecycle
// events; handlers must tolerate running mid-sweep.
//
// Deactivating an inactive index fails with ErrInactive.
func (r *Registry) Deactivate(e Entity) error {
	if !r.IsActive(e) {
		return fmt.Errorf("%w: index %d", ErrInactive, e)
	}
	for _, cleanup := range r.cleanups {
		cleanup(e)
	}
	r.active[e] = false
	r.count--
	if e >= ReservedCount {
		r.free = append(r.free, e)
	}
	return nil
}

// OnDeactivate registers a cleanup to run for every deactivated entity.
// Component registries call this once at wiring time. Order of registration
// is the order cleanups run in.
func (r *Registry) OnDeactivate(fn func(Entity)) {
	r.cleanups = append(r.cleanups, fn)
}

// OnReset registers a function to run during Reset after all entities have
// been deactivated. Used by registries holding state outside per-entity rows.
func (r *Registry) OnReset(fn func()) {
	r.resets = append(r.resets, fn)
}

// Reset deactivates all active entities and restores the registry to its
// post-construction state. Used between scenes and for test isolation.
func (r *Registry) Reset() {
	for i := range r.active {
		if r.active[i] {
			e := Entity(i)
			for _, cleanup := range r.cleanups {
				cleanup(e)
			}
			r.active[i] = false
		}
	}
	r.count = 0
	r.cursor = ReservedCount
	r.free = r.free[:0]
	for _, reset := range r.resets {
		reset()
	}
}
