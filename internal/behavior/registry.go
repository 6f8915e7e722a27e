// Package behavior implements per-type component registries.
//
// A Registry owns one sparse store of its behavior type, performs all
// mutation through a read-modify-write contract, and publishes lifecycle
// events on the shared bus so reverse indices and the dirty tracker stay
// current without polling.
//
// "Behavior" is this codebase's term for a component: a typed value attached
// to at most one entity at a time.
package behavior

import (
	"fmt"

	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/event"
	"github.com/halcyon-games/atomic/internal/sparse"
)

// Hook is the process-wide mutation callback slot. The persistence
// collaborator binds it once; every registry notifies it exactly once per
// committed mutation, synchronously, after the write has landed in the store.
//
// An unbound hook is a no-op, so the core runs without a persistence layer.
type Hook struct {
	fn func(entity.Entity)
}

// Bind installs the callback. Binding replaces any previous callback.
func (h *Hook) Bind(fn func(entity.Entity)) {
	h.fn = fn
}

// Notify invokes the bound callback, if any.
func (h *Hook) Notify(e entity.Entity) {
	if h.fn != nil {
		h.fn(e)
	}
}

// Registry manages one behavior type across the entity space.
//
// Exactly one Registry exists per behavior type per world. It registers a
// deactivation cleanup with the entity registry at construction, so
// Deactivate sweeps its row (with removal events) before the index is freed.
type Registry[T any] struct {
	name     string
	store    *sparse.Store[T]
	bus      *event.Bus
	entities *entity.Registry
	hook     *Hook
}

// NewRegistry wires a registry for behavior type T.
// name identifies the registry in errors and logs.
func NewRegistry[T any](name string, entities *entity.Registry, bus *event.Bus, hook *Hook) *Registry[T] {
	r := &Registry[T]{
		name:     name,
		store:    sparse.New[T](entities.Capacity()),
		bus:      bus,
		entities: entities,
		hook:     hook,
	}
	entities.OnDeactivate(func(e entity.Entity) {
		// The entity is still active mid-sweep; removal events fire as usual.
		_, _ = r.Remove(e)
	})
	return r
}

// Name returns the registry's identifying name.
func (r *Registry[T]) Name() string {
	return r.name
}

// SetBehavior reads the entity's current value (or the type default if
// absent), applies mutate to a local copy, and writes the result back.
//
// Exactly one write happens per call, and it is visible to readers,
// including re-entrant handlers, the moment the lifecycle events fire:
//
//   - no prior value: write, then Added
//   - prior value:    Updating (old), write, Updated (new)
//
// The mutation hook is notified once, after the write.
//
// The old value carried by Updating is a shallow copy. Behavior types whose
// subscribers index on the old value must not be modified in place by mutate
// (component.Tags copies on removal for this reason); types nobody indexes,
// like Properties, mutate their backing map in place for the hot path.
//
// Mutating an inactive entity is a programmer error and fails with
// entity.ErrInactive.
func (r *Registry[T]) SetBehavior(e entity.Entity, mutate func(*T)) error {
	if !r.entities.IsActive(e) {
		return fmt.Errorf("behavior %s: set on entity %d: %w", r.name, e, entity.ErrInactive)
	}

	current, had := r.store.Get(e)
	old := current
	mutate(&current)

	if had {
		event.Publish(r.bus, Updating[T]{Entity: e, Old: old})
		if err := r.store.Set(e, current); err != nil {
			return fmt.Errorf("behavior %s: %w", r.name, err)
		}
		event.Publish(r.bus, Updated[T]{Entity: e, Value: current})
	} else {
		if err := r.store.Set(e, current); err != nil {
			return fmt.Errorf("behavior %s: %w", r.name, err)
		}
		event.Publish(r.bus, Added[T]{Entity: e, Value: current})
	}

	r.hook.Notify(e)
	return nil
}

// Remove deletes the entity's behavior row.
//
// When a row is present: Removing (old value), delete, Removed, hook.
// When absent: a no-op, no events, no hook.
//
// Like SetBehavior, removing from an inactive entity fails with
// entity.ErrInactive. The deactivation sweep runs while the entity is
// still active, so sweeps never hit this path.
func (r *Registry[T]) Remove(e entity.Entity) (bool, error) {
	if !r.entities.IsActive(e) {
		return false, fmt.Errorf("behavior %s: remove on entity %d: %w", r.name, e, entity.ErrInactive)
	}

	value, present := r.store.Get(e)
	if !present {
		return false, nil
	}

	event.Publish(r.bus, Removing[T]{Entity: e, Value: value})
	r.store.Remove(e)
	event.Publish(r.bus, Removed[T]{Entity: e})

	r.hook.Notify(e)
	return true, nil
}

// TryGetBehavior returns the entity's current value and whether one exists.
// Pure read, no side effects.
func (r *Registry[T]) TryGetBehavior(e entity.Entity) (T, bool) {
	return r.store.Get(e)
}

// HasBehavior reports whether the entity carries this behavior.
func (r *Registry[T]) HasBehavior(e entity.Entity) bool {
	return r.store.Contains(e)
}

// Each enumerates present (entity, value) pairs in ascending entity order.
func (r *Registry[T]) Each(fn func(e entity.Entity, value T) bool) {
	r.store.Each(fn)
}

// Len returns the number of entities carrying this behavior.
func (r *Registry[T]) Len() int {
	return r.store.Len()
}
