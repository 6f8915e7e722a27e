package behavior

import "github.com/halcyon-games/atomic/internal/entity"

// Lifecycle events published by a Registry. Each is generic over the
// behavior type, so subscribers bind to exactly one registry's stream:
//
//	event.Subscribe(bus, func(ev behavior.Updated[component.Tags]) { ... })

// Added fires after a behavior is written for an entity that had none.
type Added[T any] struct {
	Entity entity.Entity
	Value  T
}

// Updating fires before an existing behavior is overwritten.
// Carries the value being replaced.
type Updating[T any] struct {
	Entity entity.Entity
	Old    T
}

// Updated fires after an existing behavior has been overwritten.
// Carries the committed value; readers observe it immediately.
type Updated[T any] struct {
	Entity entity.Entity
	Value  T
}

// Removing fires before a present behavior is deleted.
// Carries the value about to be dropped.
type Removing[T any] struct {
	Entity entity.Entity
	Value  T
}

// Removed fires after a behavior row has been deleted.
type Removed[T any] struct {
	Entity entity.Entity
}
