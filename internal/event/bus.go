// Package event provides a typed synchronous publish/subscribe bus.
//
// Dispatch is a depth-first call chain on the caller's goroutine: Publish
// invokes every handler subscribed to the event's type, in subscription
// order, before returning. There is no queuing and no cross-thread delivery.
//
// A handler may itself publish further events (a tag change updating a
// reverse index, for example). Recursion is bounded: exceeding the bus's
// dispatch depth panics with the offending event type, so a recursive storm
// is a loud failure instead of a silent stack overflow.
package event

import (
	"fmt"
	"reflect"
)

// MaxEventTypes is the maximum number of distinct event types a bus can
// carry over its lifetime.
const MaxEventTypes = 256

// DefaultMaxDepth is the default bound on re-entrant dispatch depth.
const DefaultMaxDepth = 64

// Bus routes events to handlers keyed by the event's Go type.
//
// Subscription normally happens once, at system wiring time. Repeated
// subscriptions are not de-duplicated; the same handler subscribed twice
// runs twice.
type Bus struct {
	typeIDs    map[reflect.Type]uint8
	handlers   [MaxEventTypes][]any
	nextTypeID uint8
	depth      int
	maxDepth   int
}

// NewBus creates a bus with the default dispatch depth bound.
func NewBus() *Bus {
	return NewBusWithDepth(DefaultMaxDepth)
}

// NewBusWithDepth creates a bus with an explicit dispatch depth bound.
// Tests use small bounds to make recursive-storm bugs detectable.
func NewBusWithDepth(maxDepth int) *Bus {
	return &Bus{
		typeIDs:  make(map[reflect.Type]uint8),
		maxDepth: maxDepth,
	}
}

// Subscribe registers a handler for events of type T.
// Handlers for one type run in subscription order.
func Subscribe[T any](bus *Bus, handler func(T)) {
	t := reflect.TypeFor[T]()
	id := bus.typeID(t)
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]any, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish synchronously delivers an event of type T to all subscribed
// handlers. Publishing a type nobody subscribed to is a no-op.
//
// Publish does not allocate on the dispatch path.
func Publish[T any](bus *Bus, ev T) {
	t := reflect.TypeFor[T]()
	id, ok := bus.typeIDs[t]
	if !ok {
		return
	}
	if bus.depth >= bus.maxDepth {
		panic(fmt.Sprintf("event: dispatch depth %d exceeded publishing %s (re-entrant handler loop?)", bus.maxDepth, t))
	}
	bus.depth++
	for _, h := range bus.handlers[id] {
		h.(func(T))(ev)
	}
	bus.depth--
}

// Depth returns the current in-flight dispatch depth. Zero outside Publish.
func (b *Bus) Depth() int {
	return b.depth
}

func (b *Bus) typeID(t reflect.Type) uint8 {
	if id, ok := b.typeIDs[t]; ok {
		return id
	}
	if len(b.typeIDs) >= MaxEventTypes {
		panic("event: too many event types")
	}
	id := b.nextTypeID
	b.nextTypeID++
	b.typeIDs[t] = id
	return id
}
