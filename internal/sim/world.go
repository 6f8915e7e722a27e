// Package sim assembles the runtime: entity registry, event bus, behavior
// registries, selector index, dirty tracker, and rule driver, wired in the
// order their subscriptions must land.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/dirty"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/event"
	"github.com/halcyon-games/atomic/internal/rules"
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
)

// World owns one simulation's state and collaborators.
//
// All mutation happens on the goroutine that calls RunFrame; nothing in the
// world locks. Construction order matters: the selector index subscribes to
// the bus before any behavior exists, so it observes every lifecycle event
// from the first mutation on.
type World struct {
	bus      *event.Bus
	entities *entity.Registry
	hook     *behavior.Hook

	idents  *behavior.Registry[component.Ident]
	tags    *behavior.Registry[component.Tags]
	props   *behavior.Registry[component.Properties]
	parents *behavior.Registry[component.Parent]

	index   *selector.Registry
	tracker *dirty.Tracker
	driver  *rules.Driver
	clock   *Clock
}

// Option configures a World at construction.
type Option func(*config)

type config struct {
	capacity   int
	maxDepth   int
	startFrame uint64
	trackDirty bool
}

// WithCapacity sets the entity index space size.
// Zero selects entity.DefaultCapacity.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		c.capacity = capacity
	}
}

// WithMaxDispatchDepth bounds event handler re-entrancy.
// Zero selects event.DefaultMaxDepth.
func WithMaxDispatchDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithDirtyTracking enables the dirty tracker from construction. Without it
// the tracker exists but stays disabled, and marks are dropped.
func WithDirtyTracking() Option {
	return func(c *config) {
		c.trackDirty = true
	}
}

// WithStartFrame starts the clock at a given frame instead of 0. Used when
// continuing a run against an existing journal, so new batches carry frame
// stamps after the recorded ones.
func WithStartFrame(frame uint64) Option {
	return func(c *config) {
		c.startFrame = frame
	}
}

// NewWorld builds a fully wired world.
func NewWorld(opts ...Option) *World {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var bus *event.Bus
	if cfg.maxDepth > 0 {
		bus = event.NewBusWithDepth(cfg.maxDepth)
	} else {
		bus = event.NewBus()
	}

	entities := entity.NewRegistry(cfg.capacity)
	hook := &behavior.Hook{}

	// The index subscribes before any registry publishes.
	index := selector.NewRegistry(bus)

	w := &World{
		bus:      bus,
		entities: entities,
		hook:     hook,
		idents:   behavior.NewRegistry[component.Ident]("ident", entities, bus, hook),
		tags:     behavior.NewRegistry[component.Tags]("tags", entities, bus, hook),
		props:    behavior.NewRegistry[component.Properties]("properties", entities, bus, hook),
		parents:  behavior.NewRegistry[component.Parent]("parent", entities, bus, hook),
		index:    index,
		tracker:  dirty.NewTracker(entities.Capacity()),
		clock:    NewClockAt(cfg.startFrame),
	}
	w.driver = rules.NewDriver(index, w.props)

	w.tracker.Bind(hook)
	if cfg.trackDirty {
		w.tracker.Enable()
	}
	// The deactivation sweeps during an entity reset mark every swept entity
	// dirty; dropping the marks is part of the reset.
	entities.OnReset(w.tracker.Reset)

	return w
}

// Bus returns the world's event bus for subscribing to lifecycle events.
func (w *World) Bus() *event.Bus { return w.bus }

// Entities returns the entity registry.
func (w *World) Entities() *entity.Registry { return w.entities }

// Idents returns the stable-id behavior registry.
func (w *World) Idents() *behavior.Registry[component.Ident] { return w.idents }

// Tags returns the tag behavior registry.
func (w *World) Tags() *behavior.Registry[component.Tags] { return w.tags }

// Props returns the property-map behavior registry.
func (w *World) Props() *behavior.Registry[component.Properties] { return w.props }

// Parents returns the scene-hierarchy behavior registry.
func (w *World) Parents() *behavior.Registry[component.Parent] { return w.parents }

// Index returns the selector reverse index.
func (w *World) Index() *selector.Registry { return w.index }

// Tracker returns the dirty tracker.
func (w *World) Tracker() *dirty.Tracker { return w.tracker }

// Clock returns the frame clock.
func (w *World) Clock() *Clock { return w.clock }

// LoadRules validates and installs a rule file.
func (w *World) LoadRules(data []byte) error {
	loaded, err := rules.Load(data)
	if err != nil {
		return err
	}
	w.driver.Load(loaded)
	return nil
}

// Rules returns the installed rules in declaration order.
func (w *World) Rules() []rules.Rule {
	return w.driver.Rules()
}

// RunFrame advances the simulation by one frame of dt seconds: every rule
// evaluates once in declaration order, then the clock ticks. Returns the
// completed frame's number.
//
// Must be called from exactly one goroutine.
func (w *World) RunFrame(dt float64) uint64 {
	w.driver.RunFrame(dt)
	frame := w.clock.Tick(dt)
	slog.Debug("frame complete", "frame", frame, "dt", dt, "entities", w.entities.Count())
	return frame
}

// Spawn activates an entity and attaches the given behaviors in one call.
// A nil tags slice or empty ident attaches nothing for that behavior.
// Properties attach even when empty so the entity snapshots cleanly.
func (w *World) Spawn(ident string, tagNames []string, props component.Properties) (entity.Entity, error) {
	e, err := w.entities.Activate()
	if err != nil {
		return 0, err
	}
	if err := w.attach(e, ident, tagNames, props); err != nil {
		// Roll the index back so a half-built entity never survives.
		if derr := w.entities.Deactivate(e); derr != nil {
			slog.Error("spawn rollback failed", "entity", e, "error", derr)
		}
		return 0, err
	}
	return e, nil
}

// SpawnAt is Spawn for a fixed index in the reserved sub-range.
func (w *World) SpawnAt(e entity.Entity, ident string, tagNames []string, props component.Properties) error {
	if err := w.entities.ActivateAt(e); err != nil {
		return err
	}
	if err := w.attach(e, ident, tagNames, props); err != nil {
		if derr := w.entities.Deactivate(e); derr != nil {
			slog.Error("spawn rollback failed", "entity", e, "error", derr)
		}
		return err
	}
	return nil
}

func (w *World) attach(e entity.Entity, ident string, tagNames []string, props component.Properties) error {
	if ident != "" {
		if err := w.idents.SetBehavior(e, func(id *component.Ident) { *id = component.Ident(ident) }); err != nil {
			return fmt.Errorf("attach ident: %w", err)
		}
	}
	if len(tagNames) > 0 {
		if err := w.tags.SetBehavior(e, func(ts *component.Tags) {
			for _, name := range tagNames {
				ts.Add(name)
			}
		}); err != nil {
			return fmt.Errorf("attach tags: %w", err)
		}
	}
	if err := w.props.SetBehavior(e, func(p *component.Properties) {
		props.Each(func(key string, v scalar.Value) bool {
			p.SetFolded(key, v)
			return true
		})
	}); err != nil {
		return fmt.Errorf("attach properties: %w", err)
	}
	return nil
}

// Despawn deactivates an entity, sweeping every behavior row it holds.
func (w *World) Despawn(e entity.Entity) error {
	return w.entities.Deactivate(e)
}

// Reset tears the world back to empty: every entity deactivates with its
// full cleanup sweep (the sweep's dirty marks drop via the tracker's
// registered reset), rules unload, and the clock returns to frame 0.
// Wiring and subscriptions survive.
func (w *World) Reset() {
	w.entities.Reset()
	w.driver.Reset()
	w.clock.Reset()
	slog.Debug("world reset")
}
