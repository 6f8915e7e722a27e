// Package dirty accumulates the set of entities mutated since the last
// flush. The tracker binds to the behavior mutation hook and feeds the
// persistence journal: between flushes an entity appears at most once no
// matter how many mutations hit it.
package dirty

import (
	"log/slog"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/entity"
)

// Tracker records which entities were mutated since the last Flush.
//
// Marking is idempotent: the bitset dedupes repeat marks in O(1), so a rule
// pass that touches the same entity a hundred times still produces a single
// dirty entry. Marks arrive in mutation order and flush in first-mark order.
//
// The tracker starts disabled; marks received while disabled are dropped.
// Not safe for concurrent use, matching the single-threaded frame loop.
type Tracker struct {
	enabled bool
	marked  []bool
	order   []entity.Entity
}

// NewTracker creates a tracker sized to the entity index space.
func NewTracker(capacity int) *Tracker {
	if capacity == 0 {
		capacity = entity.DefaultCapacity
	}
	return &Tracker{
		marked: make([]bool, capacity),
		order:  make([]entity.Entity, 0, 256),
	}
}

// Bind installs the tracker as the mutation hook callback.
func (t *Tracker) Bind(hook *behavior.Hook) {
	hook.Bind(t.Mark)
}

// Enable starts collecting marks. Already-pending marks are kept.
func (t *Tracker) Enable() {
	t.enabled = true
}

// Disable stops collecting marks without discarding pending ones.
func (t *Tracker) Disable() {
	t.enabled = false
}

// Enabled reports whether the tracker is collecting marks.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Mark records the entity as dirty. Repeat marks between flushes are no-ops.
// Out-of-range indices are logged and dropped rather than growing the bitset.
func (t *Tracker) Mark(e entity.Entity) {
	if !t.enabled {
		return
	}
	if int(e) >= len(t.marked) {
		slog.Warn("dirty mark out of range", "entity", e, "capacity", len(t.marked))
		return
	}
	if t.marked[e] {
		return
	}
	t.marked[e] = true
	t.order = append(t.order, e)
}

// Len returns the number of distinct entities pending flush.
func (t *Tracker) Len() int {
	return len(t.order)
}

// Flush hands the pending dirty set to fn in first-mark order, then clears
// it. The slice is owned by the tracker and only valid for the duration of
// the call. Flushing an empty set skips fn entirely.
func (t *Tracker) Flush(fn func(dirty []entity.Entity) error) error {
	if len(t.order) == 0 {
		return nil
	}
	err := fn(t.order)
	for _, e := range t.order {
		t.marked[e] = false
	}
	t.order = t.order[:0]
	return err
}

// Reset discards all pending marks without flushing.
func (t *Tracker) Reset() {
	for _, e := range t.order {
		t.marked[e] = false
	}
	t.order = t.order[:0]
}
