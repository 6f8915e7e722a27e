package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/dirty"
	"github.com/halcyon-games/atomic/internal/entity"
)

// Snapshotter captures dirty entities' current state into journal batches.
// It reads through the behavior registries at flush time, so a snapshot
// reflects the state after the last mutation of the interval, not the state
// at mark time.
type Snapshotter struct {
	journal *Journal
	tracker *dirty.Tracker
	idents  *behavior.Registry[component.Ident]
	props   *behavior.Registry[component.Properties]

	scratch []Snapshot
}

// NewSnapshotter wires a snapshotter over the journal and the registries it
// captures from.
func NewSnapshotter(
	journal *Journal,
	tracker *dirty.Tracker,
	idents *behavior.Registry[component.Ident],
	props *behavior.Registry[component.Properties],
) *Snapshotter {
	return &Snapshotter{
		journal: journal,
		tracker: tracker,
		idents:  idents,
		props:   props,
		scratch: make([]Snapshot, 0, 256),
	}
}

// Flush drains the dirty tracker into one journal batch tagged with the
// given frame. Returns the batch id, or an empty id when nothing was dirty.
//
// Entities deactivated between mark and flush are skipped: their rows were
// already swept and there is no state left to capture.
func (s *Snapshotter) Flush(ctx context.Context, frame uint64) (string, error) {
	var batchID string
	err := s.tracker.Flush(func(dirtyEntities []entity.Entity) error {
		s.scratch = s.scratch[:0]
		for _, e := range dirtyEntities {
			props, ok := s.props.TryGetBehavior(e)
			if !ok {
				continue
			}
			propsJSON, err := json.Marshal(props)
			if err != nil {
				return fmt.Errorf("snapshot entity %d: %w", e, err)
			}
			snap := Snapshot{Entity: e, Properties: string(propsJSON)}
			if ident, ok := s.idents.TryGetBehavior(e); ok {
				snap.Ident = string(ident)
			}
			s.scratch = append(s.scratch, snap)
		}
		if len(s.scratch) == 0 {
			return nil
		}

		id, err := s.journal.WriteBatch(ctx, frame, s.scratch)
		if err != nil {
			return err
		}
		batchID = id
		slog.Debug("snapshot batch written", "batch", id, "frame", frame, "entities", len(s.scratch))
		return nil
	})
	return batchID, err
}
