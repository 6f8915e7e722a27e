package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/halcyon-games/atomic/internal/entity"
)

// Snapshot is one entity's captured state within a batch.
type Snapshot struct {
	Entity     entity.Entity
	Ident      string // empty if the entity carries no stable id
	Properties string // property map as sorted-key JSON
}

// WriteBatch writes one flush's worth of snapshots atomically and returns
// the generated batch id. Row order within the batch is preserved.
//
// An empty snapshot list is a no-op and returns an empty id.
func (j *Journal) WriteBatch(ctx context.Context, frame uint64, snaps []Snapshot) (string, error) {
	if len(snaps) == 0 {
		return "", nil
	}

	batchID := uuid.NewString()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, frame, entity_count)
		VALUES (?, ?, ?)
	`, batchID, frame, len(snaps))
	if err != nil {
		return "", fmt.Errorf("write batch: insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (batch_id, entity, ident, properties)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("write batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		var ident any
		if snap.Ident != "" {
			ident = snap.Ident
		}
		if _, err := stmt.ExecContext(ctx, batchID, snap.Entity, ident, snap.Properties); err != nil {
			return "", fmt.Errorf("write batch: insert snapshot for entity %d: %w", snap.Entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write batch: commit: %w", err)
	}

	return batchID, nil
}
