package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Batch describes one recorded flush.
type Batch struct {
	ID          string
	Frame       uint64
	EntityCount int
	CreatedAt   string
}

// Batches returns every recorded batch in write order.
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, frame, entity_count, created_at
		FROM batches
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Frame, &b.EntityCount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}

	return batches, nil
}

// LatestBatch returns the most recently written batch, or ok=false if the
// journal is empty.
func (j *Journal) LatestBatch(ctx context.Context) (Batch, bool, error) {
	var b Batch
	err := j.db.QueryRowContext(ctx, `
		SELECT id, frame, entity_count, created_at
		FROM batches
		ORDER BY rowid DESC
		LIMIT 1
	`).Scan(&b.ID, &b.Frame, &b.EntityCount, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, false, nil
	}
	if err != nil {
		return Batch{}, false, fmt.Errorf("query latest batch: %w", err)
	}
	return b, true, nil
}

// BatchSnapshots returns a batch's snapshots in the order they were written,
// which is the first-mutation order of the flush that produced them.
func (j *Journal) BatchSnapshots(ctx context.Context, batchID string) ([]Snapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entity, ident, properties
		FROM snapshots
		WHERE batch_id = ?
		ORDER BY id ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var ident sql.NullString
		if err := rows.Scan(&snap.Entity, &ident, &snap.Properties); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Ident = ident.String
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snaps, nil
}

// EntityHistory returns every snapshot ever taken of an entity index, oldest
// first. Index reuse means consecutive rows may describe different logical
// entities; the ident column disambiguates.
func (j *Journal) EntityHistory(ctx context.Context, e uint16) ([]Snapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entity, ident, properties
		FROM snapshots
		WHERE entity = ?
		ORDER BY id ASC
	`, e)
	if err != nil {
		return nil, fmt.Errorf("query entity history: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var ident sql.NullString
		if err := rows.Scan(&snap.Entity, &ident, &snap.Properties); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Ident = ident.String
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity history: %w", err)
	}

	return snaps, nil
}
