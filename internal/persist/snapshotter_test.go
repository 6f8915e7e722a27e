package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-games/atomic/internal/behavior"
	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/dirty"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/event"
	"github.com/halcyon-games/atomic/internal/scalar"
)

type snapshotFixture struct {
	entities *entity.Registry
	idents   *behavior.Registry[component.Ident]
	props    *behavior.Registry[component.Properties]
	tracker  *dirty.Tracker
	snapper  *Snapshotter
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	entities := entity.NewRegistry(0)
	bus := event.NewBus()
	hook := &behavior.Hook{}
	idents := behavior.NewRegistry[component.Ident]("ident", entities, bus, hook)
	props := behavior.NewRegistry[component.Properties]("properties", entities, bus, hook)

	tracker := dirty.NewTracker(entities.Capacity())
	tracker.Bind(hook)
	tracker.Enable()

	return &snapshotFixture{
		entities: entities,
		idents:   idents,
		props:    props,
		tracker:  tracker,
		snapper:  NewSnapshotter(openTestJournal(t), tracker, idents, props),
	}
}

func TestSnapshotter_CapturesDirtyEntities(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	e, err := f.entities.Activate()
	require.NoError(t, err)
	require.NoError(t, f.idents.SetBehavior(e, func(id *component.Ident) { *id = "player" }))
	require.NoError(t, f.props.SetBehavior(e, func(p *component.Properties) {
		p.Set("health", scalar.Number(90))
	}))

	batchID, err := f.snapper.Flush(ctx, 3)
	require.NoError(t, err)
	require.NotEmpty(t, batchID)

	snaps, err := f.snapper.journal.BatchSnapshots(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, e, snaps[0].Entity)
	assert.Equal(t, "player", snaps[0].Ident)
	assert.JSONEq(t, `{"health":90}`, snaps[0].Properties)
}

func TestSnapshotter_SnapshotReflectsStateAtFlush(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	e, err := f.entities.Activate()
	require.NoError(t, err)
	for _, health := range []float64{100, 90, 80} {
		require.NoError(t, f.props.SetBehavior(e, func(p *component.Properties) {
			p.Set("health", scalar.Number(health))
		}))
	}

	batchID, err := f.snapper.Flush(ctx, 1)
	require.NoError(t, err)

	snaps, err := f.snapper.journal.BatchSnapshots(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, snaps, 1, "three mutations collapse into one snapshot")
	assert.JSONEq(t, `{"health":80}`, snaps[0].Properties)
}

func TestSnapshotter_SkipsEntitiesDeactivatedBeforeFlush(t *testing.T) {
	f := newSnapshotFixture(t)
	ctx := context.Background()

	e, err := f.entities.Activate()
	require.NoError(t, err)
	require.NoError(t, f.props.SetBehavior(e, func(p *component.Properties) {
		p.Set("health", scalar.Number(100))
	}))
	require.NoError(t, f.entities.Deactivate(e))

	batchID, err := f.snapper.Flush(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, batchID, "nothing left to capture, no batch written")
	assert.Zero(t, f.tracker.Len(), "marks are consumed regardless")
}

func TestSnapshotter_FlushWithNothingDirty(t *testing.T) {
	f := newSnapshotFixture(t)

	batchID, err := f.snapper.Flush(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, batchID)
}
