package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-games/atomic/internal/component"
	"github.com/halcyon-games/atomic/internal/entity"
	"github.com/halcyon-games/atomic/internal/scalar"
	"github.com/halcyon-games/atomic/internal/selector"
)

func propsWith(pairs map[string]float64) component.Properties {
	p := component.NewProperties()
	for k, v := range pairs {
		p.Set(k, scalar.Number(v))
	}
	return p
}

func health(t *testing.T, w *World, e entity.Entity) float64 {
	t.Helper()
	p, ok := w.Props().TryGetBehavior(e)
	require.True(t, ok)
	n, ok := p.Get("health").(scalar.Number)
	require.True(t, ok)
	return float64(n)
}

func TestWorld_SpawnAttachesBehaviors(t *testing.T) {
	w := NewWorld()

	e, err := w.Spawn("player", []string{"hero", "poisoned"}, propsWith(map[string]float64{"health": 100}))
	require.NoError(t, err)

	ident, ok := w.Idents().TryGetBehavior(e)
	require.True(t, ok)
	assert.Equal(t, component.Ident("player"), ident)

	tags, ok := w.Tags().TryGetBehavior(e)
	require.True(t, ok)
	assert.True(t, tags.Has("hero"))
	assert.True(t, tags.Has("poisoned"))

	assert.Equal(t, float64(100), health(t, w, e))

	got, ok := w.Index().LookupID("player")
	require.True(t, ok)
	assert.Equal(t, e, got, "spawn lands in the selector index")
}

func TestWorld_RunFramePoisonScenario(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn("", []string{"poisoned"}, propsWith(map[string]float64{
		"health":       100,
		"poisonStacks": 10,
	}))
	require.NoError(t, err)

	require.NoError(t, w.LoadRules([]byte(`{
		"rules": [{
			"from": "#poisoned",
			"where": {"op": "and", "args": [
				{"op": "gt", "args": ["properties.health", 0]},
				{"op": "gt", "args": ["properties.poisonStacks", 0]}
			]},
			"do": {"mut": [
				{"target": "properties.health",
				 "value": {"op": "sub", "args": ["self.properties.health", "self.properties.poisonStacks"]}},
				{"target": "properties.poisonStacks",
				 "value": {"op": "sub", "args": ["self.properties.poisonStacks", 1]}}
			]}
		}]
	}`)))

	frame := w.RunFrame(0.016)
	assert.Equal(t, uint64(1), frame)
	assert.Equal(t, float64(90), health(t, w, e))
}

func TestWorld_LoadRulesRejectsInvalidFile(t *testing.T) {
	w := NewWorld()
	err := w.LoadRules([]byte(`{"rules": []}`))
	assert.Error(t, err)
	assert.Empty(t, w.Rules())
}

func TestWorld_DespawnSweepsEverything(t *testing.T) {
	w := NewWorld()
	e, err := w.Spawn("grunt", []string{"enemy"}, propsWith(map[string]float64{"health": 10}))
	require.NoError(t, err)

	require.NoError(t, w.Despawn(e))

	assert.False(t, w.Props().HasBehavior(e))
	assert.False(t, w.Tags().HasBehavior(e))
	assert.False(t, w.Idents().HasBehavior(e))
	_, ok := w.Index().LookupID("grunt")
	assert.False(t, ok)
	assert.Zero(t, w.Index().TagCount("enemy"))

	// Immediate index reuse: the next spawn gets the same index with no
	// residue from the previous occupant.
	e2, err := w.Spawn("", nil, propsWith(nil))
	require.NoError(t, err)
	assert.Equal(t, e, e2)
	p, _ := w.Props().TryGetBehavior(e2)
	assert.True(t, scalar.IsAbsent(p.Get("health")))
}

func TestWorld_SpawnAtReservedRange(t *testing.T) {
	w := NewWorld()

	require.NoError(t, w.SpawnAt(0, "system", nil, propsWith(nil)))
	assert.Error(t, w.SpawnAt(entity.ReservedCount, "bad", nil, propsWith(nil)),
		"dynamic range is off limits to SpawnAt")

	e, err := w.Spawn("", nil, propsWith(nil))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e, entity.Entity(entity.ReservedCount),
		"dynamic allocation never lands in the reserved range")
}

func TestWorld_SpawnRollsBackOnDuplicateIdentOverwrite(t *testing.T) {
	// Duplicate idents are allowed (last write wins in the index) so this
	// exercises the happy path; rollback only triggers on registry errors.
	w := NewWorld()
	_, err := w.Spawn("dup", nil, propsWith(nil))
	require.NoError(t, err)
	e2, err := w.Spawn("dup", nil, propsWith(nil))
	require.NoError(t, err)

	got, ok := w.Index().LookupID("dup")
	require.True(t, ok)
	assert.Equal(t, e2, got)
}

func TestWorld_DirtyTrackingOption(t *testing.T) {
	w := NewWorld(WithDirtyTracking())
	_, err := w.Spawn("", []string{"enemy"}, propsWith(map[string]float64{"health": 10}))
	require.NoError(t, err)

	assert.Equal(t, 1, w.Tracker().Len(), "tags and props mutations mark the entity once")

	w2 := NewWorld()
	_, err = w2.Spawn("", nil, propsWith(nil))
	require.NoError(t, err)
	assert.Zero(t, w2.Tracker().Len(), "tracker is disabled by default")
}

func TestWorld_ResetRestoresEmptyWorld(t *testing.T) {
	w := NewWorld(WithDirtyTracking())
	_, err := w.Spawn("player", []string{"hero"}, propsWith(map[string]float64{"health": 100}))
	require.NoError(t, err)
	require.NoError(t, w.LoadRules([]byte(`{"rules":[{"from":"#hero","do":{"mut":[{"target":"properties.health","value":1}]}}]}`)))
	w.RunFrame(0.016)

	w.Reset()

	assert.Zero(t, w.Entities().Count())
	assert.Empty(t, w.Rules())
	assert.Zero(t, w.Tracker().Len())
	assert.Zero(t, w.Clock().Frame())
	_, ok := w.Index().LookupID("player")
	assert.False(t, ok, "reset sweeps the selector index through deactivation cleanups")

	// The world is reusable after reset.
	var matched []entity.Entity
	_, err = w.Spawn("player", []string{"hero"}, propsWith(nil))
	require.NoError(t, err)
	w.Index().Resolve(selector.Selector{Kind: selector.ByTag, Name: "hero"}, func(e entity.Entity) bool {
		matched = append(matched, e)
		return true
	})
	assert.Len(t, matched, 1)
}

func TestWorld_StartFrameOption(t *testing.T) {
	w := NewWorld(WithStartFrame(42))
	assert.Equal(t, uint64(42), w.Clock().Frame())

	frame := w.RunFrame(0.016)
	assert.Equal(t, uint64(43), frame, "frames continue from the start frame")

	w.Reset()
	assert.Zero(t, w.Clock().Frame(), "reset always returns to frame 0")
}

func TestWorld_CapacityOption(t *testing.T) {
	w := NewWorld(WithCapacity(300))
	assert.Equal(t, 300, w.Entities().Capacity())

	for i := 0; i < 300-entity.ReservedCount; i++ {
		_, err := w.Spawn("", nil, propsWith(nil))
		require.NoError(t, err)
	}
	_, err := w.Spawn("", nil, propsWith(nil))
	assert.ErrorIs(t, err, entity.ErrExhausted)
}
