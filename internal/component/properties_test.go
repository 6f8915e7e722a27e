package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-games/atomic/internal/event"
	"github.com/halcyon-games/atomic/internal/scalar"
)

func TestProperties_KeysAreCaseInsensitive(t *testing.T) {
	p := NewProperties()
	p.Set("Health", scalar.Number(100))

	assert.Equal(t, scalar.Number(100), p.Get("health"))
	assert.Equal(t, scalar.Number(100), p.Get("HEALTH"))
	assert.True(t, p.Has("heaLTH"))

	p.Set("HEALTH", scalar.Number(90))
	assert.Equal(t, 1, p.Len(), "case variants share one slot")
	assert.Equal(t, scalar.Number(90), p.Get("Health"))
}

func TestProperties_MissingKeyIsAbsentNotZero(t *testing.T) {
	p := NewProperties()
	v := p.Get("mana")
	assert.True(t, scalar.IsAbsent(v))

	p.Set("mana", scalar.Number(0))
	assert.Equal(t, scalar.Number(0), p.Get("mana"), "explicit zero is distinct from absence")
}

func TestProperties_Delete(t *testing.T) {
	p := NewProperties()
	p.Set("Poison", scalar.Bool(true))

	assert.True(t, p.Delete("poison"))
	assert.False(t, p.Delete("poison"))
	assert.True(t, scalar.IsAbsent(p.Get("Poison")))
}

func TestProperties_MarshalSortsKeys(t *testing.T) {
	p := NewProperties()
	p.Set("zeta", scalar.Number(1))
	p.Set("Alpha", scalar.Text("x"))
	p.Set("mid", scalar.Bool(false))

	data, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"alpha":"x","mid":false,"zeta":1}`, string(data))
}

func TestParseProperties_DualFailureBehavior(t *testing.T) {
	bus := event.NewBus()
	var diags []ParseDiagnostic
	event.Subscribe(bus, func(d ParseDiagnostic) { diags = append(diags, d) })

	_, err := ParseProperties(bus, map[string]any{
		"Health": 100,
		"health": 90,
	})

	require.Error(t, err, "duplicate keys fail the parse")
	assert.Contains(t, err.Error(), "duplicate property key")
	require.Len(t, diags, 1, "and also publish a diagnostic event")
	assert.Contains(t, diags[0].Reason, "duplicate")
}

func TestParseProperties_RejectsNonScalars(t *testing.T) {
	bus := event.NewBus()
	var diags []ParseDiagnostic
	event.Subscribe(bus, func(d ParseDiagnostic) { diags = append(diags, d) })

	_, err := ParseProperties(bus, map[string]any{
		"position": map[string]any{"x": 1},
	})

	require.Error(t, err)
	assert.Len(t, diags, 1)
}

func TestParseProperties_HappyPath(t *testing.T) {
	bus := event.NewBus()
	p, err := ParseProperties(bus, map[string]any{
		"health":  100,
		"name":    "grunt",
		"hostile": true,
	})
	require.NoError(t, err)
	assert.Equal(t, scalar.Number(100), p.Get("health"))
	assert.Equal(t, scalar.Text("grunt"), p.Get("name"))
	assert.Equal(t, scalar.Bool(true), p.Get("hostile"))
}

func TestTags_SortedUniqueMembership(t *testing.T) {
	tags := NewTags("enemy", "animated", "enemy", "")

	assert.Equal(t, 2, tags.Len())
	assert.Equal(t, []string{"animated", "enemy"}, tags.Names())
	assert.True(t, tags.Has("enemy"))
	assert.False(t, tags.Has("ally"))
}

func TestTags_RemoveDoesNotDisturbOldCopies(t *testing.T) {
	tags := NewTags("a", "b", "c")
	old := tags

	require.True(t, tags.Remove("b"))

	assert.Equal(t, []string{"a", "c"}, tags.Names())
	assert.Equal(t, []string{"a", "b", "c"}, old.Names(), "pre-mutation copy keeps the old set")
}
