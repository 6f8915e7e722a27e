package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_DamageWaveScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/damage-wave.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, uint64(1), result.Trace[0].Frame)
	assert.Equal(t, "front", result.Trace[0].Ident)
	assert.JSONEq(t, `{"health":40}`, string(result.Trace[0].Properties))
	assert.Equal(t, "rear", result.Trace[1].Ident)
	assert.JSONEq(t, `{"health":50}`, string(result.Trace[1].Properties))
}

func TestRun_FailedAssertionFailsTheResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/damage-wave.yaml")
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertPropertyEquals, ID: "front", Property: "health", Value: 999},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "property_equals")
	assert.Contains(t, result.Errors[0], "999")
}

func TestRun_SpawnMutationsAreNotTraced(t *testing.T) {
	scenario := &Scenario{
		Name:        "idle",
		Description: "nothing matches, nothing mutates",
		Scene:       `{"entities":[{"id":"a","properties":{"health":1}}]}`,
		Rules:       `{"rules":[{"from":"#ghost","do":{"mut":[{"target":"properties.health","value":0}]}}]}`,
		Frames:      2,
		Assertions: []Assertion{
			{Type: AssertMutationCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Errors)
	assert.Empty(t, result.Trace)
}

func TestRun_BadRulesFailBeforeSpawning(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "rule file fails schema validation",
		Scene:       `{"entities":[{"id":"a","properties":{}}]}`,
		Rules:       `{"rules":[]}`,
		Frames:      1,
		Assertions:  []Assertion{{Type: AssertMutationCount, Count: 0}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load rules")
}

func TestEvaluateAssertions_HasTag(t *testing.T) {
	scenario := &Scenario{
		Name:        "tags",
		Description: "tag membership is assertable both ways",
		Scene:       `{"entities":[{"id":"a","tags":["enemy"],"properties":{}}]}`,
		Rules:       `{"rules":[{"from":"#enemy","do":{"mut":[{"target":"properties.seen","value":true}]}}]}`,
		Frames:      1,
		Assertions: []Assertion{
			{Type: AssertHasTag, ID: "a", Tag: "enemy"},
			{Type: AssertHasTag, ID: "a", Tag: "ally", Expect: boolPtr(false)},
			{Type: AssertPropertyEquals, ID: "a", Property: "seen", Value: true},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Errors)
}

func boolPtr(b bool) *bool { return &b }
