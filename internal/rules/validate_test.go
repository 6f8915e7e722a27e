package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsPoisonRule(t *testing.T) {
	require.NoError(t, Validate([]byte(poisonRuleJSON)))
}

func TestValidate_RejectsMalformedFiles(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"empty rule list", `{"rules": []}`},
		{"missing rules key", `{}`},
		{"missing do", `{"rules":[{"from":"#a"}]}`},
		{"empty mutation list", `{"rules":[{"from":"#a","do":{"mut":[]}}]}`},
		{"target without properties prefix", `{"rules":[{"from":"#a","do":{"mut":[{"target":"health","value":1}]}}]}`},
		{"unknown operator", `{"rules":[{"from":"#a","where":{"op":"xor","args":[true,true]},"do":{"mut":[{"target":"properties.x","value":1}]}}]}`},
		{"call without args", `{"rules":[{"from":"#a","where":{"op":"not"},"do":{"mut":[{"target":"properties.x","value":1}]}}]}`},
		{"empty from", `{"rules":[{"from":"","do":{"mut":[{"target":"properties.x","value":1}]}}]}`},
		{"null value", `{"rules":[{"from":"#a","do":{"mut":[{"target":"properties.x","value":null}]}}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(tc.json)))
		})
	}
}

func TestLoad_ValidatesBeforeDecoding(t *testing.T) {
	// Structurally invalid JSON must fail at the schema stage, not decode.
	_, err := Load([]byte(`{"rules":[{"from":"#a","do":{"mut":[{"target":"health","value":1}]}}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	rules, err := Load([]byte(poisonRuleJSON))
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
