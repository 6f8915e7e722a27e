package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRulesJSON = `{
  "rules": [{
    "from": "#poisoned",
    "where": {"op": "gt", "args": ["properties.poisonStacks", 0]},
    "do": {"mut": [
      {"target": "properties.health",
       "value": {"op": "sub", "args": ["self.properties.health", "self.properties.poisonStacks"]}},
      {"target": "properties.poisonStacks",
       "value": {"op": "sub", "args": ["self.properties.poisonStacks", 1]}}
    ]}
  }]
}`

// executeCommand runs the root command with args and captures stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCommand_ValidFile(t *testing.T) {
	path := writeFile(t, "rules.json", validRulesJSON)

	out, err := executeCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rule(s) valid")
}

func TestValidateCommand_InvalidFile(t *testing.T) {
	path := writeFile(t, "rules.json", `{"rules": []}`)

	out, err := executeCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Rule file invalid")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "validate", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand_JSONFormat(t *testing.T) {
	path := writeFile(t, "rules.json", validRulesJSON)

	out, err := executeCommand(t, "validate", path, "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, "rules.json", validRulesJSON)

	_, err := executeCommand(t, "validate", path, "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
