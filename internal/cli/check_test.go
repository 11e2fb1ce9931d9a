package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkResponse struct {
	Status string      `json:"status"`
	Data   CheckResult `json:"data"`
	Error  *CLIError   `json:"error"`
}

func TestCheckValidCatalog(t *testing.T) {
	catalog := writeCatalogFile(t, `
rules: [
	{name: "Pyridine oxide to n+O-", pattern: "[n:1]=[O:2]>>[n+:1][O-:2]"},
	{name: "Azide to N=N+=N-",       pattern: "[N;X2:1]=[N:2]#[N;D1:3]>>[N:1]=[N+:2]=[N-:3]"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All 2 rule(s) compile")
}

func TestCheckValidCatalogJSON(t *testing.T) {
	catalog := writeCatalogFile(t, `
rules: [
	{name: "Pyridine oxide to n+O-", pattern: "[n:1]=[O:2]>>[n+:1][O-:2]"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp checkResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Rules)
	assert.Empty(t, resp.Data.Errors)
}

func TestCheckInvalidRule(t *testing.T) {
	// Loads fine, fails pattern compilation: no '>>' separator.
	catalog := writeCatalogFile(t, `
rules: [
	{name: "Good", pattern: "[n:1]=[O:2]>>[n+:1][O-:2]"},
	{name: "No separator", pattern: "[n:1]=[O:2]"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 invalid rule(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ Catalog check failed")
	assert.Contains(t, output, "No separator")
	assert.Contains(t, output, "'>>' separator")
}

func TestCheckInvalidRuleJSON(t *testing.T) {
	catalog := writeCatalogFile(t, `
rules: [
	{name: "Unmapped atom", pattern: "[n:1]=[O:2]>>[n+:1][O-]"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp checkResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "Unmapped atom")
	require.Len(t, resp.Data.Errors, 1)
}

func TestCheckCollectsAllFailures(t *testing.T) {
	catalog := writeCatalogFile(t, `
rules: [
	{name: "First bad",  pattern: "no separator at all"},
	{name: "Good",       pattern: "[n:1]=[O:2]>>[n+:1][O-:2]"},
	{name: "Second bad", pattern: "[n:1]>>[n+]"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 invalid rule(s)")
	assert.Contains(t, buf.String(), "First bad")
	assert.Contains(t, buf.String(), "Second bad")
}

func TestCheckMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/rules.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E002")
	assert.Contains(t, buf.String(), "not found")
}

func TestCheckMalformedCUE(t *testing.T) {
	catalog := writeCatalogFile(t, `rules: [{name: "x" pattern:}]`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E003")
}

func TestCheckSchemaViolation(t *testing.T) {
	catalog := writeCatalogFile(t, `
rules: [
	{name: "Missing pattern"},
]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCheckCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{catalog})

	err := cmd.Execute()
	require.Error(t, err)
	// A catalog that does not match the schema never reaches the
	// compiler; it is a load failure, not a rule verdict.
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E004")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E004", resp.Error.Code)
}

func TestCheckRequiresExactlyOneArg(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}
