package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenariosDir = "../harness/testdata/scenarios"
	goldenDir    = "../harness/testdata/golden"
)

const literalScenario = `
name: literal
description: literal statement
dialect: postgres
template: "SELECT {{bool_true}}"
expect: {sql: "SELECT TRUE"}
`

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	out, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, _, err := execute(t, "test", "--format", "json", t.TempDir())
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["total"])
}

func TestTestCommandScenarios(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ users_age_range")
	assert.Contains(t, out, "✓ missing_binding")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandScenariosJSON(t *testing.T) {
	out, _, err := execute(t, "test", "--format", "json", scenariosDir, "--golden", goldenDir, "-j", "2")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(6), data["passed"])
	assert.Len(t, data["scenarios"], 6)
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir, "--filter", "users_*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.NotContains(t, out, "missing_binding")

	_, _, err = execute(t, "test", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "literal.yaml", literalScenario)

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ literal (golden updated)")

	data, err := os.ReadFile(filepath.Join(dir, "golden", "literal.golden"))
	require.NoError(t, err)
	assert.Equal(t, `{"dialect":"postgres","params":{},"scenario":"literal","sql":"SELECT TRUE"}`+"\n", string(data))

	out, _, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ literal\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "literal.yaml", literalScenario)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeFile(t, filepath.Join(dir, "golden"), "literal.golden", `{"sql":"SELECT 1"}`+"\n")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ literal")
	assert.Contains(t, out, "snapshot does not match")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandAssertionFailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", `
name: wrong
description: wrong expectation
dialect: sqlite
template: "SELECT {{bool_true}}"
expect: {sql: "SELECT TRUE"}
`)

	out, _, err := execute(t, "test", "--format", "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
}

func TestTestCommandGlobalEntities(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.yaml", `
name: orders
description: entity from --entities
dialect: sqlserver
entity: Order
template: "SELECT {{columns --only id}} FROM {{table}}"
expect: {sql: "SELECT [id] FROM [orders]"}
`)

	out, _, err := execute(t, "test", dir, "--entities", entities)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ orders")

	_, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
