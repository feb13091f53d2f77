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

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse parses a JSON CLIResponse.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stencil", cmd.Use)
	assert.Contains(t, cmd.Long, "placeholders")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"render", "check", "test", "gen", "dialects"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "d", dialectFlag.Shorthand)

	for _, name := range []string{"config", "dsn", "entities", "entity"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "dialects", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stencil.yaml", "dialect: mysql\nformat: json\n")

	out, _, err := execute(t, "render", "--config", path, "SELECT {{bool_true}}")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "mysql", data["dialect"])
	assert.Equal(t, "SELECT 1", data["sql"])
}

func TestConfigPrecedence(t *testing.T) {
	path := writeFile(t, t.TempDir(), "stencil.yaml", "dialect: mysql\n")

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("STENCIL_DIALECT", "postgres")
		out, _, err := execute(t, "render", "--config", path, "SELECT {{bool_true}}")
		require.NoError(t, err)
		assert.Equal(t, "SELECT TRUE\n", out)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("STENCIL_DIALECT", "postgres")
		out, _, err := execute(t, "render", "--config", path, "--dialect", "sqlserver", "SELECT {{bool_true}}")
		require.NoError(t, err)
		assert.Equal(t, "SELECT 1\n", out)
	})
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "dialects", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestDSNSelectsDialect(t *testing.T) {
	out, _, err := execute(t, "render", "--dsn", "postgres://app@localhost/shop", "SELECT {{bool_false}}")
	require.NoError(t, err)
	assert.Equal(t, "SELECT FALSE\n", out)

	out, _, err = execute(t, "render", "--dsn", "app:secret@tcp(localhost:3306)/shop", "SELECT {{bool_false}}")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 0\n", out)
}

func TestVerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, "render", "-v", "-d", "postgres", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1\n", out)
	assert.Contains(t, errOut, "rendered")
	assert.Contains(t, errOut, "dialect=postgres")

	_, errOut, err = execute(t, "render", "-d", "postgres", "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, errOut)
}
