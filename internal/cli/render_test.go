package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entities = "testdata/entities.yaml"

func TestRenderWithEntity(t *testing.T) {
	out, _, err := execute(t, "render", "-d", "postgres", "--entities", entities, "--entity", "User",
		"SELECT {{columns --only id,name}} FROM {{table}} {{where --key id}}", "--set", "id=7")
	require.NoError(t, err)
	assert.Equal(t, "SELECT \"id\", \"name\" FROM \"users\" WHERE \"id\" = $id\n-- id = 7\n", out)
}

func TestRenderFileAndBindingsJSON(t *testing.T) {
	out, _, err := execute(t, "render", "--format", "json", "-d", "postgres",
		"--entities", entities, "--entity", "user",
		"-f", "testdata/list_users.sql", "-b", "testdata/bindings.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "SELECT \"id\", \"name\"\nFROM \"users\"\nWHERE (\"name\" = $name_1 AND \"active\" = TRUE)", data["sql"])
	assert.Equal(t, []any{map[string]any{"name": "name_1", "value": "Ann"}}, data["params"])
	assert.NotContains(t, data, "args")
}

func TestRenderSetOverridesBindingsFile(t *testing.T) {
	out, _, err := execute(t, "render", "-d", "mysql", "--entities", entities, "--entity", "User",
		"SELECT {{columns --only id}} FROM {{table}} {{where --expr filter}}",
		"-b", "testdata/bindings.yaml", "--set", "filter={member: active}")
	require.NoError(t, err)
	assert.Equal(t, "SELECT `id` FROM `users` WHERE `active` = 1\n", out)
}

func TestRenderPositionalArgs(t *testing.T) {
	out, _, err := execute(t, "render", "-d", "db2", "--entities", entities, "--entity", "Order",
		"SELECT {{count}} FROM {{table}} WHERE {{in user_id}}", "--set", "user_id=[3, 4]")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM \"orders\" WHERE \"user_id\" IN (?, ?)\n"+
		"-- user_id_1 = 3\n-- user_id_2 = 4\n-- args [3 4]\n", out)
}

func TestRenderFromStdin(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("SELECT {{current_timestamp}}\n"))
	cmd.SetArgs([]string{"render", "-d", "db2", "-f", "-"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "SELECT CURRENT TIMESTAMP\n", out.String())
}

func TestRenderTemplateError(t *testing.T) {
	out, _, err := execute(t, "render", "--format", "json", "-d", "postgres", "--entities", entities, "--entity", "User",
		"SELECT {{columns}} FROM {{table}} {{where --expr filter}}")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E205", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `binding "filter": missing binding`)
}

func TestRenderTextError(t *testing.T) {
	out, _, err := execute(t, "render", "-d", "postgres", "SELECT {{nope}}")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]")
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
		want string
	}{
		{"no dialect", []string{"SELECT 1"}, ErrCodeUsage, "no dialect"},
		{"unknown dialect", []string{"-d", "informix", "SELECT 1"}, "E210", "informix"},
		{"no template", []string{"-d", "mysql"}, ErrCodeUsage, "no template"},
		{"argument and file", []string{"-d", "mysql", "-f", "testdata/list_users.sql", "SELECT 1"}, ErrCodeUsage, "not both"},
		{"missing file", []string{"-d", "mysql", "-f", "testdata/none.sql"}, ErrCodeUsage, "failed to read template"},
		{"bad set", []string{"-d", "mysql", "--set", "novalue", "SELECT 1"}, ErrCodeUsage, "want name=value"},
		{"bad predicate", []string{"-d", "mysql", "--set", "f={bogus: 1}", "SELECT 1"}, ErrCodeUsage, `binding "f"`},
		{"entity without entities", []string{"-d", "mysql", "--entity", "User", "SELECT 1"}, ErrCodeUsage, "without --entities"},
		{"ambiguous entity", []string{"-d", "mysql", "--entities", entities, "SELECT 1"}, ErrCodeUsage, "defines 2 entities"},
		{"unknown entity", []string{"-d", "mysql", "--entities", entities, "--entity", "Invoice", "SELECT 1"}, ErrCodeUsage, `entity "Invoice" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--format", "json"}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.want)
		})
	}
}
