package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSQLiteAccepts(t *testing.T) {
	out, _, err := execute(t, "check", "-d", "sqlite", "--entities", entities, "--entity", "User",
		"UPDATE {{table}} SET {{set --exclude id}} {{where --key id}}")
	require.NoError(t, err)
	assert.Contains(t, out, `UPDATE "users" SET "name" = @name, "email" = @email, "active" = @active WHERE "id" = @id`)
	assert.Contains(t, out, "✓ accepted by sqlite checker")
}

func TestCheckSQLiteRejects(t *testing.T) {
	out, _, err := execute(t, "check", "--format", "json", "-d", "sqlite", "--entities", entities, "--entity", "User",
		"SELEKT {{columns}} FROM {{table}}")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCheckFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "sqlite rejected statement")
}

func TestCheckMySQL(t *testing.T) {
	out, _, err := execute(t, "check", "--format", "json", "-d", "mariadb", "--entities", entities, "--entity", "Order",
		"SELECT {{columns}} FROM {{table}} {{orderby total --desc}} {{limit 5}}")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "mysql", data["dialect"])
	assert.Equal(t, true, data["valid"])
}

func TestCheckNoChecker(t *testing.T) {
	out, _, err := execute(t, "check", "-d", "oracle", "SELECT 1 FROM DUAL")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no offline checker for dialect oracle")
}

func TestCheckRenderError(t *testing.T) {
	_, _, err := execute(t, "check", "-d", "sqlite", "SELECT {{nope}}")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
