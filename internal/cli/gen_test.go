package cli

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenToStdout(t *testing.T) {
	out, _, err := execute(t, "gen", scenariosDir, "--package", "q")
	require.NoError(t, err)

	file, err := parser.ParseFile(token.NewFileSet(), "q.go", out, parser.ParseComments)
	require.NoError(t, err, out)
	assert.Equal(t, "q", file.Name.Name)

	assert.Contains(t, out, "// Code generated by stencil. DO NOT EDIT.")
	assert.Contains(t, out, "// UsersAgeRange is rendered for postgres.")
	assert.Contains(t, out, "UsersInDb2Params")
	assert.Contains(t, out, `"id_1", "id_2", "id_3"`)
	assert.NotContains(t, out, "MissingBinding")
	assert.NotContains(t, out, "MethodCall")
}

func TestGenToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries", "queries_gen.go")
	out, _, err := execute(t, "gen", scenariosDir, "-o", path, "--filter", "users_in_*")
	require.NoError(t, err)
	assert.Equal(t, "✓ Generated 1 statement(s) in "+path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package queries")
	assert.Contains(t, string(data), "UsersInDb2")
}

func TestGenJSON(t *testing.T) {
	out, _, err := execute(t, "gen", "--format", "json", scenariosDir, "--filter", "users_*")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "queries", data["package"])
	assert.Equal(t, []any{"users_age_range", "users_in_db2", "users_insert_sqlite", "users_name_prefix_mysql"}, data["statements"])
	assert.Contains(t, data["source"], "const UsersNamePrefixMysql = ")
}

func TestGenRenderError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", `
name: broken
description: needs a binding it does not have
dialect: postgres
template: "SELECT {{param id}}"
expect: {sql: "SELECT $id"}
`)
	writeFile(t, dir, "filtered.yaml", `
name: filtered
description: predicate slot without a binding
dialect: postgres
entity: User
template: "SELECT 1 FROM {{table}} {{where --expr f}}"
expect: {sql: "SELECT 1"}
`)

	out, _, err := execute(t, "gen", "--format", "json", dir, "--entities", entities)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E205", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "scenario filtered")
}

func TestGenBadPackage(t *testing.T) {
	_, _, err := execute(t, "gen", scenariosDir, "--package", "my-queries")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
