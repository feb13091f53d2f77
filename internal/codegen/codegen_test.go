package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/expr"
	"github.com/roach88/stencil/internal/meta"
	"github.com/roach88/stencil/internal/template"
)

// decls parses src and returns its string constants and string-slice vars.
func decls(t *testing.T, src []byte) (*ast.File, map[string]string, map[string][]string) {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))

	consts := make(map[string]string)
	vars := make(map[string][]string)
	for _, d := range file.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			name := vs.Names[0].Name
			switch gd.Tok {
			case token.CONST:
				lit := vs.Values[0].(*ast.BasicLit)
				s, err := strconv.Unquote(lit.Value)
				require.NoError(t, err)
				consts[name] = s
			case token.VAR:
				cl := vs.Values[0].(*ast.CompositeLit)
				items := []string{}
				for _, e := range cl.Elts {
					s, err := strconv.Unquote(e.(*ast.BasicLit).Value)
					require.NoError(t, err)
					items = append(items, s)
				}
				vars[name] = items
			}
		}
	}
	return file, consts, vars
}

func TestEmit(t *testing.T) {
	src, err := Emit("queries", []Statement{
		{
			Name:    "find_users",
			Dialect: "postgres",
			Source:  "SELECT {{columns}}\n  FROM {{table}} {{where --expr f}}",
			SQL:     `SELECT "id", "name" FROM "users" WHERE ("age" >= $age_1 AND "age" <= $age_2)`,
			Params:  []string{"age_1", "age_2"},
		},
		{
			Name: "countAll",
			SQL:  "SELECT COUNT(*)\nFROM users",
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(src), "// "+Header+"\n"), string(src))

	file, consts, vars := decls(t, src)
	assert.Equal(t, "queries", file.Name.Name)
	assert.Equal(t, map[string]string{
		"FindUsers": `SELECT "id", "name" FROM "users" WHERE ("age" >= $age_1 AND "age" <= $age_2)`,
		"CountAll":  "SELECT COUNT(*)\nFROM users",
	}, consts)
	assert.Equal(t, map[string][]string{
		"FindUsersParams": {"age_1", "age_2"},
		"CountAllParams":  {},
	}, vars)

	out := string(src)
	assert.Contains(t, out, "// FindUsers is rendered for postgres.")
	assert.Contains(t, out, "//\tSELECT {{columns}} FROM {{table}} {{where --expr f}}")
	assert.Contains(t, out, "// CountAll is a rendered statement.")
	assert.Contains(t, out, "// FindUsersParams lists the parameters of FindUsers in binding order.")
}

func TestEmitErrors(t *testing.T) {
	tests := []struct {
		name  string
		pkg   string
		stmts []Statement
		want  string
	}{
		{"bad package", "my-pkg", nil, "invalid package name"},
		{"empty name", "q", []Statement{{SQL: "SELECT 1"}}, "statement name is empty"},
		{"not an identifier", "q", []Statement{{Name: "users.all", SQL: "SELECT 1"}}, "does not form an exported Go identifier"},
		{"digit first", "q", []Statement{{Name: "1st", SQL: "SELECT 1"}}, "does not form an exported Go identifier"},
		{"same identifier", "q", []Statement{{Name: "find_user", SQL: "a"}, {Name: "findUser", SQL: "b"}}, "both produce identifier FindUser"},
		{"params collision", "q", []Statement{{Name: "find", SQL: "a"}, {Name: "find_params", SQL: "b"}}, "both produce identifier FindParams"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Emit(tt.pkg, tt.stmts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIdentifier(t *testing.T) {
	for in, want := range map[string]string{
		"find_users":      "FindUsers",
		"findUsers":       "FindUsers",
		"FindUsers":       "FindUsers",
		"upsert-order":    "UpsertOrder",
		"list active ids": "ListActiveIds",
	} {
		got, err := Identifier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestFromRendered(t *testing.T) {
	users := meta.NewTable("users",
		meta.Column{Name: "id", Type: meta.TypeInt, Key: true},
		meta.Column{Name: "name", Type: meta.TypeString},
	)
	text := "UPDATE {{table}} SET {{set --exclude id}} WHERE {{in id}} OR name = @name"
	b := template.Bindings{"id": []any{1, 2}, "name": "x"}

	named, err := template.PrepareAndRender(text, template.NewContext(dialect.SQLServer, users), b)
	require.NoError(t, err)
	s := FromRendered("rename", dialect.SQLServer, text, named)
	assert.Equal(t, "sqlserver", s.Dialect)
	assert.Equal(t, named.SQL, s.SQL)
	assert.Equal(t, []string{"name", "id_1", "id_2"}, s.Params)

	positional, err := template.PrepareAndRender(
		"UPDATE {{table}} SET {{set --exclude id}} WHERE {{in id}}",
		template.NewContext(dialect.DB2, users),
		template.Bindings{"id": []any{1}, "name": "x"},
	)
	require.NoError(t, err)
	s = FromRendered("rename", dialect.DB2, "", positional)
	assert.Equal(t, []string{"name", "id_1"}, s.Params)
	assert.Equal(t, positional.Occurrences(), s.Params)

	filter := expr.Compare("name", expr.OpEq, "y")
	twice, err := template.PrepareAndRender(
		"SELECT 1 FROM {{table}} {{where --expr f}} AND name <> {{param name}}",
		template.NewContext(dialect.DB2, users),
		template.Bindings{"name": "x", "f": filter},
	)
	require.NoError(t, err)
	s = FromRendered("q", dialect.DB2, "", twice)
	assert.Equal(t, []string{"name_1", "name"}, s.Params)

	src, err := Emit("q", []Statement{s})
	require.NoError(t, err)
	_, consts, vars := decls(t, src)
	assert.Equal(t, twice.SQL, consts["Q"])
	assert.Equal(t, []string{"name_1", "name"}, vars["QParams"])
}
