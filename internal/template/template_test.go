package template

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/expr"
)

func TestPrepareLiteralOnly(t *testing.T) {
	r := render(t, "SELECT 1", ctxFor(dialect.PostgreSQL, usersTable()), nil)
	assert.Equal(t, "SELECT 1", r.SQL)
	assert.Empty(t, r.Params)

	r = render(t, "", ctxFor(dialect.PostgreSQL, usersTable()), nil)
	assert.Equal(t, "", r.SQL)
}

func TestLiteralMarkersBecomeParameters(t *testing.T) {
	r := render(t, "SELECT * FROM t WHERE a = @a AND b = @b AND c = @a", ctxFor(dialect.SQLServer, usersTable()), Bindings{"a": 1})
	assert.Equal(t, []Param{{Name: "a", Value: 1}, {Name: "b", Value: nil}}, r.Params)
	assert.Equal(t, []string{"a", "b", "a"}, r.Occurrences())
}

func TestLiteralMarkersSkipStringsAndSystemVariables(t *testing.T) {
	r := render(t, "SELECT @@VERSION, '@x', [@y], @z", ctxFor(dialect.SQLServer, usersTable()), nil)
	assert.Equal(t, []string{"z"}, r.Names())

	r = render(t, "SELECT $1, x::int, '$a', $b", ctxFor(dialect.PostgreSQL, usersTable()), nil)
	assert.Equal(t, []string{"b"}, r.Names())
}

func TestPositionalArgsFollowMarkerOrder(t *testing.T) {
	r := render(t, "SELECT {{columns}} FROM {{table}} WHERE {{in id}} AND name = {{param who}} AND {{in id --param more}}",
		ctxFor(dialect.DB2, usersTable()),
		Bindings{"id": []int{1, 2}, "who": "ann", "more": []int{3}})

	assert.Equal(t, `SELECT "id", "name", "email" FROM "users" WHERE "id" IN (?, ?) AND name = ? AND "id" IN (?)`, r.SQL)
	assert.Equal(t, []any{1, 2, "ann", 3}, r.Args())
}

func TestNamedArgsFollowFirstAppearance(t *testing.T) {
	r := render(t, "{{param b}} {{param a}} {{param b}}", ctxFor(dialect.PostgreSQL, usersTable()), Bindings{"a": 1, "b": 2})
	assert.Equal(t, "$b $a $b", r.SQL)
	assert.Equal(t, []any{2, 1}, r.Args())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, r.Map())
}

func TestMintedNamesSkipEveryReservedName(t *testing.T) {
	tmpl, err := Prepare("WHERE {{in id}} AND x = $id_1 AND {{values --param id_2}}", ctxFor(dialect.PostgreSQL, usersTable()))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id_1", "id_2"}, tmpl.Reserved())

	r, err := tmpl.Render(Bindings{"id": []int{7}})
	require.NoError(t, err)
	assert.Equal(t, `WHERE "id" IN ($id_3) AND x = $id_1 AND $id_2`, r.SQL)
}

func TestMintedNamesAvoidExplicitParamOfDynamicSites(t *testing.T) {
	r := render(t, "{{in id}} {{in name --param id_2}}", ctxFor(dialect.PostgreSQL, usersTable()),
		Bindings{"id": []int{1, 2}, "id_2": []string{"x"}})
	assert.Equal(t, `"id" IN ($id_1, $id_3) "name" IN ($id_2_4)`, r.SQL)
}

func TestRenderIsRepeatable(t *testing.T) {
	tmpl, err := Prepare("SELECT {{columns}} FROM {{table}} {{where --expr f}} {{in id}}", ctxFor(dialect.PostgreSQL, usersTable()))
	require.NoError(t, err)

	b := Bindings{"f": expr.Compare("name", expr.OpEq, "ann"), "id": []int{1}}
	first, err := tmpl.Render(b)
	require.NoError(t, err)
	second, err := tmpl.Render(b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, `SELECT "id", "name", "email" FROM "users" WHERE "name" = $name_1 "id" IN ($id_2)`, first.SQL)
}

func TestConcurrentRenders(t *testing.T) {
	tmpl, err := Prepare("{{where --expr f}} {{in id}}", ctxFor(dialect.PostgreSQL, usersTable()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Rendered, 32)
	errs := make([]error, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = tmpl.Render(Bindings{
				"f":  expr.Compare("name", expr.OpEq, "ann"),
				"id": []int{i},
			})
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, `WHERE "name" = $name_1 "id" IN ($id_2)`, r.SQL)
		assert.Equal(t, i, r.Params[1].Value)
	}
}

func TestPrepareSyntaxErrors(t *testing.T) {
	ctx := ctxFor(dialect.PostgreSQL, usersTable())

	tests := []struct {
		text string
		msg  string
	}{
		{"SELECT {{columns", "unterminated placeholder"},
		{"SELECT }} x", "unbalanced '}}'"},
		{"SELECT 'a}}b', 'it''s' }}", "unbalanced '}}'"},
		{"{{columns {{table}}}}", "nested '{{'"},
		{"{{   }}", "empty placeholder"},
		{"{{case x --else 'open}}", "unterminated quote"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			err := prepareErr(t, tt.text, ctx)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Message, tt.msg)
			assert.Equal(t, ErrCodeSyntax, CodeOf(err))
		})
	}
}

func TestClosingBracesInStringLiteral(t *testing.T) {
	ctx := ctxFor(dialect.PostgreSQL, usersTable())

	got := renderSQL(t, "SELECT {{columns --only id}} FROM {{table}} WHERE name = '{}}' OR name = 'x''}}'", ctx, nil)
	assert.Equal(t, `SELECT "id" FROM "users" WHERE name = '{}}' OR name = 'x''}}'`, got)
}

func TestPrepareErrorSpans(t *testing.T) {
	text := "SELECT {{columns}}\nFROM {{table}}\nWHERE {{frobnicate id}}"
	err := prepareErr(t, text, ctxFor(dialect.PostgreSQL, usersTable()))

	var ue *UnknownPlaceholderError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "frobnicate", ue.Name)
	assert.Equal(t, 3, ue.Span.Line)
	assert.Equal(t, 7, ue.Span.Column)
	assert.Equal(t, "{{frobnicate id}}", ue.Span.Text)
	assert.Equal(t, len("SELECT {{columns}}\nFROM {{table}}\nWHERE "), ue.Span.Offset)
	assert.Contains(t, err.Error(), "E202")
	assert.Contains(t, err.Error(), "line 3, column 7")
}

func TestPrepareUnknownOption(t *testing.T) {
	err := prepareErr(t, "{{columns --frobnicate}}", ctxFor(dialect.PostgreSQL, usersTable()))
	var uo *UnsupportedOptionError
	require.ErrorAs(t, err, &uo)
	assert.Equal(t, "columns", uo.Placeholder)
	assert.Equal(t, "frobnicate", uo.Option)
	assert.Equal(t, ErrCodeUnsupportedOption, CodeOf(err))
}

func TestPrepareArgumentCounts(t *testing.T) {
	ctx := ctxFor(dialect.PostgreSQL, usersTable())
	assert.True(t, IsSyntax(prepareErr(t, "{{in}}", ctx)))
	assert.True(t, IsSyntax(prepareErr(t, "{{table users}}", ctx)))
	assert.True(t, IsSyntax(prepareErr(t, "{{bool_true x}}", ctx)))
}

func TestPlaceholderNamesAreCaseInsensitive(t *testing.T) {
	assert.Equal(t, `"users"`, renderSQL(t, "{{TABLE}}", ctxFor(dialect.PostgreSQL, usersTable()), nil))
}

func TestPrepareRequiresDialect(t *testing.T) {
	_, err := Prepare("SELECT 1", Context{Table: usersTable()})
	assert.True(t, dialect.IsUnsupportedDialect(err))
	assert.Equal(t, "E210", CodeOf(err))
}

func TestPrepareWithoutTable(t *testing.T) {
	r := render(t, "SELECT {{bool_true}} {{param x}}", ctxFor(dialect.MySQL, nil), Bindings{"x": 1})
	assert.Equal(t, "SELECT 1 @x", r.SQL)

	err := prepareErr(t, "{{columns --only id}}", ctxFor(dialect.MySQL, nil))
	assert.True(t, IsUnknownColumn(err))
}

func TestTemplateAccessors(t *testing.T) {
	ctx := ctxFor(dialect.PostgreSQL, usersTable())
	text := "SELECT {{columns}} FROM {{table}} {{where}}"
	tmpl, err := Prepare(text, ctx)
	require.NoError(t, err)

	assert.Equal(t, text, tmpl.Text())
	assert.Equal(t, ctx, tmpl.Context())
	assert.Equal(t, []string{"columns", "table", "where"}, tmpl.Placeholders())
	assert.Equal(t, TemplateID(text, ctx), tmpl.ID())
}

func TestTemplateIDDependsOnDialectTableAndText(t *testing.T) {
	pg := ctxFor(dialect.PostgreSQL, usersTable())
	my := ctxFor(dialect.MySQL, usersTable())
	people := ctxFor(dialect.PostgreSQL, peopleTable())

	id := TemplateID("{{columns}}", pg)
	assert.Equal(t, id, TemplateID("{{columns}}", ctxFor(dialect.PostgreSQL, usersTable())))
	assert.NotEqual(t, id, TemplateID("{{columns}}", my))
	assert.NotEqual(t, id, TemplateID("{{columns}}", people))
	assert.NotEqual(t, id, TemplateID("{{columns }}", pg))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Prepare("{{columns}}", ctxFor(dialect.PostgreSQL, usersTable()), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "template prepared")
	assert.Contains(t, buf.String(), "dialect=postgres")
}

func TestKindsAndFlags(t *testing.T) {
	kinds := Kinds()
	assert.Contains(t, kinds, "upsert")
	assert.Contains(t, kinds, "row_number")
	assert.IsIncreasing(t, kinds)

	flags, ok := Flags("columns")
	require.True(t, ok)
	assert.Equal(t, []string{"exclude", "only", "qualify"}, flags)

	_, ok = Flags("nope")
	assert.False(t, ok)
}
