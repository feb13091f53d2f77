package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stencil/internal/expr"
)

func decodeYAML(t *testing.T, src string) map[string]any {
	t.Helper()
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(src), &raw))
	return raw
}

func TestDecodeBindingsPassesValuesThrough(t *testing.T) {
	b, err := DecodeBindings(decodeYAML(t, `
id: 7
name: Ann
ids: [1, 2]
sub: "SELECT 1"
none: null
`))
	require.NoError(t, err)
	assert.Equal(t, 7, b["id"])
	assert.Equal(t, "Ann", b["name"])
	assert.Equal(t, []any{1, 2}, b["ids"])
	assert.Equal(t, "SELECT 1", b["sub"])
	v, ok := b["none"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDecodePredicate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want expr.Node
	}{
		{
			name: "comparison",
			yaml: `{op: ">=", member: age, value: 25}`,
			want: expr.Compare("age", expr.OpGe, 25),
		},
		{
			name: "sql operator spelling",
			yaml: `{op: "<>", member: name, value: x}`,
			want: expr.Compare("name", expr.OpNe, "x"),
		},
		{
			name: "null comparison",
			yaml: `{op: "==", member: email}`,
			want: expr.Comparison{Op: expr.OpEq, Left: expr.Member("email"), Right: expr.Value(nil)},
		},
		{
			name: "and folds left",
			yaml: `{and: [{member: active}, {op: ">", member: age, value: 1}, {op: "<", member: age, value: 9}]}`,
			want: expr.And{
				Left: expr.And{
					Left:  expr.MemberBoolean{Member: expr.Member("active")},
					Right: expr.Compare("age", expr.OpGt, 1),
				},
				Right: expr.Compare("age", expr.OpLt, 9),
			},
		},
		{
			name: "single or",
			yaml: `{or: [{member: active}]}`,
			want: expr.MemberBoolean{Member: expr.Member("active")},
		},
		{
			name: "not",
			yaml: `{not: {member: active}}`,
			want: expr.Not{Operand: expr.MemberBoolean{Member: expr.Member("active")}},
		},
		{
			name: "contains default mode",
			yaml: `{contains: {member: name, value: jo}}`,
			want: expr.StringContains{Member: expr.Member("name"), Value: expr.Value("jo"), Mode: expr.MatchContains},
		},
		{
			name: "contains suffix",
			yaml: `{contains: {member: name, value: jo, mode: suffix}}`,
			want: expr.StringContains{Member: expr.Member("name"), Value: expr.Value("jo"), Mode: expr.MatchSuffix},
		},
		{
			name: "in",
			yaml: `{in: {member: id, values: [1, 2]}}`,
			want: expr.Membership{Member: expr.Member("id"), Values: []any{1, 2}},
		},
		{
			name: "empty in",
			yaml: `{in: {member: id, values: []}}`,
			want: expr.Membership{Member: expr.Member("id"), Values: []any{}},
		},
		{
			name: "traversal",
			yaml: `{op: "==", member: customer.name, value: x}`,
			want: expr.Comparison{
				Op:    expr.OpEq,
				Left:  expr.MemberAccess{Name: "customer", Path: []string{"name"}},
				Right: expr.Value("x"),
			},
		},
		{
			name: "call",
			yaml: `{call: {name: ToUpper, member: name}}`,
			want: expr.MethodCall{Name: "ToUpper", Receiver: expr.Member("name")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePredicate(decodeYAML(t, tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodePredicateErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown shape", `{foo: 1}`, "unrecognized predicate"},
		{"bad operator", `{op: "~", member: a, value: 1}`, "unknown operator"},
		{"missing member", `{op: "==", value: 1}`, "expected a property name"},
		{"extra key", `{op: "==", member: a, value: 1, extra: 2}`, `unexpected key "extra"`},
		{"empty and", `{and: []}`, "non-empty list"},
		{"scalar in list", `{or: [1]}`, "or[0]: expected a predicate map"},
		{"nested error", `{and: [{member: a}, {op: "?", member: b}]}`, "and[1]: op: unknown operator"},
		{"contains not a map", `{contains: jo}`, "contains: expected a map"},
		{"bad mode", `{contains: {member: a, value: b, mode: fuzzy}}`, "unknown mode"},
		{"in values scalar", `{in: {member: a, values: 1}}`, "values must be a list"},
		{"call without name", `{call: {member: a}}`, "name is required"},
		{"not scalar", `{not: true}`, "not: expected a predicate map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePredicate(decodeYAML(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeBindingsNamesTheBinding(t *testing.T) {
	_, err := DecodeBindings(decodeYAML(t, `filter: {op: "~", member: a}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `binding "filter"`)
}
