package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"==": OpEq, "=": OpEq, "<>": OpNe, "!=": OpNe, "ge": OpGe, "<": OpLt} {
		got, ok := ParseOp(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseOp("~=")
	assert.False(t, ok)
}

func TestParseMatchMode(t *testing.T) {
	m, ok := ParseMatchMode("")
	assert.True(t, ok)
	assert.Equal(t, MatchContains, m)

	m, ok = ParseMatchMode("prefix")
	assert.True(t, ok)
	assert.Equal(t, "prefix", m.String())

	_, ok = ParseMatchMode("regex")
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "Comparison", Kind(Comparison{}))
	assert.Equal(t, "Comparison", Kind(&Comparison{}))
	assert.Equal(t, "MethodCall", Kind(MethodCall{}))
	assert.Equal(t, "nil", Kind(nil))
}

func TestAllOfAnyOf(t *testing.T) {
	assert.Nil(t, AllOf())
	a := Compare("a", OpEq, 1)
	assert.Equal(t, a, AllOf(a))

	b := Compare("b", OpEq, 2)
	assert.Equal(t, Or{Left: a, Right: b}, AnyOf(a, b))
}

func TestSequence(t *testing.T) {
	s := NewSequence("id_2")
	assert.Equal(t, "id_1", s.Mint("id"))
	assert.Equal(t, "id_3", s.Mint("id"))
	assert.Equal(t, "name_4", s.Mint("name"))

	s.Reserve("x_5")
	assert.Equal(t, "x_6", s.Mint("x"))
	assert.Equal(t, "p_7", s.Mint(""))
	assert.Equal(t, "a_b_8", s.Mint("a.b"))
}
