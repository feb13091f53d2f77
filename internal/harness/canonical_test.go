package harness

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, `null`},
		{"bool", true, `true`},
		{"int", 42, `42`},
		{"int64", int64(-7), `-7`},
		{"uint8", uint8(9), `9`},
		{"float", 0.25, `0.25`},
		{"whole float", 3.0, `3`},
		{"no html escaping", "<a & b>", `"<a & b>"`},
		{"quote and backslash", `say "hi" \ bye`, `"say \"hi\" \\ bye"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"line separator kept", "a\u2028b", "\"a\u2028b\""},
		{"escaped text kept", `a\u2028b`, `"a\\u2028b"`},
		{"bytes", []byte("raw"), `"raw"`},
		{"list", []any{1, "x", nil}, `[1,"x",null]`},
		{"typed list", []int{3, 1}, `[3,1]`},
		{"nested", map[string]any{"b": []any{map[string]any{"z": 1, "a": 2}}, "a": "x"}, `{"a":"x","b":[{"a":2,"z":1}]}`},
		{"stringer", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), `"2024-01-02 03:04:05 +0000 UTC"`},
		{"pointer", ptr(5), `5`},
		{"nil pointer", (*int)(nil), `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalKeyOrderUTF16(t *testing.T) {
	// By code point U+FF61 sorts first; by UTF-16 code unit the surrogate
	// 0xD83D of U+1F600 does.
	got, err := MarshalCanonical(map[string]any{"｡": 1, "\U0001f600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001f600\":2,\"｡\":1}", string(got))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(math.NaN())
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": math.Inf(1)})
	assert.ErrorContains(t, err, `value for key "x"`)

	_, err = MarshalCanonical(make(chan int))
	assert.ErrorContains(t, err, "unsupported type")
}

func ptr[T any](v T) *T { return &v }
