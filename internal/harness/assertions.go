package harness

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an expectation does not hold.
type AssertionError struct {
	Type     string // sql, params, args, error, check
	Expected string
	Actual   string
	SQL      string // rendered SQL for context, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" && e.Type != "sql" {
		fmt.Fprintf(&buf, "\nRendered SQL:\n  %s\n", e.SQL)
	}
	return buf.String()
}

// EvaluateExpect compares result against expect and returns one message
// per failed expectation.
func EvaluateExpect(result *Result, expect Expect) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if expect.Error != "" {
		add(assertError(result, expect.Error))
		return errs
	}
	if result.Error != "" {
		add(&AssertionError{Type: "error", Expected: "no error", Actual: result.Error})
		return errs
	}

	add(assertSQL(result, expect.SQL))
	if expect.Params != nil {
		add(assertParams(result, expect.Params))
	}
	if expect.Args != nil {
		add(assertArgs(result, expect.Args))
	}
	return errs
}

func assertSQL(result *Result, want string) error {
	want = strings.TrimSpace(want)
	got := strings.TrimSpace(result.SQL)
	if want == got {
		return nil
	}
	return &AssertionError{Type: "sql", Expected: want, Actual: got}
}

func assertParams(result *Result, want map[string]any) error {
	if len(want) != len(result.Params) {
		return &AssertionError{
			Type:     "params",
			Expected: formatParams(want),
			Actual:   formatParams(result.Params),
			SQL:      result.SQL,
		}
	}
	for name, w := range want {
		got, ok := result.Params[name]
		if !ok || !valuesEqual(got, w) {
			return &AssertionError{
				Type:     "params",
				Expected: formatParams(want),
				Actual:   formatParams(result.Params),
				SQL:      result.SQL,
			}
		}
	}
	return nil
}

func assertArgs(result *Result, want []any) error {
	if valuesEqual(result.Args, want) {
		return nil
	}
	return &AssertionError{
		Type:     "args",
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", result.Args),
		SQL:      result.SQL,
	}
}

// assertError matches want against the error code or message.
func assertError(result *Result, want string) error {
	if result.Error == "" {
		return &AssertionError{Type: "error", Expected: want, Actual: "no error", SQL: result.SQL}
	}
	if result.Code == want || strings.Contains(result.Error, want) {
		return nil
	}
	actual := result.Error
	if result.Code != "" {
		actual = result.Code + ": " + actual
	}
	return &AssertionError{Type: "error", Expected: want, Actual: actual}
}

// formatParams renders a parameter map with sorted keys.
func formatParams(m map[string]any) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%#v", k, m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// valuesEqual compares two values. Numbers compare by value regardless of
// their Go type, since YAML and Go literals disagree on int widths.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
		return false
	}

	av, ev := reflect.ValueOf(actual), reflect.ValueOf(expected)
	if isList(av) && isList(ev) {
		if av.Len() != ev.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !valuesEqual(av.Index(i).Interface(), ev.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

func isList(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	}
	return 0, false
}
