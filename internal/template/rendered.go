package template

import (
	"github.com/roach88/stencil/internal/expr"
)

// Param is a named parameter value.
type Param = expr.Param

// Bindings are the runtime values of one render. Keys are parameter names
// or slot names used by dynamic placeholders. Values are parameter values,
// slices (list forms), expr.Node trees (predicate forms) and *Rendered or
// string (subquery forms).
type Bindings map[string]any

// Rendered is the output of one render: SQL text and its parameters.
//
// A Rendered is produced fresh by every render and is never shared.
type Rendered struct {
	// SQL is the final statement text.
	SQL string
	// Params lists every parameter the SQL references, by first
	// appearance. Unbound parameters carry a nil value.
	Params []Param

	positional  bool
	occurrences []string
	minted      map[string]struct{}
}

// Map returns the parameters as a name to value map.
func (r *Rendered) Map() map[string]any {
	m := make(map[string]any, len(r.Params))
	for _, p := range r.Params {
		m[p.Name] = p.Value
	}
	return m
}

// Names returns parameter names by first appearance.
func (r *Rendered) Names() []string {
	names := make([]string, len(r.Params))
	for i, p := range r.Params {
		names[i] = p.Name
	}
	return names
}

// Value returns the value bound to name.
func (r *Rendered) Value(name string) (any, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Occurrences returns parameter names in the order their markers appear in
// SQL, one entry per marker.
func (r *Rendered) Occurrences() []string {
	out := make([]string, len(r.occurrences))
	copy(out, r.occurrences)
	return out
}

// Args returns the values to pass to a driver. For positional dialects this
// is one value per marker in SQL order; for named dialects one value per
// parameter.
func (r *Rendered) Args() []any {
	if !r.positional {
		args := make([]any, len(r.Params))
		for i, p := range r.Params {
			args[i] = p.Value
		}
		return args
	}
	m := r.Map()
	args := make([]any, len(r.occurrences))
	for i, name := range r.occurrences {
		args[i] = m[name]
	}
	return args
}
