package template

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/stencil/internal/expr"
	"github.com/roach88/stencil/internal/meta"
)

// {{where --expr slot}} or {{where [--key a,b]}}
//
// The expression form translates the predicate bound to slot; a nil
// predicate renders nothing. The key form compares key columns to their
// parameters and defaults to the table's key columns.
func prepareWhere(s *site) (instruction, error) {
	if err := s.exclusive("expr", "key"); err != nil {
		return instruction{}, err
	}
	if s.opts.Has("expr") {
		slot, _, err := s.value("expr")
		if err != nil {
			return instruction{}, err
		}
		return dynamic(predicateSlot("WHERE ", slot)), nil
	}

	cols, err := s.keyColumns()
	if err != nil {
		return instruction{}, err
	}
	terms := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.ParamName()
		terms[i] = s.quote(c) + " = " + s.d().Marker(names[i])
	}
	return static("WHERE "+strings.Join(terms, " AND "), names...), nil
}

// keyColumns resolves --key, defaulting to the table's key columns.
func (s *site) keyColumns() ([]meta.Column, error) {
	if s.opts.Has("key") {
		keys := s.opts.List("key")
		if len(keys) == 0 {
			return nil, s.syntaxf("--key requires a value")
		}
		return s.resolve(keys)
	}
	keys := s.ctx.Table.Keys()
	if len(keys) == 0 {
		return nil, s.unsupported("key", "table has no key columns")
	}
	return keys, nil
}

// predicateSlot renders keyword + the translated predicate bound to slot.
func predicateSlot(keyword, slot string) func(r *renderer) (string, error) {
	return func(r *renderer) (string, error) {
		v, err := r.binding(slot)
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", nil
		}
		node, ok := v.(expr.Node)
		if !ok {
			return "", r.bindingError(slot, fmt.Sprintf("expected a predicate expression, got %T", v))
		}
		sql, err := r.translate(node)
		if err != nil {
			return "", err
		}
		return keyword + sql, nil
	}
}

// {{between col [--param p] [--not]}}
func prepareBetween(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	p, err := s.slotName(col)
	if err != nil {
		return instruction{}, err
	}
	op := " BETWEEN "
	if s.opts.Has("not") {
		op = " NOT BETWEEN "
	}
	quoted := s.quote(col)

	return dynamic(func(r *renderer) (string, error) {
		v, err := r.binding(p)
		if err != nil {
			return "", err
		}
		bounds, ok := toSlice(v)
		if !ok || len(bounds) != 2 {
			return "", r.bindingError(p, fmt.Sprintf("expected a two-element list, got %T", v))
		}
		lo := r.mint(p, bounds[0])
		hi := r.mint(p, bounds[1])
		return quoted + op + lo + " AND " + hi, nil
	}), nil
}

// {{in col [--param p] [--not]}}
//
// An empty list renders a predicate matching no rows (every row with --not).
func prepareIn(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	p, err := s.slotName(col)
	if err != nil {
		return instruction{}, err
	}
	negated := s.opts.Has("not")
	quoted := s.quote(col)

	return dynamic(func(r *renderer) (string, error) {
		v, err := r.binding(p)
		if err != nil {
			return "", err
		}
		items, ok := toSlice(v)
		if !ok {
			return "", r.bindingError(p, fmt.Sprintf("expected a list, got %T", v))
		}
		if len(items) == 0 {
			if negated {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		marks := make([]string, len(items))
		for i, item := range items {
			marks[i] = r.mint(p, item)
		}
		op := " IN ("
		if negated {
			op = " NOT IN ("
		}
		return quoted + op + strings.Join(marks, ", ") + ")", nil
	}), nil
}

// {{like col [--param p] [--mode contains|prefix|suffix|exact] [--not]}}
//
// The bound string is escaped and wrapped at render. The pattern goes into
// a minted parameter so other markers of the same name keep the raw value;
// --param p names it p instead.
func prepareLike(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	p, explicit, err := s.value("param")
	if err != nil {
		return instruction{}, err
	}
	if explicit {
		if err := s.paramName(p); err != nil {
			return instruction{}, err
		}
	} else {
		p = col.ParamName()
	}
	modeText, _, err := s.value("mode")
	if err != nil {
		return instruction{}, err
	}
	mode, ok := expr.ParseMatchMode(strings.ToLower(modeText))
	if !ok {
		return instruction{}, s.unsupported("mode", fmt.Sprintf("unknown mode %q", modeText))
	}
	d := s.d()
	subject, not := s.quote(col), s.opts.Has("not")

	return dynamic(func(r *renderer) (string, error) {
		v, err := r.binding(p)
		if err != nil {
			return "", err
		}
		str, ok := v.(string)
		if !ok {
			return "", r.bindingError(p, fmt.Sprintf("expected a string, got %T", v))
		}
		pattern := expr.Pattern(d, str, mode)
		if !explicit {
			return expr.LikeClause(subject, r.mint(p, pattern), not), nil
		}
		if err := r.set(p, pattern); err != nil {
			return "", err
		}
		return expr.LikeClause(subject, d.Marker(p), not), nil
	}), nil
}

// slotName returns --param or the column's parameter name.
func (s *site) slotName(col meta.Column) (string, error) {
	p, ok, err := s.value("param")
	if err != nil {
		return "", err
	}
	if !ok {
		return col.ParamName(), nil
	}
	if err := s.paramName(p); err != nil {
		return "", err
	}
	return p, nil
}

// toSlice converts any slice or array except []byte to []any.
func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
