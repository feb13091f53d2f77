package template

import (
	"strings"

	"github.com/roach88/stencil/internal/dialect"
)

// {{orderby a, b desc [--desc]}}
func prepareOrderBy(s *site) (instruction, error) {
	items, err := s.orderItems(s.args, s.opts.Has("desc"))
	if err != nil {
		return instruction{}, err
	}
	return static("ORDER BY " + strings.Join(items, ", ")), nil
}

// amount is a row count: a literal integer or a parameter marker.
type amount struct {
	text  string
	param string
	zero  bool
}

func (a amount) markers() []string {
	if a.param == "" {
		return nil
	}
	return []string{a.param}
}

// literalAmount parses a non-negative integer literal.
func (s *site) literalAmount(v string) (amount, error) {
	if !isUint(v) {
		return amount{}, s.syntaxf("expected a non-negative integer, got %q", v)
	}
	return amount{text: v, zero: strings.TrimLeft(v, "0") == ""}, nil
}

func (s *site) paramAmount(name string) (amount, error) {
	if err := s.paramName(name); err != nil {
		return amount{}, err
	}
	return amount{text: s.d().Marker(name), param: name}, nil
}

// countArg reads a count given as the positional argument or --param.
func (s *site) countArg() (amount, error) {
	if err := s.exclusiveArg("param"); err != nil {
		return amount{}, err
	}
	if p, ok, err := s.value("param"); err != nil {
		return amount{}, err
	} else if ok {
		return s.paramAmount(p)
	}
	if len(s.args) == 0 {
		return amount{}, s.syntaxf("missing count")
	}
	return s.literalAmount(s.args[0])
}

// exclusiveArg fails when both a positional argument and flag are given.
func (s *site) exclusiveArg(flag string) error {
	if len(s.args) > 0 && s.opts.Has(flag) {
		return s.unsupported(flag, "cannot be combined with a positional count")
	}
	return nil
}

// flagAmount reads --limit/--offset: an integer literal or a parameter name.
func (s *site) flagAmount(flag string) (amount, bool, error) {
	v, ok, err := s.value(flag)
	if err != nil || !ok {
		return amount{}, ok, err
	}
	if isUint(v) {
		a, err := s.literalAmount(v)
		return a, true, err
	}
	a, err := s.paramAmount(strings.TrimPrefix(v, s.d().ParameterPrefix))
	return a, true, err
}

func limitClause(d dialect.Descriptor, a amount) string {
	switch d.Paging {
	case dialect.PagingTop:
		return "TOP (" + a.text + ")"
	case dialect.PagingOffsetFetch:
		return "FETCH NEXT " + a.text + " ROWS ONLY"
	default:
		return "LIMIT " + a.text
	}
}

func offsetClause(d dialect.Descriptor, a amount) string {
	switch d.Paging {
	case dialect.PagingTop, dialect.PagingOffsetFetch:
		return "OFFSET " + a.text + " ROWS"
	default:
		if d.MaxLimit != "" {
			return "LIMIT " + d.MaxLimit + " OFFSET " + a.text
		}
		return "OFFSET " + a.text
	}
}

// {{limit N}} or {{limit --param p}}
//
// TOP-style dialects render "TOP (n)", to be placed right after SELECT.
// A zero limit is valid in every style and returns no rows.
func prepareLimit(s *site) (instruction, error) {
	a, err := s.countArg()
	if err != nil {
		return instruction{}, err
	}
	return static(limitClause(s.d(), a), a.markers()...), nil
}

// {{offset N}} or {{offset --param p}}
//
// Dialects that cannot express OFFSET alone get their maximum LIMIT.
func prepareOffset(s *site) (instruction, error) {
	a, err := s.countArg()
	if err != nil {
		return instruction{}, err
	}
	return static(offsetClause(s.d(), a), a.markers()...), nil
}

// {{paging --limit N --offset M}}
//
// Either flag may name a parameter instead of a literal.
func preparePaging(s *site) (instruction, error) {
	limit, hasLimit, err := s.flagAmount("limit")
	if err != nil {
		return instruction{}, err
	}
	offset, hasOffset, err := s.flagAmount("offset")
	if err != nil {
		return instruction{}, err
	}
	d := s.d()

	switch {
	case !hasLimit && !hasOffset:
		return instruction{}, s.syntaxf("requires --limit or --offset")
	case !hasOffset:
		return static(limitClause(d, limit), limit.markers()...), nil
	case !hasLimit:
		return static(offsetClause(d, offset), offset.markers()...), nil
	}

	if d.Paging == dialect.PagingLimitOffset {
		return static("LIMIT "+limit.text+" OFFSET "+offset.text, append(limit.markers(), offset.markers()...)...), nil
	}
	if d.Paging == dialect.PagingTop && limit.zero {
		return instruction{}, s.unsupported("limit", "a zero limit cannot be combined with an offset on "+d.Name)
	}
	text := "OFFSET " + offset.text + " ROWS FETCH NEXT " + limit.text + " ROWS ONLY"
	return static(text, append(offset.markers(), limit.markers()...)...), nil
}

// {{distinct [col]}}
func prepareDistinct(s *site) (instruction, error) {
	if len(s.args) == 0 {
		return static("DISTINCT"), nil
	}
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	return static("DISTINCT " + s.quote(col)), nil
}
