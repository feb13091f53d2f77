package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/expr"
)

// {{coalesce col (--default expr | --param p) [--as a]}}
func prepareCoalesce(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	if err := s.exclusive("default", "param"); err != nil {
		return instruction{}, err
	}
	alias, err := s.alias()
	if err != nil {
		return instruction{}, err
	}

	var (
		fallback string
		markers  []string
	)
	if def, ok, err := s.expr("default"); err != nil {
		return instruction{}, err
	} else if ok {
		fallback, markers = requote(s.d(), s.ctx.Table, def)
	} else if p, ok, err := s.value("param"); err != nil {
		return instruction{}, err
	} else if ok {
		if err := s.paramName(p); err != nil {
			return instruction{}, err
		}
		fallback, markers = s.d().Marker(p), []string{p}
	} else {
		return instruction{}, s.syntaxf("requires --default or --param")
	}

	return static("COALESCE("+s.quote(col)+", "+fallback+")"+alias, markers...), nil
}

// {{case col --when v=>label,... [--else label] [--as a]}}
func prepareCase(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	whens := s.opts.List("when")
	if len(whens) == 0 {
		return instruction{}, s.syntaxf("requires --when")
	}
	alias, err := s.alias()
	if err != nil {
		return instruction{}, err
	}

	d := s.d()
	var b strings.Builder
	b.WriteString("CASE " + s.quote(col))
	for _, w := range whens {
		v, label, ok := strings.Cut(w, "=>")
		if !ok {
			return instruction{}, s.syntaxf("when item %q needs value=>label", w)
		}
		fmt.Fprintf(&b, " WHEN %s THEN %s", s.caseValue(strings.TrimSpace(v)), d.QuoteString(strings.TrimSpace(label)))
	}
	if e, ok := s.opts.Value("else"); ok {
		b.WriteString(" ELSE " + d.QuoteString(e))
	}
	b.WriteString(" END" + alias)
	return static(b.String()), nil
}

// caseValue renders a WHEN operand: numbers and NULL as-is, booleans per
// dialect, anything else as a string literal.
func (s *site) caseValue(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	switch strings.ToLower(v) {
	case "true":
		return s.d().TrueLiteral
	case "false":
		return s.d().FalseLiteral
	case "null":
		return "NULL"
	}
	return s.d().QuoteString(v)
}

// prepareAggregate builds {{fn [col] [--distinct] [--as a]}}.
// COUNT without a column is COUNT(*).
func prepareAggregate(fn string) func(s *site) (instruction, error) {
	return func(s *site) (instruction, error) {
		alias, err := s.alias()
		if err != nil {
			return instruction{}, err
		}
		if len(s.args) == 0 {
			if s.opts.Has("distinct") {
				return instruction{}, s.unsupported("distinct", "requires a column")
			}
			return static(fn + "(*)" + alias), nil
		}
		col, err := s.subject()
		if err != nil {
			return instruction{}, err
		}
		inner := s.quote(col)
		if s.opts.Has("distinct") {
			inner = "DISTINCT " + inner
		}
		return static(fn + "(" + inner + ")" + alias), nil
	}
}

// {{groupby a, b}}
func prepareGroupBy(s *site) (instruction, error) {
	cols, err := s.resolve(s.args)
	if err != nil {
		return instruction{}, err
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = s.quote(c)
	}
	return static("GROUP BY " + strings.Join(parts, ", ")), nil
}

var aggregateFuncs = map[string]string{
	"count": "COUNT",
	"sum":   "SUM",
	"avg":   "AVG",
	"max":   "MAX",
	"min":   "MIN",
}

// {{having fn [col] --op OP --param p}} or {{having --expr slot}}
func prepareHaving(s *site) (instruction, error) {
	if s.opts.Has("expr") {
		if len(s.opts.Positional) > 0 || s.opts.Has("op") || s.opts.Has("param") {
			return instruction{}, s.unsupported("expr", "cannot be combined with an aggregate condition")
		}
		slot, _, err := s.value("expr")
		if err != nil {
			return instruction{}, err
		}
		return dynamic(predicateSlot("HAVING ", slot)), nil
	}

	fields := s.opts.Positional
	if len(fields) == 0 || len(fields) > 2 {
		return instruction{}, s.syntaxf("expected an aggregate function and optional column")
	}
	fn, ok := aggregateFuncs[strings.ToLower(fields[0])]
	if !ok {
		return instruction{}, s.syntaxf("unknown aggregate %q", fields[0])
	}
	target := "*"
	if len(fields) == 2 {
		col, err := s.column(fields[1])
		if err != nil {
			return instruction{}, err
		}
		target = s.quote(col)
	} else if fn != "COUNT" {
		return instruction{}, s.syntaxf("%s requires a column", strings.ToLower(fn))
	}

	opText, _, err := s.value("op")
	if err != nil {
		return instruction{}, err
	}
	op, ok := expr.ParseOp(opText)
	if !ok {
		return instruction{}, s.unsupported("op", fmt.Sprintf("unknown operator %q", opText))
	}
	sqlOp, _ := op.SQL()

	p, ok, err := s.value("param")
	if err != nil {
		return instruction{}, err
	}
	if !ok {
		return instruction{}, s.syntaxf("requires --param")
	}
	if err := s.paramName(p); err != nil {
		return instruction{}, err
	}
	return static("HAVING "+fn+"("+target+") "+sqlOp+" "+s.d().Marker(p), p), nil
}

// prepareWindow builds {{fn [--partition a] --order b [--desc] [--as rn]}}.
func prepareWindow(fn string) func(s *site) (instruction, error) {
	return func(s *site) (instruction, error) {
		order := s.opts.List("order")
		if len(order) == 0 {
			return instruction{}, s.syntaxf("requires --order")
		}
		items, err := s.orderItems(order, s.opts.Has("desc"))
		if err != nil {
			return instruction{}, err
		}
		alias, err := s.alias()
		if err != nil {
			return instruction{}, err
		}

		over := ""
		if s.opts.Has("partition") {
			cols, err := s.resolve(s.opts.List("partition"))
			if err != nil {
				return instruction{}, err
			}
			parts := make([]string, len(cols))
			for i, c := range cols {
				parts[i] = s.quote(c)
			}
			over = "PARTITION BY " + strings.Join(parts, ", ") + " "
		}
		over += "ORDER BY " + strings.Join(items, ", ")
		return static(fn + "() OVER (" + over + ")" + alias), nil
	}
}
