package template

import (
	"strings"

	"github.com/roach88/stencil/internal/meta"
)

// {{table [--alias a]}}
func prepareTable(s *site) (instruction, error) {
	name := s.ctx.Table.Name()
	if name == "" {
		return instruction{}, s.syntaxf("context has no table")
	}
	text := s.d().QuoteIdentifier(name)
	alias, ok, err := s.value("alias")
	if err != nil {
		return instruction{}, err
	}
	if ok {
		text += " " + s.d().QuoteIdentifier(alias)
	}
	return static(text), nil
}

// {{columns [--exclude a,b | --only a,b] [--qualify [alias]]}}
func prepareColumns(s *site) (instruction, error) {
	if err := s.exclusive("exclude", "only"); err != nil {
		return instruction{}, err
	}

	var cols []meta.Column
	if s.opts.Has("only") {
		only := s.opts.List("only")
		if len(only) == 0 {
			return instruction{}, s.syntaxf("--only requires a value")
		}
		resolved, err := s.resolve(only)
		if err != nil {
			return instruction{}, err
		}
		cols = resolved
	} else {
		cols = s.remaining("exclude")
	}

	prefix := ""
	if q, ok := s.opts.Value("qualify"); ok {
		if q == "" {
			q = s.ctx.Table.Name()
		}
		prefix = s.d().QuoteIdentifier(q) + "."
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = prefix + s.quote(c)
	}
	return static(strings.Join(parts, ", ")), nil
}

// {{values [--exclude a,b] [--param name]}}
//
// --param emits one marker and takes precedence over --exclude.
func prepareValues(s *site) (instruction, error) {
	p, ok, err := s.value("param")
	if err != nil {
		return instruction{}, err
	}
	if ok {
		if err := s.paramName(p); err != nil {
			return instruction{}, err
		}
		return static(s.d().Marker(p), p), nil
	}

	marks, names := s.markers(s.remaining("exclude"))
	return static(strings.Join(marks, ", "), names...), nil
}

// {{set [--exclude a,b] [--inline col=expr,...]}}
//
// Inline items replace the marker with the expression, column names in it
// re-quoted. Excluded columns are dropped even when inlined. Unknown columns
// in either flag are ignored.
func prepareSet(s *site) (instruction, error) {
	inline := make(map[string]string)
	for _, a := range s.opts.Inline("inline") {
		if a.Expr == "" {
			return instruction{}, s.syntaxf("inline item %q needs name=expression", a.Name)
		}
		col, ok := s.ctx.Table.Lookup(a.Name)
		if !ok {
			continue
		}
		inline[col.Name] = a.Expr
	}

	var (
		terms   []string
		markers []string
	)
	for _, c := range s.remaining("exclude") {
		if e, ok := inline[c.Name]; ok {
			text, refs := requote(s.d(), s.ctx.Table, e)
			terms = append(terms, s.quote(c)+" = "+text)
			markers = append(markers, refs...)
			continue
		}
		name := c.ParamName()
		terms = append(terms, s.quote(c)+" = "+s.d().Marker(name))
		markers = append(markers, name)
	}
	return static(strings.Join(terms, ", "), markers...), nil
}
