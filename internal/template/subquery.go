package template

import (
	"fmt"
)

// subquery is the inner statement of a subquery placeholder: static text
// from --sql, or a slot resolved at render from --query.
type subquery struct {
	sql     string
	markers []string
	slot    string
}

func (s *site) subquery() (subquery, error) {
	if err := s.exclusive("query", "sql"); err != nil {
		return subquery{}, err
	}
	if text, ok, err := s.value("sql"); err != nil {
		return subquery{}, err
	} else if ok {
		return subquery{sql: text, markers: literalMarkers(s.d(), text)}, nil
	}
	slot, ok, err := s.value("query")
	if err != nil {
		return subquery{}, err
	}
	if !ok {
		return subquery{}, s.syntaxf("requires --query or --sql")
	}
	return subquery{slot: slot}, nil
}

// wrap builds the instruction for before + sub + after.
func (q subquery) wrap(before, after string) instruction {
	if q.slot == "" {
		return static(before+q.sql+after, q.markers...)
	}
	slot := q.slot
	return dynamic(func(r *renderer) (string, error) {
		v, err := r.binding(slot)
		if err != nil {
			return "", err
		}
		var sql string
		switch sub := v.(type) {
		case *Rendered:
			if sub == nil {
				return "", r.bindingError(slot, "nil subquery")
			}
			sql, err = r.merge(sub)
		case Rendered:
			sql, err = r.merge(&sub)
		case string:
			if sub == "" {
				return "", r.bindingError(slot, "empty subquery")
			}
			sql = sub
		default:
			return "", r.bindingError(slot, fmt.Sprintf("expected a rendered statement or SQL text, got %T", v))
		}
		if err != nil {
			return "", err
		}
		return before + sql + after, nil
	})
}

// {{exists (--query slot | --sql text) [--not]}}
func prepareExists(s *site) (instruction, error) {
	q, err := s.subquery()
	if err != nil {
		return instruction{}, err
	}
	keyword := "EXISTS ("
	if s.opts.Has("not") {
		keyword = "NOT EXISTS ("
	}
	return q.wrap(keyword, ")"), nil
}

// {{in_subquery col (--query slot | --sql text) [--not]}}
func prepareInSubquery(s *site) (instruction, error) {
	col, err := s.subject()
	if err != nil {
		return instruction{}, err
	}
	q, err := s.subquery()
	if err != nil {
		return instruction{}, err
	}
	op := " IN ("
	if s.opts.Has("not") {
		op = " NOT IN ("
	}
	return q.wrap(s.quote(col)+op, ")"), nil
}

// {{union (--query slot | --sql text) [--all]}}
//
// The inner statement is not parenthesized; SQLite rejects parenthesized
// compound members.
func prepareUnion(s *site) (instruction, error) {
	q, err := s.subquery()
	if err != nil {
		return instruction{}, err
	}
	keyword := "UNION "
	if s.opts.Has("all") {
		keyword = "UNION ALL "
	}
	return q.wrap(keyword, ""), nil
}
