package template

import (
	"strings"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

// {{upsert [--key a,b] [--exclude a,b]}}
//
// Renders a complete insert-or-update statement in the dialect's idiom.
// The key defaults to the table's key columns. Key columns are always
// inserted, even when listed in --exclude.
func prepareUpsert(s *site) (instruction, error) {
	d := s.d()
	if d.Upsert == dialect.UpsertNone {
		return instruction{}, &dialect.UnsupportedDialectError{Name: d.Name, Feature: "upsert"}
	}
	if s.ctx.Table.Name() == "" {
		return instruction{}, s.syntaxf("context has no table")
	}
	keys, err := s.keyColumns()
	if err != nil {
		return instruction{}, err
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k.Name] = true
	}
	skip := s.excluded("exclude")
	var cols, updates []meta.Column
	for _, c := range s.ctx.Table.Columns() {
		if skip[c.Name] && !isKey[c.Name] {
			continue
		}
		cols = append(cols, c)
		if !isKey[c.Name] {
			updates = append(updates, c)
		}
	}

	u := upsert{d: d, table: d.QuoteIdentifier(s.ctx.Table.Name()), cols: cols, keys: keys, updates: updates}
	switch d.Upsert {
	case dialect.UpsertDuplicateKey:
		return u.duplicateKey(), nil
	case dialect.UpsertOnConflict:
		return u.onConflict(), nil
	default:
		return u.merge(), nil
	}
}

type upsert struct {
	d       dialect.Descriptor
	table   string
	cols    []meta.Column
	keys    []meta.Column
	updates []meta.Column
}

func (u upsert) quote(c meta.Column) string { return u.d.QuoteIdentifier(c.Name) }

func (u upsert) list(cols []meta.Column, f func(meta.Column) string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = f(c)
	}
	return strings.Join(parts, ", ")
}

// insert renders "INSERT INTO t (cols) VALUES (markers)".
func (u upsert) insert() (string, []string) {
	names := make([]string, len(u.cols))
	marks := make([]string, len(u.cols))
	for i, c := range u.cols {
		names[i] = c.ParamName()
		marks[i] = u.d.Marker(names[i])
	}
	return "INSERT INTO " + u.table + " (" + u.list(u.cols, u.quote) + ") VALUES (" + strings.Join(marks, ", ") + ")", names
}

// duplicateKey: ON DUPLICATE KEY UPDATE c = VALUES(c). With nothing to
// update, the first key is assigned to itself so the statement stays a
// no-op on conflict.
func (u upsert) duplicateKey() instruction {
	text, names := u.insert()
	updates := u.updates
	if len(updates) == 0 {
		updates = u.keys[:1]
	}
	text += " ON DUPLICATE KEY UPDATE " + u.list(updates, func(c meta.Column) string {
		q := u.quote(c)
		if len(u.updates) == 0 {
			return q + " = " + q
		}
		return q + " = VALUES(" + q + ")"
	})
	return static(text, names...)
}

// onConflict: ON CONFLICT (keys) DO UPDATE SET c = EXCLUDED.c, or DO NOTHING.
func (u upsert) onConflict() instruction {
	text, names := u.insert()
	text += " ON CONFLICT (" + u.list(u.keys, u.quote) + ")"
	if len(u.updates) == 0 {
		return static(text+" DO NOTHING", names...)
	}
	text += " DO UPDATE SET " + u.list(u.updates, func(c meta.Column) string {
		return u.quote(c) + " = EXCLUDED." + u.quote(c)
	})
	return static(text, names...)
}

// merge: MERGE INTO t target USING (SELECT m AS c, ...) source ON (...)
// WHEN MATCHED THEN UPDATE SET ... WHEN NOT MATCHED THEN INSERT ... VALUES ...
func (u upsert) merge() instruction {
	names := make([]string, len(u.cols))
	selects := make([]string, len(u.cols))
	for i, c := range u.cols {
		names[i] = c.ParamName()
		selects[i] = u.d.Marker(names[i]) + " AS " + u.quote(c)
	}

	var b strings.Builder
	b.WriteString("MERGE INTO " + u.table + " target USING (SELECT " + strings.Join(selects, ", "))
	if u.d.DualTable != "" {
		b.WriteString(" FROM " + u.d.DualTable)
	}
	b.WriteString(") source ON (")
	b.WriteString(u.keyMatch())
	b.WriteString(")")
	if len(u.updates) > 0 {
		b.WriteString(" WHEN MATCHED THEN UPDATE SET ")
		b.WriteString(u.list(u.updates, func(c meta.Column) string { return u.quote(c) + " = source." + u.quote(c) }))
	}
	b.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	b.WriteString(u.list(u.cols, u.quote))
	b.WriteString(") VALUES (")
	b.WriteString(u.list(u.cols, func(c meta.Column) string { return "source." + u.quote(c) }))
	b.WriteString(")")
	b.WriteString(u.d.StatementTerminator)
	return static(b.String(), names...)
}

// keyMatch renders target.k = source.k for every key, joined by AND.
func (u upsert) keyMatch() string {
	parts := make([]string, len(u.keys))
	for i, c := range u.keys {
		q := u.quote(c)
		parts[i] = "target." + q + " = source." + q
	}
	return strings.Join(parts, " AND ")
}
