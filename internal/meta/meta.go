// Package meta holds the column metadata of one entity: the ordered mapping
// between logical property names and physical columns.
//
// Column order is significant. It is the default emission order of every
// list-producing placeholder. Lookups accept either the logical or the
// physical name and ignore case using Unicode case folding.
package meta

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Type is the storage type tag of a column.
type Type string

// Known type tags.
const (
	TypeString  Type = "string"
	TypeInt     Type = "int"
	TypeFloat   Type = "float"
	TypeDecimal Type = "decimal"
	TypeBool    Type = "bool"
	TypeTime    Type = "time"
	TypeBytes   Type = "bytes"
	TypeUUID    Type = "uuid"
	TypeJSON    Type = "json"
)

// Valid reports whether t is a known tag.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeDecimal, TypeBool,
		TypeTime, TypeBytes, TypeUUID, TypeJSON:
		return true
	}
	return false
}

// Column describes one persisted property.
type Column struct {
	Name     string // physical column name
	Property string // logical property name; defaults to Name
	Type     Type
	Nullable bool
	Key      bool
}

// ParamName returns the name used for parameters bound to this column.
func (c Column) ParamName() string {
	if c.Property != "" {
		return c.Property
	}
	return c.Name
}

// Table is an immutable ordered column set for one entity.
type Table struct {
	name    string
	columns []Column
	index   map[string]int
}

// NewTable builds a table. Columns with an empty Property take their Name.
// When two columns fold to the same lookup key the first one wins.
func NewTable(name string, columns ...Column) *Table {
	t := &Table{
		name:    name,
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)*2),
	}
	for i, c := range columns {
		if c.Property == "" {
			c.Property = c.Name
		}
		t.columns[i] = c
	}
	for i, c := range t.columns {
		for _, key := range []string{fold(c.Name), fold(c.Property)} {
			if _, taken := t.index[key]; !taken {
				t.index[key] = i
			}
		}
	}
	return t
}

// Name returns the physical table name.
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the ordered columns.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of columns.
func (t *Table) Len() int { return len(t.columns) }

// Lookup resolves a logical or physical name, ignoring case.
func (t *Table) Lookup(name string) (Column, bool) {
	i, ok := t.index[fold(name)]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Keys returns the columns flagged as key columns, in order.
func (t *Table) Keys() []Column {
	var keys []Column
	for _, c := range t.columns {
		if c.Key {
			keys = append(keys, c)
		}
	}
	return keys
}

// Fingerprint returns a stable digest of the table definition.
// Two tables with the same name and identical columns share a fingerprint.
func (t *Table) Fingerprint() string {
	var b strings.Builder
	b.WriteString(t.name)
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\x00%s\x1f%s\x1f%s\x1f%t\x1f%t", c.Name, c.Property, c.Type, c.Nullable, c.Key)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// fold normalizes a name for case-insensitive comparison. A Caser keeps
// state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
