// Package sqlcheck verifies rendered SQL with real database parsers.
//
// SQLite statements are prepared against an in-memory database holding the
// entity's table. MySQL statements are parsed with the TiDB parser. Other
// dialects have no offline checker.
package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pingcap/tidb/pkg/parser"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

// Func checks one statement rendered against table t.
type Func func(ctx context.Context, t *meta.Table, sql string) error

// CheckError reports a statement its dialect's parser rejected.
type CheckError struct {
	Dialect string
	SQL     string
	Err     error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s rejected statement: %v", e.Dialect, e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }

// For returns the checker for d, if there is one.
func For(d dialect.Descriptor) (Func, bool) {
	switch d.Name {
	case dialect.SQLite.Name:
		return SQLite, true
	case dialect.MySQL.Name:
		return func(_ context.Context, _ *meta.Table, sql string) error {
			return MySQL(sql)
		}, true
	}
	return nil, false
}

// SQLite prepares sql in a fresh in-memory database that contains table t.
// The statement is never executed.
func SQLite(ctx context.Context, t *meta.Table, query string) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if t != nil && t.Name() != "" && t.Len() > 0 {
		if _, err := db.ExecContext(ctx, CreateTable(dialect.SQLite, t)); err != nil {
			return fmt.Errorf("failed to create table %q: %w", t.Name(), err)
		}
	}

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return &CheckError{Dialect: dialect.SQLite.Name, SQL: query, Err: err}
	}
	return stmt.Close()
}

var parsers = sync.Pool{
	New: func() any { return parser.New() },
}

// MySQL parses sql with the TiDB parser.
func MySQL(query string) error {
	if strings.TrimSpace(query) == "" {
		return &CheckError{Dialect: dialect.MySQL.Name, SQL: query, Err: fmt.Errorf("empty SQL statement")}
	}

	p := parsers.Get().(*parser.Parser)
	defer parsers.Put(p)

	stmts, _, err := p.Parse(query, "", "")
	if err != nil {
		return &CheckError{Dialect: dialect.MySQL.Name, SQL: query, Err: err}
	}
	if len(stmts) == 0 {
		return &CheckError{Dialect: dialect.MySQL.Name, SQL: query, Err: fmt.Errorf("no SQL statements found")}
	}
	return nil
}

// CreateTable renders a CREATE TABLE statement for t in dialect d. Key
// columns form the primary key.
func CreateTable(d dialect.Descriptor, t *meta.Table) string {
	var (
		defs []string
		keys []string
	)
	for _, c := range t.Columns() {
		def := d.QuoteIdentifier(c.Name)
		if typ := columnType(c.Type); typ != "" {
			def += " " + typ
		}
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		if c.Key {
			keys = append(keys, d.QuoteIdentifier(c.Name))
		}
	}
	if len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}
	return "CREATE TABLE " + d.QuoteIdentifier(t.Name()) + " (" + strings.Join(defs, ", ") + ")"
}

// columnType maps a type tag to a portable column type.
func columnType(t meta.Type) string {
	switch t {
	case meta.TypeString, meta.TypeUUID, meta.TypeJSON:
		return "TEXT"
	case meta.TypeInt, meta.TypeBool:
		return "INTEGER"
	case meta.TypeFloat:
		return "REAL"
	case meta.TypeDecimal:
		return "NUMERIC"
	case meta.TypeTime:
		return "TIMESTAMP"
	case meta.TypeBytes:
		return "BLOB"
	}
	return ""
}
