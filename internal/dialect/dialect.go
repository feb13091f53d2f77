package dialect

import (
	"strings"

	"github.com/lib/pq"
)

// PagingStyle selects the row-limiting syntax of a dialect.
type PagingStyle int

const (
	// PagingLimitOffset renders "LIMIT n OFFSET m" (MySQL, PostgreSQL, SQLite).
	PagingLimitOffset PagingStyle = iota
	// PagingTop renders "TOP (n)" after SELECT (SQL Server).
	PagingTop
	// PagingOffsetFetch renders "OFFSET m ROWS FETCH NEXT n ROWS ONLY" (Oracle, DB2).
	PagingOffsetFetch
)

// String returns the style name.
func (p PagingStyle) String() string {
	switch p {
	case PagingLimitOffset:
		return "limit-offset"
	case PagingTop:
		return "top"
	case PagingOffsetFetch:
		return "offset-fetch"
	default:
		return "unknown"
	}
}

// UpsertStyle selects the insert-or-update idiom of a dialect.
type UpsertStyle int

const (
	// UpsertNone means the dialect has no single-statement upsert.
	UpsertNone UpsertStyle = iota
	// UpsertDuplicateKey renders "ON DUPLICATE KEY UPDATE" (MySQL).
	UpsertDuplicateKey
	// UpsertOnConflict renders "ON CONFLICT (...) DO UPDATE" (PostgreSQL, SQLite).
	UpsertOnConflict
	// UpsertMerge renders a MERGE statement (SQL Server, Oracle, DB2).
	UpsertMerge
)

// String returns the style name.
func (u UpsertStyle) String() string {
	switch u {
	case UpsertNone:
		return "none"
	case UpsertDuplicateKey:
		return "duplicate-key"
	case UpsertOnConflict:
		return "on-conflict"
	case UpsertMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// Descriptor holds the syntax rules of one database kind.
//
// Descriptor has no behavior beyond formatting helpers derived from its
// fields. All fields are comparable so descriptors compare with ==.
type Descriptor struct {
	// Name is the canonical registry name (e.g. "postgres").
	Name string

	IdentifierLeft  string
	IdentifierRight string
	StringLeft      string
	StringRight     string

	// ParameterPrefix is prepended to a parameter name to form a marker.
	ParameterPrefix string
	// Positional dialects ignore names and emit ParameterPrefix alone ("?").
	Positional bool

	TrueLiteral  string
	FalseLiteral string

	Paging PagingStyle
	Upsert UpsertStyle

	// CurrentTimestamp is the expression for "now".
	CurrentTimestamp string
	// AutoIncrement is the column attribute for generated keys.
	AutoIncrement string
	// DualTable is the one-row table required by SELECT without FROM ("" if none).
	DualTable string
	// MaxLimit is the LIMIT used when only an OFFSET is requested ("" when OFFSET may stand alone).
	MaxLimit string
	// LikeBracketWildcard is set when '[' is a LIKE wildcard and must be escaped.
	LikeBracketWildcard bool
	// StatementTerminator is appended to statements that require one (MERGE on SQL Server).
	StatementTerminator string
}

// QuoteIdentifier quotes a table or column name. Dotted names are quoted
// per part; embedded closing quotes are doubled.
func (d Descriptor) QuoteIdentifier(name string) string {
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		for i, part := range parts {
			parts[i] = d.quotePart(part)
		}
		return strings.Join(parts, ".")
	}
	return d.quotePart(name)
}

func (d Descriptor) quotePart(name string) string {
	if d.IdentifierLeft == `"` && d.IdentifierRight == `"` {
		return pq.QuoteIdentifier(name)
	}
	escaped := name
	if d.IdentifierRight != "" {
		escaped = strings.ReplaceAll(name, d.IdentifierRight, d.IdentifierRight+d.IdentifierRight)
	}
	return d.IdentifierLeft + escaped + d.IdentifierRight
}

// QuoteString renders s as a string literal.
func (d Descriptor) QuoteString(s string) string {
	return d.StringLeft + strings.ReplaceAll(s, d.StringRight, d.StringRight+d.StringRight) + d.StringRight
}

// Marker returns the parameter marker for name.
func (d Descriptor) Marker(name string) string {
	if d.Positional {
		return d.ParameterPrefix
	}
	return d.ParameterPrefix + name
}

// BoolLiteral returns the literal for b.
func (d Descriptor) BoolLiteral(b bool) string {
	if b {
		return d.TrueLiteral
	}
	return d.FalseLiteral
}

// IsZero reports whether d is the zero Descriptor.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

// Built-in descriptors.
var (
	MySQL = Descriptor{
		Name:             "mysql",
		IdentifierLeft:   "`",
		IdentifierRight:  "`",
		StringLeft:       "'",
		StringRight:      "'",
		ParameterPrefix:  "@",
		TrueLiteral:      "1",
		FalseLiteral:     "0",
		Paging:           PagingLimitOffset,
		Upsert:           UpsertDuplicateKey,
		CurrentTimestamp: "CURRENT_TIMESTAMP",
		AutoIncrement:    "AUTO_INCREMENT",
		MaxLimit:         "18446744073709551615",
	}

	SQLServer = Descriptor{
		Name:                "sqlserver",
		IdentifierLeft:      "[",
		IdentifierRight:     "]",
		StringLeft:          "N'",
		StringRight:         "'",
		ParameterPrefix:     "@",
		TrueLiteral:         "1",
		FalseLiteral:        "0",
		Paging:              PagingTop,
		Upsert:              UpsertMerge,
		CurrentTimestamp:    "SYSDATETIME()",
		AutoIncrement:       "IDENTITY(1,1)",
		LikeBracketWildcard: true,
		StatementTerminator: ";",
	}

	PostgreSQL = Descriptor{
		Name:             "postgres",
		IdentifierLeft:   `"`,
		IdentifierRight:  `"`,
		StringLeft:       "'",
		StringRight:      "'",
		ParameterPrefix:  "$",
		TrueLiteral:      "TRUE",
		FalseLiteral:     "FALSE",
		Paging:           PagingLimitOffset,
		Upsert:           UpsertOnConflict,
		CurrentTimestamp: "CURRENT_TIMESTAMP",
		AutoIncrement:    "GENERATED BY DEFAULT AS IDENTITY",
	}

	Oracle = Descriptor{
		Name:             "oracle",
		IdentifierLeft:   `"`,
		IdentifierRight:  `"`,
		StringLeft:       "'",
		StringRight:      "'",
		ParameterPrefix:  ":",
		TrueLiteral:      "1",
		FalseLiteral:     "0",
		Paging:           PagingOffsetFetch,
		Upsert:           UpsertMerge,
		CurrentTimestamp: "SYSTIMESTAMP",
		AutoIncrement:    "GENERATED BY DEFAULT AS IDENTITY",
		DualTable:        "DUAL",
	}

	DB2 = Descriptor{
		Name:             "db2",
		IdentifierLeft:   `"`,
		IdentifierRight:  `"`,
		StringLeft:       "'",
		StringRight:      "'",
		ParameterPrefix:  "?",
		Positional:       true,
		TrueLiteral:      "1",
		FalseLiteral:     "0",
		Paging:           PagingOffsetFetch,
		Upsert:           UpsertMerge,
		CurrentTimestamp: "CURRENT TIMESTAMP",
		AutoIncrement:    "GENERATED BY DEFAULT AS IDENTITY",
		DualTable:        "SYSIBM.SYSDUMMY1",
	}

	SQLite = Descriptor{
		Name:             "sqlite",
		IdentifierLeft:   `"`,
		IdentifierRight:  `"`,
		StringLeft:       "'",
		StringRight:      "'",
		ParameterPrefix:  "@",
		TrueLiteral:      "1",
		FalseLiteral:     "0",
		Paging:           PagingLimitOffset,
		Upsert:           UpsertOnConflict,
		CurrentTimestamp: "CURRENT_TIMESTAMP",
		AutoIncrement:    "AUTOINCREMENT",
		MaxLimit:         "-1",
	}
)
