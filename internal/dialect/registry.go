package dialect

import (
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Registry is an immutable set of descriptors addressable by name.
//
// A Registry is built once and passed explicitly to whatever needs it.
// It is safe for concurrent use because nothing mutates it after
// construction.
type Registry struct {
	byName  map[string]Descriptor
	aliases map[string]string
	names   []string
}

// defaultAliases maps common alternative spellings to canonical names.
var defaultAliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"mssql":      "sqlserver",
	"sqlite3":    "sqlite",
	"mariadb":    "mysql",
}

// NewRegistry builds a registry from descs. Later descriptors with the
// same name replace earlier ones. Aliases are only registered for
// canonical names present in descs.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{
		byName:  make(map[string]Descriptor, len(descs)),
		aliases: make(map[string]string),
	}
	for _, d := range descs {
		key := strings.ToLower(d.Name)
		if _, seen := r.byName[key]; !seen {
			r.names = append(r.names, key)
		}
		r.byName[key] = d
	}
	for alias, target := range defaultAliases {
		if _, ok := r.byName[target]; ok {
			r.aliases[alias] = target
		}
	}
	return r
}

// Default returns a fresh registry holding the built-in descriptors.
func Default() *Registry {
	return NewRegistry(MySQL, SQLServer, PostgreSQL, Oracle, DB2, SQLite)
}

// Lookup resolves name (case-insensitive, aliases allowed) to a descriptor.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	d, ok := r.byName[key]
	if !ok {
		return Descriptor{}, &UnsupportedDialectError{Name: name}
	}
	return d, nil
}

// Names returns the canonical names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Aliases returns the alias names accepted by Lookup, sorted.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.aliases))
	for a := range r.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ResolveDSN picks a descriptor from a database connection string.
//
// Recognized forms:
//
//	postgres://... | postgresql://...  validated with lib/pq
//	sqlserver://...                     SQL Server
//	oracle://...                        Oracle
//	db2://...                           DB2
//	file:... | *.db | *.sqlite | :memory:  SQLite
//	user:pass@tcp(host)/db              MySQL, validated with go-sql-driver/mysql
func (r *Registry) ResolveDSN(dsn string) (Descriptor, error) {
	trimmed := strings.TrimSpace(dsn)
	lower := strings.ToLower(trimmed)

	switch {
	case trimmed == "":
		return Descriptor{}, &UnsupportedDialectError{Name: dsn}
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		if _, err := pq.ParseURL(trimmed); err != nil {
			return Descriptor{}, &UnsupportedDialectError{Name: dsn, Cause: err}
		}
		return r.Lookup("postgres")
	case strings.HasPrefix(lower, "sqlserver://"):
		return r.Lookup("sqlserver")
	case strings.HasPrefix(lower, "oracle://"):
		return r.Lookup("oracle")
	case strings.HasPrefix(lower, "db2://"):
		return r.Lookup("db2")
	case strings.HasPrefix(lower, "file:"),
		lower == ":memory:",
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return r.Lookup("sqlite")
	}

	if _, err := mysql.ParseDSN(trimmed); err != nil {
		return Descriptor{}, &UnsupportedDialectError{Name: dsn, Cause: err}
	}
	return r.Lookup("mysql")
}
