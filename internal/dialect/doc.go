// Package dialect describes the lexical conventions of the SQL databases
// stencil renders for.
//
// A Descriptor is pure data: identifier and string quoting, parameter marker
// style, boolean literals, paging syntax and the upsert idiom. Descriptors are
// built once per database kind and shared read-only by every compilation that
// targets them. They are compared by value.
//
// There is no process-wide dialect table. Callers build a Registry (usually
// Default()) and pass it, or a Descriptor taken from it, into the template
// context explicitly:
//
//	reg := dialect.Default()
//	d, err := reg.Lookup("postgres")
//	if err != nil {
//	    // *UnsupportedDialectError
//	}
//
// The two axes that vary most between databases, paging and upsert, are
// independent fields so that any combination can be described:
//
//	Paging: LIMIT/OFFSET, TOP, OFFSET ... FETCH
//	Upsert: ON DUPLICATE KEY UPDATE, ON CONFLICT DO UPDATE, MERGE
package dialect
