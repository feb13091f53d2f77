// Package template compiles SQL templates with {{...}} placeholders into
// dialect-correct, parameterized SQL.
//
// # Pipeline
//
// Compilation has two stages:
//
//	Prepare(text, ctx) -> *Template     parse, validate, precompute
//	(*Template).Render(bindings)        replay instructions, bind values
//
// Prepare scans the text, parses each placeholder's options, dispatches it
// to its handler and stores the result as an immutable instruction list.
// Static placeholders (columns, values, set, orderby, ...) are fully
// rendered here. Dynamic placeholders (where --expr, in, between, like,
// subqueries) keep a resolver that reads the bindings at render time.
// Render never re-parses text and never mutates the Template, so one
// Template can be rendered concurrently.
//
// # Placeholders
//
//	{{table [--alias a]}}
//	{{columns [--exclude a,b | --only a,b] [--qualify [alias]]}}
//	{{values [--exclude a,b] [--param p]}}
//	{{set [--exclude a,b] [--inline col=expr,...]}}
//	{{where --expr slot}} {{where [--key a,b]}}
//	{{between col [--param p] [--not]}}
//	{{in col [--param p] [--not]}}
//	{{like col [--param p] [--mode contains|prefix|suffix|exact] [--not]}}
//	{{orderby a, b desc [--desc]}}
//	{{limit N}} {{offset N}} {{paging --limit N --offset M}}
//	{{distinct [col]}}
//	{{coalesce col (--default expr | --param p) [--as a]}}
//	{{case col --when v=>label,... [--else label] [--as a]}}
//	{{count [col]}} {{sum col}} {{avg col}} {{max col}} {{min col}}
//	{{groupby a, b}}
//	{{having fn [col] --op OP --param p}} {{having --expr slot}}
//	{{row_number --order b [--partition a] [--desc] [--as rn]}} (also rank, dense_rank)
//	{{exists (--query slot | --sql text) [--not]}}
//	{{in_subquery col (--query slot | --sql text) [--not]}}
//	{{union (--query slot | --sql text) [--all]}}
//	{{bool_true}} {{bool_false}} {{current_timestamp}} {{auto_increment}}
//	{{param name}}
//	{{upsert [--key a,b] [--exclude a,b]}}
//
// # Parameters
//
// Parameters introduced at prepare time are named after the column's
// property (or the explicit --param name). Markers written directly in the
// template text (e.g. @id) are parameters too. Parameters created at render
// time are named base_N with a counter shared by the whole render that skips
// every name fixed at prepare time.
//
// # Errors
//
// Prepare reports *SyntaxError, *UnknownPlaceholderError,
// *UnsupportedOptionError, *UnknownColumnError and
// *dialect.UnsupportedDialectError, each naming the offending span.
// Render reports *BindingError and the translator's
// *expr.UnsupportedNodeError and *expr.UnknownMemberError. No partial
// result is ever returned.
package template
