// Package expr defines predicate expression trees over an entity and
// translates them into SQL boolean fragments.
//
// # Node types
//
// Node is a sealed interface. Only types in this package implement it, so
// the translator can switch exhaustively:
//
//	Comparison     left OP right
//	And, Or        binary connectives
//	Not            negation
//	MemberBoolean  bare boolean property (active)
//	StringContains LIKE-style match on a string property
//	Membership     property IN (values)
//	Constant       literal value, becomes a parameter
//	MemberAccess   property reference, becomes a quoted column
//	MethodCall     arbitrary call; always rejected
//
// # Translation
//
// Translate is a pure recursive function over the union. It takes a Scope
// carrying the dialect, the column table and a parameter namer, and returns
// a Fragment holding SQL text and the parameters it introduced in marker
// order. For example, with the postgres dialect:
//
//	age >= 25 AND age <= 34
//
// becomes
//
//	("age" >= $age_1 AND "age" <= $age_2)
//
// Every And/Or node is parenthesized, including the outermost one, so a
// fragment can be spliced into any larger clause.
//
// Unsupported shapes produce *UnsupportedNodeError naming the node kind.
// Members that do not resolve against the table produce *UnknownMemberError.
package expr
