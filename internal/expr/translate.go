package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

// Param is one parameter introduced by a translation.
type Param struct {
	Name  string
	Value any
}

// Fragment is translated SQL plus the parameters it references, in the
// order their markers appear in SQL.
type Fragment struct {
	SQL    string
	Params []Param
}

// Scope supplies everything a translation needs besides the tree.
type Scope struct {
	Dialect dialect.Descriptor
	Table   *meta.Table
	// Names mints parameter names. A fresh Sequence is used when nil.
	Names Namer
}

// Translate converts a predicate tree into a SQL boolean fragment.
//
// Translate does not touch anything outside its arguments; the only state
// it advances is the scope's Namer.
func Translate(n Node, scope Scope) (Fragment, error) {
	if scope.Names == nil {
		scope.Names = NewSequence()
	}
	t := &translator{scope: scope}
	sql, err := t.predicate(n)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sql, Params: t.params}, nil
}

// translator accumulates parameters during one Translate call.
type translator struct {
	scope  Scope
	params []Param
}

// predicate translates a node in boolean position.
func (t *translator) predicate(n Node) (string, error) {
	switch v := deref(n).(type) {
	case nil:
		return "", &UnsupportedNodeError{Kind: "nil", Detail: "missing predicate"}
	case Comparison:
		return t.comparison(v)
	case And:
		return t.connective("AND", v.Left, v.Right)
	case Or:
		return t.connective("OR", v.Left, v.Right)
	case Not:
		return t.not(v)
	case MemberBoolean:
		return t.boolean(v.Member, true)
	case MemberAccess:
		return t.boolean(v, true)
	case StringContains:
		return t.contains(v)
	case Membership:
		return t.membership(v)
	case Constant:
		if b, ok := v.Value.(bool); ok {
			if b {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		return "", &UnsupportedNodeError{Kind: "Constant", Detail: fmt.Sprintf("%T is not a predicate", v.Value)}
	case MethodCall:
		return "", &UnsupportedNodeError{Kind: "MethodCall", Detail: v.Name}
	default:
		return "", &UnsupportedNodeError{Kind: fmt.Sprintf("%T", n)}
	}
}

// connective renders (l OP r). Every connective is parenthesized.
func (t *translator) connective(op string, left, right Node) (string, error) {
	l, err := t.predicate(left)
	if err != nil {
		return "", err
	}
	r, err := t.predicate(right)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + op + " " + r + ")", nil
}

// not renders NOT (x), except a bare boolean member which compares to
// the false literal.
func (t *translator) not(n Not) (string, error) {
	switch v := deref(n.Operand).(type) {
	case MemberBoolean:
		return t.boolean(v.Member, false)
	case MemberAccess:
		return t.boolean(v, false)
	}
	inner, err := t.predicate(n.Operand)
	if err != nil {
		return "", err
	}
	return "NOT (" + inner + ")", nil
}

func (t *translator) boolean(m MemberAccess, want bool) (string, error) {
	col, err := t.column(m)
	if err != nil {
		return "", err
	}
	return t.quote(col) + " = " + t.scope.Dialect.BoolLiteral(want), nil
}

func (t *translator) comparison(c Comparison) (string, error) {
	op, ok := c.Op.SQL()
	if !ok {
		return "", &UnsupportedNodeError{Kind: "Comparison", Detail: fmt.Sprintf("operator %q", c.Op)}
	}
	left, right := deref(c.Left), deref(c.Right)

	if isNull(left) || isNull(right) {
		return t.nullComparison(c.Op, left, right)
	}

	hint := t.hint(left, right)
	l, err := t.operand(left, hint)
	if err != nil {
		return "", err
	}
	r, err := t.operand(right, hint)
	if err != nil {
		return "", err
	}
	return l + " " + op + " " + r, nil
}

func (t *translator) nullComparison(op Op, left, right Node) (string, error) {
	other := left
	if isNull(left) {
		other = right
	}
	if isNull(other) {
		return "", &UnsupportedNodeError{Kind: "Comparison", Detail: "both operands are null"}
	}
	sql, err := t.operand(other, "p")
	if err != nil {
		return "", err
	}
	switch op {
	case OpEq:
		return sql + " IS NULL", nil
	case OpNe:
		return sql + " IS NOT NULL", nil
	default:
		return "", &UnsupportedNodeError{Kind: "Comparison", Detail: fmt.Sprintf("operator %q against null", op)}
	}
}

// hint picks the base name for a constant: the parameter name of the
// column on the other side, when there is one.
func (t *translator) hint(nodes ...Node) string {
	for _, n := range nodes {
		if m, ok := n.(MemberAccess); ok && len(m.Path) == 0 && t.scope.Table != nil {
			if col, ok := t.scope.Table.Lookup(m.Name); ok {
				return col.ParamName()
			}
		}
	}
	return "p"
}

// operand translates a node in value position.
func (t *translator) operand(n Node, hint string) (string, error) {
	switch v := n.(type) {
	case MemberAccess:
		col, err := t.column(v)
		if err != nil {
			return "", err
		}
		return t.quote(col), nil
	case Constant:
		return t.bind(hint, v.Value), nil
	case MethodCall:
		return "", &UnsupportedNodeError{Kind: "MethodCall", Detail: v.Name}
	default:
		return "", &UnsupportedNodeError{Kind: Kind(n), Detail: "not valid as a comparison operand"}
	}
}

func (t *translator) contains(s StringContains) (string, error) {
	col, err := t.column(s.Member)
	if err != nil {
		return "", err
	}
	c, ok := deref(s.Value).(Constant)
	if !ok {
		return "", &UnsupportedNodeError{Kind: "StringContains", Detail: "value must be a constant, got " + Kind(s.Value)}
	}
	str, ok := c.Value.(string)
	if !ok {
		return "", &UnsupportedNodeError{Kind: "StringContains", Detail: fmt.Sprintf("value must be a string, got %T", c.Value)}
	}
	marker := t.bind(col.ParamName(), Pattern(t.scope.Dialect, str, s.Mode))
	return LikeClause(t.quote(col), marker, false), nil
}

func (t *translator) membership(m Membership) (string, error) {
	col, err := t.column(m.Member)
	if err != nil {
		return "", err
	}
	if len(m.Values) == 0 {
		return "1 = 0", nil
	}
	markers := make([]string, len(m.Values))
	for i, v := range m.Values {
		markers[i] = t.bind(col.ParamName(), v)
	}
	return t.quote(col) + " IN (" + strings.Join(markers, ", ") + ")", nil
}

// column resolves a member to its column.
func (t *translator) column(m MemberAccess) (meta.Column, error) {
	if len(m.Path) > 0 {
		return meta.Column{}, traversal(m)
	}
	if t.scope.Table == nil {
		return meta.Column{}, &UnknownMemberError{Member: m.Name}
	}
	col, ok := t.scope.Table.Lookup(m.Name)
	if !ok {
		return meta.Column{}, &UnknownMemberError{Member: m.Name, Table: t.scope.Table.Name()}
	}
	return col, nil
}

func (t *translator) quote(c meta.Column) string {
	return t.scope.Dialect.QuoteIdentifier(c.Name)
}

// bind mints a parameter for value and returns its marker.
func (t *translator) bind(base string, value any) string {
	name := t.scope.Names.Mint(base)
	t.params = append(t.params, Param{Name: name, Value: value})
	return t.scope.Dialect.Marker(name)
}

func isNull(n Node) bool {
	c, ok := n.(Constant)
	return ok && c.Value == nil
}

// deref converts pointer variants to values so switches only list values.
// A nil pointer becomes a nil Node.
func deref(n Node) Node {
	switch v := n.(type) {
	case *Comparison:
		if v != nil {
			return *v
		}
	case *And:
		if v != nil {
			return *v
		}
	case *Or:
		if v != nil {
			return *v
		}
	case *Not:
		if v != nil {
			return *v
		}
	case *MemberBoolean:
		if v != nil {
			return *v
		}
	case *StringContains:
		if v != nil {
			return *v
		}
	case *Membership:
		if v != nil {
			return *v
		}
	case *Constant:
		if v != nil {
			return *v
		}
	case *MemberAccess:
		if v != nil {
			return *v
		}
	case *MethodCall:
		if v != nil {
			return *v
		}
	default:
		return n
	}
	return nil
}
