package expr

// Node is a predicate expression tree node.
//
// This is a sealed interface: the marker method keeps implementations in
// this package so the translator's type switch is exhaustive.
type Node interface {
	exprNode()
}

// Op is a comparison operator in source form.
type Op string

// Supported comparison operators.
const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// sqlOps maps source operators to SQL.
var sqlOps = map[Op]string{
	OpEq: "=",
	OpNe: "<>",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// ParseOp accepts both source and SQL spellings ("==", "=", "!=", "<>", ...).
func ParseOp(s string) (Op, bool) {
	switch s {
	case "==", "=", "eq":
		return OpEq, true
	case "!=", "<>", "ne":
		return OpNe, true
	case "<", "lt":
		return OpLt, true
	case "<=", "le":
		return OpLe, true
	case ">", "gt":
		return OpGt, true
	case ">=", "ge":
		return OpGe, true
	}
	return "", false
}

// SQL returns the SQL spelling of the operator.
func (o Op) SQL() (string, bool) {
	s, ok := sqlOps[o]
	return s, ok
}

// MatchMode selects how a StringContains value is wrapped in wildcards.
type MatchMode int

const (
	MatchContains MatchMode = iota // %v%
	MatchPrefix                    // v%
	MatchSuffix                    // %v
	MatchExact                     // v
)

// ParseMatchMode parses "contains", "prefix", "suffix" or "exact".
// The empty string means contains.
func ParseMatchMode(s string) (MatchMode, bool) {
	switch s {
	case "", "contains":
		return MatchContains, true
	case "prefix", "startswith":
		return MatchPrefix, true
	case "suffix", "endswith":
		return MatchSuffix, true
	case "exact":
		return MatchExact, true
	}
	return 0, false
}

// String returns the mode name.
func (m MatchMode) String() string {
	switch m {
	case MatchContains:
		return "contains"
	case MatchPrefix:
		return "prefix"
	case MatchSuffix:
		return "suffix"
	case MatchExact:
		return "exact"
	}
	return "unknown"
}

// Comparison compares two operands.
//
//	Comparison{Op: OpGe, Left: MemberAccess{Name: "age"}, Right: Constant{Value: 25}}
//
// A nil Constant on either side turns == and != into IS NULL / IS NOT NULL.
type Comparison struct {
	Op    Op
	Left  Node
	Right Node
}

func (Comparison) exprNode() {}

// And is true when both operands are true.
type And struct {
	Left  Node
	Right Node
}

func (And) exprNode() {}

// Or is true when either operand is true.
type Or struct {
	Left  Node
	Right Node
}

func (Or) exprNode() {}

// Not negates its operand.
type Not struct {
	Operand Node
}

func (Not) exprNode() {}

// MemberBoolean is a bare boolean property used as a predicate.
type MemberBoolean struct {
	Member MemberAccess
}

func (MemberBoolean) exprNode() {}

// StringContains matches a string property against a value.
// Value is normally a Constant holding a string.
type StringContains struct {
	Member MemberAccess
	Value  Node
	Mode   MatchMode
}

func (StringContains) exprNode() {}

// Membership tests a property against a list of literal values.
type Membership struct {
	Member MemberAccess
	Values []any
}

func (Membership) exprNode() {}

// Constant is a literal value. It is always emitted as a parameter.
type Constant struct {
	Value any
}

func (Constant) exprNode() {}

// MemberAccess references a property of the entity.
// A non-empty Path is a traversal through related entities (order.customer.name)
// and is not translatable.
type MemberAccess struct {
	Name string
	Path []string
}

func (MemberAccess) exprNode() {}

// MethodCall is a call on some receiver. No method call is translatable;
// the type exists so callers can hand over whatever shape they parsed.
type MethodCall struct {
	Name     string
	Receiver Node
	Args     []Node
}

func (MethodCall) exprNode() {}

// Kind returns the variant name of n.
func Kind(n Node) string {
	switch n.(type) {
	case nil:
		return "nil"
	case Comparison, *Comparison:
		return "Comparison"
	case And, *And:
		return "And"
	case Or, *Or:
		return "Or"
	case Not, *Not:
		return "Not"
	case MemberBoolean, *MemberBoolean:
		return "MemberBoolean"
	case StringContains, *StringContains:
		return "StringContains"
	case Membership, *Membership:
		return "Membership"
	case Constant, *Constant:
		return "Constant"
	case MemberAccess, *MemberAccess:
		return "MemberAccess"
	case MethodCall, *MethodCall:
		return "MethodCall"
	default:
		return "unknown"
	}
}

// Member is shorthand for MemberAccess{Name: name}.
func Member(name string) MemberAccess {
	return MemberAccess{Name: name}
}

// Value is shorthand for Constant{Value: v}.
func Value(v any) Constant {
	return Constant{Value: v}
}

// Compare builds member OP value.
func Compare(member string, op Op, value any) Comparison {
	return Comparison{Op: op, Left: Member(member), Right: Value(value)}
}

// AllOf folds nodes into a left-nested And. It returns nil for no nodes.
func AllOf(nodes ...Node) Node {
	return fold(nodes, func(l, r Node) Node { return And{Left: l, Right: r} })
}

// AnyOf folds nodes into a left-nested Or. It returns nil for no nodes.
func AnyOf(nodes ...Node) Node {
	return fold(nodes, func(l, r Node) Node { return Or{Left: l, Right: r} })
}

func fold(nodes []Node, join func(l, r Node) Node) Node {
	var acc Node
	for _, n := range nodes {
		if acc == nil {
			acc = n
			continue
		}
		acc = join(acc, n)
	}
	return acc
}
