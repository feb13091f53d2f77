package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/stencil/internal/expr"
	"github.com/roach88/stencil/internal/template"
)

// DecodeBindings turns YAML binding values into template bindings.
// Scalars and lists pass through unchanged. Every map is a predicate tree:
//
//	{op: ">=", member: age, value: 25}           comparison
//	{and: [p, q, ...]}                           conjunction
//	{or: [p, q, ...]}                            disjunction
//	{not: p}                                     negation
//	{member: active}                             boolean property
//	{contains: {member: name, value: jo, mode: prefix}}
//	{in: {member: status, values: [a, b]}}
//	{call: {name: ToUpper, member: name}}        untranslatable method call
//
// A member name with dots ("customer.name") is a traversal.
func DecodeBindings(raw map[string]any) (template.Bindings, error) {
	b := make(template.Bindings, len(raw))
	for name, v := range raw {
		decoded, err := decodeBinding(v)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		b[name] = decoded
	}
	return b, nil
}

func decodeBinding(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	return DecodePredicate(m)
}

// DecodePredicate builds an expression tree from its map form.
func DecodePredicate(m map[string]any) (expr.Node, error) {
	switch {
	case has(m, "and"):
		return decodeJunction(m, "and", expr.AllOf)
	case has(m, "or"):
		return decodeJunction(m, "or", expr.AnyOf)
	case has(m, "not"):
		if err := onlyKeys(m, "not"); err != nil {
			return nil, err
		}
		inner, err := predicateAt(m["not"], "not")
		if err != nil {
			return nil, err
		}
		return expr.Not{Operand: inner}, nil
	case has(m, "contains"):
		return decodeContains(m)
	case has(m, "in"):
		return decodeIn(m)
	case has(m, "call"):
		return decodeCall(m)
	case has(m, "op"):
		return decodeComparison(m)
	case has(m, "member"):
		if err := onlyKeys(m, "member"); err != nil {
			return nil, err
		}
		member, err := memberAt(m, "member")
		if err != nil {
			return nil, err
		}
		return expr.MemberBoolean{Member: member}, nil
	}
	return nil, fmt.Errorf("unrecognized predicate with keys %s", strings.Join(keys(m), ", "))
}

func decodeJunction(m map[string]any, key string, join func(...expr.Node) expr.Node) (expr.Node, error) {
	if err := onlyKeys(m, key); err != nil {
		return nil, err
	}
	list, ok := m[key].([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s: expected a non-empty list", key)
	}
	nodes := make([]expr.Node, len(list))
	for i, item := range list {
		n, err := predicateAt(item, fmt.Sprintf("%s[%d]", key, i))
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return join(nodes...), nil
}

func decodeComparison(m map[string]any) (expr.Node, error) {
	if err := onlyKeys(m, "op", "member", "value"); err != nil {
		return nil, err
	}
	raw, _ := m["op"].(string)
	op, ok := expr.ParseOp(raw)
	if !ok {
		return nil, fmt.Errorf("op: unknown operator %v", m["op"])
	}
	member, err := memberAt(m, "member")
	if err != nil {
		return nil, err
	}
	// A missing value compares against null.
	return expr.Comparison{Op: op, Left: member, Right: expr.Value(m["value"])}, nil
}

func decodeContains(m map[string]any) (expr.Node, error) {
	if err := onlyKeys(m, "contains"); err != nil {
		return nil, err
	}
	body, ok := m["contains"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("contains: expected a map")
	}
	if err := onlyKeys(body, "member", "value", "mode"); err != nil {
		return nil, fmt.Errorf("contains: %w", err)
	}
	member, err := memberAt(body, "member")
	if err != nil {
		return nil, fmt.Errorf("contains: %w", err)
	}
	rawMode, _ := body["mode"].(string)
	mode, ok := expr.ParseMatchMode(rawMode)
	if !ok {
		return nil, fmt.Errorf("contains: unknown mode %q", rawMode)
	}
	return expr.StringContains{Member: member, Value: expr.Value(body["value"]), Mode: mode}, nil
}

func decodeIn(m map[string]any) (expr.Node, error) {
	if err := onlyKeys(m, "in"); err != nil {
		return nil, err
	}
	body, ok := m["in"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("in: expected a map")
	}
	if err := onlyKeys(body, "member", "values"); err != nil {
		return nil, fmt.Errorf("in: %w", err)
	}
	member, err := memberAt(body, "member")
	if err != nil {
		return nil, fmt.Errorf("in: %w", err)
	}
	values, ok := body["values"].([]any)
	if !ok && body["values"] != nil {
		return nil, fmt.Errorf("in: values must be a list")
	}
	return expr.Membership{Member: member, Values: values}, nil
}

func decodeCall(m map[string]any) (expr.Node, error) {
	if err := onlyKeys(m, "call"); err != nil {
		return nil, err
	}
	body, ok := m["call"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("call: expected a map")
	}
	name, _ := body["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("call: name is required")
	}
	call := expr.MethodCall{Name: name}
	if _, ok := body["member"]; ok {
		member, err := memberAt(body, "member")
		if err != nil {
			return nil, fmt.Errorf("call: %w", err)
		}
		call.Receiver = member
	}
	return call, nil
}

func predicateAt(v any, where string) (expr.Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a predicate map, got %T", where, v)
	}
	n, err := DecodePredicate(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", where, err)
	}
	return n, nil
}

func memberAt(m map[string]any, key string) (expr.MemberAccess, error) {
	name, _ := m[key].(string)
	if name == "" {
		return expr.MemberAccess{}, fmt.Errorf("%s: expected a property name", key)
	}
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		return expr.Member(name), nil
	}
	return expr.MemberAccess{Name: parts[0], Path: parts[1:]}, nil
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func onlyKeys(m map[string]any, allowed ...string) error {
	for _, k := range keys(m) {
		if !contains(allowed, k) {
			return fmt.Errorf("unexpected key %q", k)
		}
	}
	return nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
