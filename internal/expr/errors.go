package expr

import (
	"errors"
	"fmt"
	"strings"
)

// Stable error codes.
const (
	ErrCodeUnsupportedNode = "E220"
	ErrCodeUnknownMember   = "E221"
)

// UnsupportedNodeError reports an expression shape the translator cannot
// express in SQL.
type UnsupportedNodeError struct {
	Kind   string // node variant, e.g. "MethodCall"
	Detail string
}

// Error implements the error interface.
func (e *UnsupportedNodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: unsupported expression node %s: %s", ErrCodeUnsupportedNode, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: unsupported expression node %s", ErrCodeUnsupportedNode, e.Kind)
}

// Code returns the stable error code.
func (e *UnsupportedNodeError) Code() string { return ErrCodeUnsupportedNode }

// UnknownMemberError reports a member that does not resolve to a column.
type UnknownMemberError struct {
	Member string
	Table  string
}

// Error implements the error interface.
func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("%s: unknown member %q on table %q", ErrCodeUnknownMember, e.Member, e.Table)
}

// Code returns the stable error code.
func (e *UnknownMemberError) Code() string { return ErrCodeUnknownMember }

// IsUnsupportedNode reports whether err wraps an UnsupportedNodeError.
func IsUnsupportedNode(err error) bool {
	var ue *UnsupportedNodeError
	return errors.As(err, &ue)
}

// IsUnknownMember reports whether err wraps an UnknownMemberError.
func IsUnknownMember(err error) bool {
	var ue *UnknownMemberError
	return errors.As(err, &ue)
}

func traversal(m MemberAccess) *UnsupportedNodeError {
	return &UnsupportedNodeError{
		Kind:   "MemberAccess",
		Detail: "traversal through related entity " + strings.Join(append([]string{m.Name}, m.Path...), "."),
	}
}
