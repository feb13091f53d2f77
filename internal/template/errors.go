package template

import (
	"errors"
	"fmt"
)

// Stable error codes.
const (
	ErrCodeSyntax             = "E201"
	ErrCodeUnknownPlaceholder = "E202"
	ErrCodeUnsupportedOption  = "E203"
	ErrCodeUnknownColumn      = "E204"
	ErrCodeBinding            = "E205"
)

var (
	errEmptyPlaceholder  = errors.New("empty placeholder")
	errUnterminatedQuote = errors.New("unterminated quote")
)

// Span locates a placeholder in the template text.
type Span struct {
	Text   string // the full "{{...}}" text
	Offset int    // byte offset of "{{"
	Line   int    // 1-based
	Column int    // 1-based, in bytes
}

// String renders the location for error messages.
func (s Span) String() string {
	if s.Text == "" {
		return fmt.Sprintf("line %d, column %d", s.Line, s.Column)
	}
	return fmt.Sprintf("line %d, column %d: %s", s.Line, s.Column, s.Text)
}

// SyntaxError reports malformed template text.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrCodeSyntax, e.Message, e.Span)
}

// Code returns the stable error code.
func (e *SyntaxError) Code() string { return ErrCodeSyntax }

// UnknownPlaceholderError reports a placeholder name with no handler.
type UnknownPlaceholderError struct {
	Span Span
	Name string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("%s: unknown placeholder %q (%s)", ErrCodeUnknownPlaceholder, e.Name, e.Span)
}

// Code returns the stable error code.
func (e *UnknownPlaceholderError) Code() string { return ErrCodeUnknownPlaceholder }

// UnsupportedOptionError reports a flag the placeholder does not accept,
// a conflicting flag combination, or a feature the dialect lacks.
type UnsupportedOptionError struct {
	Span        Span
	Placeholder string
	Option      string
	Message     string
}

func (e *UnsupportedOptionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "not supported"
	}
	if e.Option == "" {
		return fmt.Sprintf("%s: %s: %s (%s)", ErrCodeUnsupportedOption, e.Placeholder, msg, e.Span)
	}
	return fmt.Sprintf("%s: %s --%s: %s (%s)", ErrCodeUnsupportedOption, e.Placeholder, e.Option, msg, e.Span)
}

// Code returns the stable error code.
func (e *UnsupportedOptionError) Code() string { return ErrCodeUnsupportedOption }

// UnknownColumnError reports a placeholder subject that is not a column.
type UnknownColumnError struct {
	Span        Span
	Placeholder string
	Column      string
	Table       string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s: %s: unknown column %q on table %q (%s)",
		ErrCodeUnknownColumn, e.Placeholder, e.Column, e.Table, e.Span)
}

// Code returns the stable error code.
func (e *UnknownColumnError) Code() string { return ErrCodeUnknownColumn }

// BindingError reports a missing, mistyped or conflicting render binding.
type BindingError struct {
	Span    Span
	Name    string
	Message string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: binding %q: %s (%s)", ErrCodeBinding, e.Name, e.Message, e.Span)
}

// Code returns the stable error code.
func (e *BindingError) Code() string { return ErrCodeBinding }

// Coded is implemented by every error type in stencil that carries a
// stable code.
type Coded interface {
	error
	Code() string
}

// CodeOf returns the stable code of the first coded error in err's chain,
// or "" if there is none.
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// IsSyntax reports whether err wraps a SyntaxError.
func IsSyntax(err error) bool {
	var e *SyntaxError
	return errors.As(err, &e)
}

// IsUnknownPlaceholder reports whether err wraps an UnknownPlaceholderError.
func IsUnknownPlaceholder(err error) bool {
	var e *UnknownPlaceholderError
	return errors.As(err, &e)
}

// IsUnsupportedOption reports whether err wraps an UnsupportedOptionError.
func IsUnsupportedOption(err error) bool {
	var e *UnsupportedOptionError
	return errors.As(err, &e)
}

// IsUnknownColumn reports whether err wraps an UnknownColumnError.
func IsUnknownColumn(err error) bool {
	var e *UnknownColumnError
	return errors.As(err, &e)
}

// IsBinding reports whether err wraps a BindingError.
func IsBinding(err error) bool {
	var e *BindingError
	return errors.As(err, &e)
}
