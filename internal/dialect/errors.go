package dialect

import (
	"errors"
	"fmt"
)

// ErrCodeUnsupportedDialect is the stable code carried by UnsupportedDialectError.
const ErrCodeUnsupportedDialect = "E210"

// UnsupportedDialectError reports a dialect name, DSN or feature the
// registry cannot serve.
type UnsupportedDialectError struct {
	// Name is the dialect name or DSN that failed to resolve.
	Name string

	// Feature is set when the dialect exists but lacks a capability
	// (for example "upsert").
	Feature string

	// Cause is the underlying parse error for DSN resolution, if any.
	Cause error
}

// Error implements the error interface.
func (e *UnsupportedDialectError) Error() string {
	switch {
	case e.Feature != "":
		return fmt.Sprintf("%s: dialect %q does not support %s", ErrCodeUnsupportedDialect, e.Name, e.Feature)
	case e.Cause != nil:
		return fmt.Sprintf("%s: cannot resolve dialect from %q: %v", ErrCodeUnsupportedDialect, e.Name, e.Cause)
	default:
		return fmt.Sprintf("%s: unsupported dialect %q", ErrCodeUnsupportedDialect, e.Name)
	}
}

// Unwrap returns the underlying cause.
func (e *UnsupportedDialectError) Unwrap() error {
	return e.Cause
}

// Code returns the stable error code.
func (e *UnsupportedDialectError) Code() string {
	return ErrCodeUnsupportedDialect
}

// IsUnsupportedDialect reports whether err wraps an UnsupportedDialectError.
func IsUnsupportedDialect(err error) bool {
	var ue *UnsupportedDialectError
	return errors.As(err, &ue)
}
