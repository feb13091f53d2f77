package loader

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error is an invalid entity description. Pos is set for CUE sources.
type Error struct {
	Entity  string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	msg := e.Field + ": " + e.Message
	if e.Entity != "" {
		msg = "entity " + e.Entity + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}
