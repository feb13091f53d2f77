package expr

import (
	"strconv"
	"strings"
	"unicode"
)

// Namer mints parameter names that are unique within one render.
type Namer interface {
	Mint(base string) string
}

// Sequence is the default Namer. It appends a monotonic counter shared by
// every base name (age_1, age_2, name_3) and skips names that are reserved
// or already minted.
//
// A Sequence belongs to one render and is not safe for concurrent use.
type Sequence struct {
	n     int
	taken map[string]struct{}
}

// NewSequence returns a Sequence that never mints any of reserved.
func NewSequence(reserved ...string) *Sequence {
	s := &Sequence{taken: make(map[string]struct{}, len(reserved))}
	for _, r := range reserved {
		s.taken[r] = struct{}{}
	}
	return s
}

// Reserve marks name as unavailable.
func (s *Sequence) Reserve(name string) {
	s.taken[name] = struct{}{}
}

// Taken reports whether name is reserved or already minted.
func (s *Sequence) Taken(name string) bool {
	_, ok := s.taken[name]
	return ok
}

// Mint returns base_N for the next free N.
func (s *Sequence) Mint(base string) string {
	base = sanitize(base)
	for {
		s.n++
		name := base + "_" + strconv.Itoa(s.n)
		if _, dup := s.taken[name]; dup {
			continue
		}
		s.taken[name] = struct{}{}
		return name
	}
}

// sanitize keeps parameter names to letters, digits and underscores.
func sanitize(base string) string {
	if base == "" {
		return "p"
	}
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
