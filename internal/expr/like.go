package expr

import (
	"strings"

	"github.com/roach88/stencil/internal/dialect"
)

// LikeEscape is the escape character used in every generated LIKE clause.
const LikeEscape = "!"

// EscapeLike escapes LIKE wildcards in s for d. The escape character
// itself is escaped first.
func EscapeLike(d dialect.Descriptor, s string) string {
	pairs := []string{LikeEscape, LikeEscape + LikeEscape, "%", LikeEscape + "%", "_", LikeEscape + "_"}
	if d.LikeBracketWildcard {
		pairs = append(pairs, "[", LikeEscape+"[")
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Pattern escapes s and wraps it in wildcards per mode.
func Pattern(d dialect.Descriptor, s string, mode MatchMode) string {
	escaped := EscapeLike(d, s)
	switch mode {
	case MatchPrefix:
		return escaped + "%"
	case MatchSuffix:
		return "%" + escaped
	case MatchExact:
		return escaped
	default:
		return "%" + escaped + "%"
	}
}

// LikeClause renders "col LIKE marker ESCAPE '!'" (NOT LIKE when negated).
func LikeClause(column, marker string, negated bool) string {
	op := " LIKE "
	if negated {
		op = " NOT LIKE "
	}
	return column + op + marker + " ESCAPE '" + LikeEscape + "'"
}
