package template

import (
	"strings"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

// literalMarkers returns the parameter names written directly in SQL text
// (e.g. "@id" for an @-prefixed dialect), in order of appearance. Quoted
// strings and quoted identifiers are skipped. Positional dialects have no
// named markers.
func literalMarkers(d dialect.Descriptor, text string) []string {
	if d.Positional || d.ParameterPrefix == "" {
		return nil
	}
	var names []string
	walkSQL(d, text, func(kind sqlToken, tok string) {
		if kind == tokMarker {
			names = append(names, tok[len(d.ParameterPrefix):])
		}
	})
	return names
}

// requote rewrites an inline SQL expression so that words naming a column
// become quoted physical column names. Function names, keywords, literals
// and parameter markers are left alone. It returns the rewritten text and
// the parameter names it references.
func requote(d dialect.Descriptor, t *meta.Table, text string) (string, []string) {
	var (
		b       strings.Builder
		markers []string
	)
	walkSQL(d, text, func(kind sqlToken, tok string) {
		switch kind {
		case tokMarker:
			markers = append(markers, tok[len(d.ParameterPrefix):])
			b.WriteString(tok)
		case tokWord:
			if col, ok := t.Lookup(tok); ok {
				b.WriteString(d.QuoteIdentifier(col.Name))
				return
			}
			b.WriteString(tok)
		default:
			b.WriteString(tok)
		}
	})
	return b.String(), markers
}

// renameMarkers rewrites the named markers listed in rename.
func renameMarkers(d dialect.Descriptor, text string, rename map[string]string) string {
	var b strings.Builder
	walkSQL(d, text, func(kind sqlToken, tok string) {
		if kind == tokMarker {
			if to, ok := rename[tok[len(d.ParameterPrefix):]]; ok {
				b.WriteString(d.Marker(to))
				return
			}
		}
		b.WriteString(tok)
	})
	return b.String()
}

type sqlToken int

const (
	tokOther  sqlToken = iota
	tokString          // '...'
	tokQuoted          // quoted identifier
	tokMarker          // named parameter marker
	tokWord            // bare identifier that is not a function name
)

// walkSQL splits text into coarse SQL tokens and calls fn for each. The
// concatenation of every token equals text.
func walkSQL(d dialect.Descriptor, text string, fn func(kind sqlToken, tok string)) {
	prefix := d.ParameterPrefix
	named := !d.Positional && prefix != ""

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'':
			end := closingQuote(text, i, '\'')
			fn(tokString, text[i:end])
			i = end
		case c == '"' || c == '`':
			end := closingQuote(text, i, c)
			fn(tokQuoted, text[i:end])
			i = end
		case c == '[' && d.IdentifierLeft == "[":
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				fn(tokOther, text[i:])
				return
			}
			fn(tokQuoted, text[i:i+end+1])
			i += end + 1
		case named && strings.HasPrefix(text[i:], prefix) && markerStart(text, i, prefix):
			j := i + len(prefix)
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			fn(tokMarker, text[i:j])
			i = j
		case isIdentStart(c) && (i == 0 || !isIdentPart(text[i-1])):
			j := i
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			word := text[i:j]
			if isCall(text, j) || (i > 0 && text[i-1] == '.') {
				fn(tokOther, word)
			} else {
				fn(tokWord, word)
			}
			i = j
		default:
			j := i + 1
			for j < len(text) && !isInteresting(text[j]) {
				j++
			}
			fn(tokOther, text[i:j])
			i = j
		}
	}
}

// markerStart reports whether a named marker begins at text[i].
// "@@version" and "$1" are not markers.
func markerStart(text string, i int, prefix string) bool {
	if i > 0 && (isIdentPart(text[i-1]) || strings.HasPrefix(text[i-1:], prefix)) {
		return false
	}
	j := i + len(prefix)
	return j < len(text) && isIdentStart(text[j])
}

// closingQuote returns the index just past the quote run starting at i.
// Doubled quotes are part of the run. An unterminated run extends to the end.
func closingQuote(text string, i int, q byte) int {
	for k := i + 1; k < len(text); k++ {
		if text[k] != q {
			continue
		}
		if k+1 < len(text) && text[k+1] == q {
			k++
			continue
		}
		return k + 1
	}
	return len(text)
}

// isCall reports whether the word ending at j is followed by "(".
func isCall(text string, j int) bool {
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	return j < len(text) && text[j] == '('
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isInteresting(c byte) bool {
	return c == '\'' || c == '"' || c == '`' || c == '[' || c == '@' || c == '$' || c == ':' || c == '?' || isIdentPart(c)
}
