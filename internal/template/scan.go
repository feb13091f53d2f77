package template

import (
	"strings"
)

// segment is one piece of template text: literal SQL or a placeholder body.
type segment struct {
	literal bool
	text    string
	span    Span
}

// scan splits text into literal and placeholder segments. It reports
// unbalanced and nested braces. Quotes inside a placeholder may contain
// braces; a "}}" inside a '...' string in literal text is plain text.
func scan(text string) ([]segment, error) {
	var (
		segs     []segment
		start    int
		inString bool
	)
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '\'':
			inString = !inString
		case strings.HasPrefix(text[i:], "}}"):
			if inString {
				i++
				continue
			}
			return nil, &SyntaxError{Span: spanAt(text, i, i+2), Message: "unbalanced '}}'"}
		case strings.HasPrefix(text[i:], "{{"):
			if i > start {
				segs = append(segs, segment{literal: true, text: text[start:i], span: spanAt(text, start, start)})
			}
			end, err := closePlaceholder(text, i)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{text: text[i+2 : end], span: spanAt(text, i, end+2)})
			i = end + 1
			start = end + 2
		}
	}
	if start < len(text) {
		segs = append(segs, segment{literal: true, text: text[start:], span: spanAt(text, start, start)})
	}
	return segs, nil
}

// closePlaceholder returns the offset of the "}}" closing the placeholder
// opened at open.
func closePlaceholder(text string, open int) (int, error) {
	for k := open + 2; k < len(text); k++ {
		switch c := text[k]; {
		case c == '\'' || c == '"':
			end, _, ok := readQuoted(text, k)
			if !ok {
				return 0, &SyntaxError{Span: spanAt(text, open, len(text)), Message: errUnterminatedQuote.Error()}
			}
			k = end
		case strings.HasPrefix(text[k:], "{{"):
			return 0, &SyntaxError{Span: spanAt(text, open, k+2), Message: "nested '{{'"}
		case strings.HasPrefix(text[k:], "}}"):
			return k, nil
		}
	}
	return 0, &SyntaxError{Span: spanAt(text, open, len(text)), Message: "unterminated placeholder"}
}

// spanAt builds a Span for text[from:to] with 1-based line and column.
func spanAt(text string, from, to int) Span {
	line := 1 + strings.Count(text[:from], "\n")
	col := from + 1
	if nl := strings.LastIndexByte(text[:from], '\n'); nl >= 0 {
		col = from - nl
	}
	const maxSpanText = 80
	snippet := text[from:to]
	if len(snippet) > maxSpanText {
		snippet = snippet[:maxSpanText] + "..."
	}
	return Span{Text: snippet, Offset: from, Line: line, Column: col}
}
