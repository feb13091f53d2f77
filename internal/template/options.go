package template

import (
	"strings"
)

// Options is the parsed content of one placeholder: its name, positional
// arguments and flags.
//
//	{{set --exclude id --inline version=version+1}}
//
// parses to Name "set", flags exclude=["id"] and inline=["version=version+1"].
type Options struct {
	// Name is the placeholder name, lower-cased.
	Name string
	// Positional holds the raw tokens between the name and the first flag.
	Positional []string

	flags map[string][]string
	raw   map[string][]string
	order []string
}

// Assignment is one name=expression item of an inline flag.
type Assignment struct {
	Name string
	Expr string
}

// token is one lexical unit of a placeholder body. Quoted tokens are never
// treated as flags. raw keeps single-quoted runs with their quotes so that
// SQL string literals survive in expression-valued flags.
type token struct {
	text   string
	raw    string
	quoted bool
}

// ParseOptions parses the text between "{{" and "}}".
//
// Rules:
//   - the first token is the placeholder name (case-insensitive)
//   - tokens before the first --flag are positional
//   - a flag owns the tokens up to the next flag, joined by single spaces
//   - a flag without tokens is boolean; flags may repeat
//   - single or double quotes group characters; a doubled quote is literal
//   - Expr and Inline see single-quoted runs verbatim, quotes included
func ParseOptions(body string) (Options, error) {
	tokens, err := tokenize(body)
	if err != nil {
		return Options{}, err
	}
	if len(tokens) == 0 {
		return Options{}, errEmptyPlaceholder
	}

	o := Options{
		Name:  strings.ToLower(tokens[0].text),
		flags: make(map[string][]string),
		raw:   make(map[string][]string),
	}

	current := ""
	var pending, pendingRaw []string
	flush := func() {
		if current == "" {
			return
		}
		if _, seen := o.flags[current]; !seen {
			o.order = append(o.order, current)
		}
		o.flags[current] = append(o.flags[current], strings.Join(pending, " "))
		o.raw[current] = append(o.raw[current], strings.Join(pendingRaw, " "))
		pending, pendingRaw = nil, nil
	}

	for _, tok := range tokens[1:] {
		if !tok.quoted && strings.HasPrefix(tok.text, "--") && len(tok.text) > 2 {
			flush()
			current = strings.ToLower(tok.text[2:])
			continue
		}
		if current == "" {
			o.Positional = append(o.Positional, tok.text)
			continue
		}
		pending = append(pending, tok.text)
		pendingRaw = append(pendingRaw, tok.raw)
	}
	flush()

	return o, nil
}

// tokenize splits on whitespace, honoring quotes.
func tokenize(s string) ([]token, error) {
	var (
		tokens []token
		cur    strings.Builder
		raw    strings.Builder
		inTok  bool
		quoted bool
	)
	emit := func() {
		if inTok {
			tokens = append(tokens, token{text: cur.String(), raw: raw.String(), quoted: quoted})
		}
		cur.Reset()
		raw.Reset()
		inTok, quoted = false, false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			end, text, ok := readQuoted(s, i)
			if !ok {
				return nil, errUnterminatedQuote
			}
			cur.WriteString(text)
			if c == '\'' {
				raw.WriteString(s[i : end+1])
			} else {
				raw.WriteString(text)
			}
			inTok, quoted = true, true
			i = end
		case isSpace(c):
			emit()
		default:
			cur.WriteByte(c)
			raw.WriteByte(c)
			inTok = true
		}
	}
	emit()
	return tokens, nil
}

// readQuoted reads a quoted run starting at s[start]. It returns the index
// of the closing quote and the unquoted content.
func readQuoted(s string, start int) (int, string, bool) {
	q := s[start]
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			b.WriteByte(q)
			i++
			continue
		}
		return i, b.String(), true
	}
	return 0, "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Has reports whether flag was given.
func (o Options) Has(flag string) bool {
	_, ok := o.flags[flag]
	return ok
}

// Value returns the last value given for flag.
func (o Options) Value(flag string) (string, bool) {
	vs, ok := o.flags[flag]
	if !ok {
		return "", false
	}
	return vs[len(vs)-1], true
}

// Expr returns the last value given for flag as SQL text, with
// single-quoted string literals kept intact.
func (o Options) Expr(flag string) (string, bool) {
	vs, ok := o.raw[flag]
	if !ok {
		return "", false
	}
	return vs[len(vs)-1], true
}

// Values returns every raw value given for flag, in order.
func (o Options) Values(flag string) []string {
	return o.flags[flag]
}

// List returns the comma-separated items of every occurrence of flag.
func (o Options) List(flag string) []string {
	var out []string
	for _, v := range o.flags[flag] {
		out = append(out, splitList(v, false)...)
	}
	return out
}

// Inline returns the name=expression items of flag. Items without '='
// have an empty Expr. String literals in an expression keep their quotes
// and may contain commas.
func (o Options) Inline(flag string) []Assignment {
	var items []string
	for _, v := range o.raw[flag] {
		items = append(items, splitList(v, true)...)
	}
	out := make([]Assignment, 0, len(items))
	for _, item := range items {
		name, rhs, _ := strings.Cut(item, "=")
		out = append(out, Assignment{Name: strings.TrimSpace(name), Expr: strings.TrimSpace(rhs)})
	}
	return out
}

// Args returns the positional arguments as a comma-separated list.
func (o Options) Args() []string {
	return splitList(strings.Join(o.Positional, " "), false)
}

// Flags returns flag names in first-appearance order.
func (o Options) Flags() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// splitList splits s on commas at parenthesis depth zero, trimming items
// and dropping empty ones. With literals set, commas inside '...' do not
// split.
func splitList(s string, literals bool) []string {
	var (
		out   []string
		depth int
		start int
	)
	add := func(item string) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if literals {
				i = closingQuote(s, i, '\'') - 1
			}
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				add(s[start:i])
				start = i + 1
			}
		}
	}
	add(s[start:])
	return out
}
