package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/meta"
)

// handler describes one placeholder kind: the flags it accepts, how many
// positional arguments it takes and how it compiles.
type handler struct {
	flags   []string
	minArgs int
	maxArgs int // -1 for no limit
	prepare func(s *site) (instruction, error)
}

// handlers maps placeholder names to their handlers.
var handlers = map[string]handler{
	"table":   {flags: []string{"alias"}, prepare: prepareTable},
	"columns": {flags: []string{"exclude", "only", "qualify"}, prepare: prepareColumns},
	"values":  {flags: []string{"exclude", "param"}, prepare: prepareValues},
	"set":     {flags: []string{"exclude", "inline"}, prepare: prepareSet},

	"where":   {flags: []string{"expr", "key"}, prepare: prepareWhere},
	"between": {flags: []string{"param", "not"}, minArgs: 1, maxArgs: 1, prepare: prepareBetween},
	"in":      {flags: []string{"param", "not"}, minArgs: 1, maxArgs: 1, prepare: prepareIn},
	"like":    {flags: []string{"param", "mode", "not"}, minArgs: 1, maxArgs: 1, prepare: prepareLike},

	"orderby":  {flags: []string{"desc"}, minArgs: 1, maxArgs: -1, prepare: prepareOrderBy},
	"limit":    {flags: []string{"param"}, maxArgs: 1, prepare: prepareLimit},
	"offset":   {flags: []string{"param"}, maxArgs: 1, prepare: prepareOffset},
	"paging":   {flags: []string{"limit", "offset"}, prepare: preparePaging},
	"distinct": {maxArgs: 1, prepare: prepareDistinct},

	"coalesce": {flags: []string{"default", "param", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareCoalesce},
	"case":     {flags: []string{"when", "else", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareCase},
	"count":    {flags: []string{"distinct", "as"}, maxArgs: 1, prepare: prepareAggregate("COUNT")},
	"sum":      {flags: []string{"distinct", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareAggregate("SUM")},
	"avg":      {flags: []string{"distinct", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareAggregate("AVG")},
	"max":      {flags: []string{"distinct", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareAggregate("MAX")},
	"min":      {flags: []string{"distinct", "as"}, minArgs: 1, maxArgs: 1, prepare: prepareAggregate("MIN")},
	"groupby":  {minArgs: 1, maxArgs: -1, prepare: prepareGroupBy},
	"having":   {flags: []string{"op", "param", "expr"}, maxArgs: 1, prepare: prepareHaving},

	"row_number": {flags: []string{"partition", "order", "desc", "as"}, prepare: prepareWindow("ROW_NUMBER")},
	"rank":       {flags: []string{"partition", "order", "desc", "as"}, prepare: prepareWindow("RANK")},
	"dense_rank": {flags: []string{"partition", "order", "desc", "as"}, prepare: prepareWindow("DENSE_RANK")},

	"exists":      {flags: []string{"query", "sql", "not"}, prepare: prepareExists},
	"in_subquery": {flags: []string{"query", "sql", "not"}, minArgs: 1, maxArgs: 1, prepare: prepareInSubquery},
	"union":       {flags: []string{"query", "sql", "all"}, prepare: prepareUnion},

	"bool_true":         {prepare: prepareBoolLiteral(true)},
	"bool_false":        {prepare: prepareBoolLiteral(false)},
	"current_timestamp": {prepare: prepareCurrentTimestamp},
	"auto_increment":    {prepare: prepareAutoIncrement},
	"param":             {minArgs: 1, maxArgs: 1, prepare: prepareParam},

	"upsert": {flags: []string{"key", "exclude"}, prepare: prepareUpsert},
}

// Kinds returns every placeholder name, sorted.
func Kinds() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Flags returns the flags accepted by placeholder kind.
func Flags(kind string) ([]string, bool) {
	h, ok := handlers[kind]
	if !ok {
		return nil, false
	}
	return append([]string(nil), h.flags...), true
}

// prepareSite validates o against its handler and compiles it.
func prepareSite(ctx Context, span Span, o Options) (instruction, error) {
	h, ok := handlers[o.Name]
	if !ok {
		return instruction{}, &UnknownPlaceholderError{Span: span, Name: o.Name}
	}
	for _, f := range o.Flags() {
		if !contains(h.flags, f) {
			return instruction{}, &UnsupportedOptionError{Span: span, Placeholder: o.Name, Option: f, Message: "unknown option"}
		}
	}
	s := &site{ctx: ctx, span: span, opts: o, args: o.Args()}
	switch {
	case h.maxArgs >= 0 && len(s.args) > h.maxArgs:
		return instruction{}, s.syntaxf("unexpected argument %q", s.args[h.maxArgs])
	case len(s.args) < h.minArgs:
		return instruction{}, s.syntaxf("missing argument")
	}
	return h.prepare(s)
}

// site is the compile-time view of one placeholder.
type site struct {
	ctx  Context
	span Span
	opts Options
	args []string
}

func (s *site) d() dialect.Descriptor { return s.ctx.Dialect }

func (s *site) syntaxf(format string, args ...any) error {
	return &SyntaxError{Span: s.span, Message: s.opts.Name + ": " + fmt.Sprintf(format, args...)}
}

func (s *site) unsupported(option, msg string) error {
	return &UnsupportedOptionError{Span: s.span, Placeholder: s.opts.Name, Option: option, Message: msg}
}

// exclusive fails when both flags are present.
func (s *site) exclusive(a, b string) error {
	if s.opts.Has(a) && s.opts.Has(b) {
		return s.unsupported(b, "cannot be combined with --"+a)
	}
	return nil
}

// value returns a flag value that must be non-empty when present.
func (s *site) value(flag string) (string, bool, error) {
	v, ok := s.opts.Value(flag)
	if !ok {
		return "", false, nil
	}
	if v == "" {
		return "", true, s.syntaxf("--%s requires a value", flag)
	}
	return v, true, nil
}

// expr is value for flags holding SQL text.
func (s *site) expr(flag string) (string, bool, error) {
	v, ok := s.opts.Expr(flag)
	if !ok {
		return "", false, nil
	}
	if strings.TrimSpace(v) == "" {
		return "", true, s.syntaxf("--%s requires a value", flag)
	}
	return v, true, nil
}

// column resolves a placeholder subject. A miss is an error.
func (s *site) column(name string) (meta.Column, error) {
	col, ok := s.ctx.Table.Lookup(name)
	if !ok {
		return meta.Column{}, &UnknownColumnError{
			Span:        s.span,
			Placeholder: s.opts.Name,
			Column:      name,
			Table:       s.ctx.Table.Name(),
		}
	}
	return col, nil
}

func (s *site) resolve(names []string) ([]meta.Column, error) {
	cols := make([]meta.Column, 0, len(names))
	for _, n := range names {
		col, err := s.column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// subject resolves the first positional argument.
func (s *site) subject() (meta.Column, error) {
	return s.column(s.args[0])
}

// excluded resolves the items of flag to physical column names. Names that
// are not columns are skipped without error: exclusion of something absent
// is already satisfied.
func (s *site) excluded(flag string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range s.opts.List(flag) {
		col, ok := s.ctx.Table.Lookup(name)
		if !ok {
			continue
		}
		out[col.Name] = true
	}
	return out
}

// remaining returns the table columns not excluded by flag, in order.
func (s *site) remaining(flag string) []meta.Column {
	skip := s.excluded(flag)
	var cols []meta.Column
	for _, c := range s.ctx.Table.Columns() {
		if !skip[c.Name] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s *site) quote(c meta.Column) string {
	return s.d().QuoteIdentifier(c.Name)
}

// alias renders " AS <alias>" for --as, or "".
func (s *site) alias() (string, error) {
	a, ok, err := s.value("as")
	if err != nil || !ok {
		return "", err
	}
	return " AS " + s.d().QuoteIdentifier(a), nil
}

// paramName validates an explicit parameter name.
func (s *site) paramName(name string) error {
	if name == "" || !isIdentStart(name[0]) {
		return s.syntaxf("invalid parameter name %q", name)
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return s.syntaxf("invalid parameter name %q", name)
		}
	}
	return nil
}

// orderItems resolves "col [asc|desc]" items. defaultDesc flips the
// direction of items that do not name one.
func (s *site) orderItems(items []string, defaultDesc bool) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		fields := strings.Fields(item)
		dir := "ASC"
		if defaultDesc {
			dir = "DESC"
		}
		switch len(fields) {
		case 1:
		case 2:
			switch strings.ToUpper(fields[1]) {
			case "ASC":
				dir = "ASC"
			case "DESC":
				dir = "DESC"
			default:
				return nil, s.syntaxf("invalid direction %q", fields[1])
			}
		default:
			return nil, s.syntaxf("invalid order item %q", item)
		}
		col, err := s.column(fields[0])
		if err != nil {
			return nil, err
		}
		out = append(out, s.quote(col)+" "+dir)
	}
	return out, nil
}

// markers returns the markers and parameter names for cols.
func (s *site) markers(cols []meta.Column) ([]string, []string) {
	marks := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.ParamName()
		marks[i] = s.d().Marker(names[i])
	}
	return marks, names
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func isUint(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
