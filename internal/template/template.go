package template

import (
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/expr"
	"github.com/roach88/stencil/internal/meta"
)

// Context is what every placeholder is rendered against: one dialect and
// one table. It is built once per (entity, dialect) pair and never
// modified.
type Context struct {
	Dialect dialect.Descriptor
	Table   *meta.Table
}

// NewContext builds a Context.
func NewContext(d dialect.Descriptor, t *meta.Table) Context {
	return Context{Dialect: d, Table: t}
}

// templateNamespace scopes template IDs.
var templateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/stencil/template"))

// TemplateID returns the deterministic ID of text prepared against ctx.
func TemplateID(text string, ctx Context) uuid.UUID {
	fp := ""
	if ctx.Table != nil {
		fp = ctx.Table.Fingerprint()
	}
	return uuid.NewSHA1(templateNamespace, []byte(ctx.Dialect.Name+"\x00"+fp+"\x00"+text))
}

// Option configures Prepare.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// instruction is one step of a compiled template. Literal text and static
// fragments carry text and the parameter names of the markers inside it;
// dynamic sites carry a resolver run at render.
type instruction struct {
	text    string
	markers []string

	name    string
	span    Span
	resolve func(r *renderer) (string, error)
}

func static(text string, markers ...string) instruction {
	return instruction{text: text, markers: markers}
}

func dynamic(fn func(r *renderer) (string, error)) instruction {
	return instruction{resolve: fn}
}

// Template is a prepared template: an immutable instruction list that
// Render replays. A Template is safe for concurrent use.
type Template struct {
	id           uuid.UUID
	text         string
	ctx          Context
	steps        []instruction
	reserved     []string
	placeholders []string
}

// ID returns the deterministic template ID.
func (t *Template) ID() uuid.UUID { return t.id }

// Text returns the source text.
func (t *Template) Text() string { return t.text }

// Context returns the context the template was prepared against.
func (t *Template) Context() Context { return t.ctx }

// Reserved returns the parameter names fixed at prepare time. Names minted
// during render never collide with them.
func (t *Template) Reserved() []string {
	out := make([]string, len(t.reserved))
	copy(out, t.reserved)
	return out
}

// Placeholders returns the placeholder names in order of appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Prepare parses text, validates every placeholder against ctx and
// returns the compiled template. All template, option, column and dialect
// errors surface here.
func Prepare(text string, ctx Context, opts ...Option) (*Template, error) {
	cfg := newConfig(opts)

	if ctx.Dialect.IsZero() {
		return nil, &dialect.UnsupportedDialectError{Name: ""}
	}
	if ctx.Table == nil {
		ctx.Table = meta.NewTable("")
	}

	segs, err := scan(text)
	if err != nil {
		return nil, err
	}

	t := &Template{
		id:   TemplateID(text, ctx),
		text: text,
		ctx:  ctx,
	}
	reserved := make(map[string]struct{})
	reserve := func(names []string) {
		for _, n := range names {
			if _, ok := reserved[n]; !ok {
				reserved[n] = struct{}{}
				t.reserved = append(t.reserved, n)
			}
		}
	}

	for _, seg := range segs {
		if seg.literal {
			markers := literalMarkers(ctx.Dialect, seg.text)
			reserve(markers)
			t.steps = append(t.steps, static(seg.text, markers...))
			continue
		}

		o, err := ParseOptions(seg.text)
		if err != nil {
			return nil, &SyntaxError{Span: seg.span, Message: err.Error()}
		}
		step, err := prepareSite(ctx, seg.span, o)
		if err != nil {
			return nil, err
		}
		step.name = o.Name
		step.span = seg.span
		reserve(step.markers)
		if step.resolve != nil {
			reserve(paramFlags(o))
		}
		t.placeholders = append(t.placeholders, o.Name)
		t.steps = append(t.steps, step)
	}

	t.steps = coalesceStatic(t.steps)

	cfg.logger.Debug("template prepared",
		"id", t.id.String(),
		"dialect", ctx.Dialect.Name,
		"table", ctx.Table.Name(),
		"placeholders", len(t.placeholders),
		"instructions", len(t.steps),
	)
	return t, nil
}

// paramFlags returns the explicit parameter names a dynamic site claims.
func paramFlags(o Options) []string {
	if v, ok := o.Value("param"); ok && v != "" {
		return []string{v}
	}
	return nil
}

// coalesceStatic merges adjacent static instructions.
func coalesceStatic(steps []instruction) []instruction {
	out := make([]instruction, 0, len(steps))
	for _, s := range steps {
		if n := len(out); n > 0 && s.resolve == nil && out[n-1].resolve == nil {
			prev := &out[n-1]
			prev.text += s.text
			prev.markers = append(append([]string(nil), prev.markers...), s.markers...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Render replays the instruction list with b. Static text is copied,
// dynamic sites are resolved from b. Any error aborts the render.
func (t *Template) Render(b Bindings) (*Rendered, error) {
	r := &renderer{
		ctx:      t.ctx,
		bindings: b,
		names:    expr.NewSequence(t.reserved...),
		index:    make(map[string]int),
		minted:   make(map[string]struct{}),
	}
	var sql strings.Builder
	for _, step := range t.steps {
		r.span = step.span
		if step.resolve == nil {
			sql.WriteString(step.text)
			for _, m := range step.markers {
				r.use(m)
			}
			continue
		}
		frag, err := step.resolve(r)
		if err != nil {
			return nil, err
		}
		sql.WriteString(frag)
	}
	return &Rendered{
		SQL:         sql.String(),
		Params:      r.params,
		positional:  t.ctx.Dialect.Positional,
		occurrences: r.occurrences,
		minted:      r.minted,
	}, nil
}

// PrepareAndRender prepares and renders text in one call.
func PrepareAndRender(text string, ctx Context, b Bindings, opts ...Option) (*Rendered, error) {
	t, err := Prepare(text, ctx, opts...)
	if err != nil {
		return nil, err
	}
	return t.Render(b)
}

// renderer is the per-render state. It never outlives one Render call.
type renderer struct {
	ctx         Context
	bindings    Bindings
	names       *expr.Sequence
	span        Span
	params      []Param
	index       map[string]int
	occurrences []string
	minted      map[string]struct{}
}

// use records one marker occurrence of name, taking its value from the
// bindings when present.
func (r *renderer) use(name string) {
	v := r.bindings[name]
	if i, ok := r.index[name]; ok {
		if r.params[i].Value == nil {
			r.params[i].Value = v
		}
	} else {
		r.index[name] = len(r.params)
		r.params = append(r.params, Param{Name: name, Value: v})
	}
	r.occurrences = append(r.occurrences, name)
}

// set records one marker occurrence of name with an explicit value.
func (r *renderer) set(name string, v any) error {
	if i, ok := r.index[name]; ok {
		prev := r.params[i].Value
		if prev != nil && !reflect.DeepEqual(prev, v) {
			return r.bindingError(name, "conflicting values for parameter")
		}
		r.params[i].Value = v
	} else {
		r.index[name] = len(r.params)
		r.params = append(r.params, Param{Name: name, Value: v})
	}
	r.occurrences = append(r.occurrences, name)
	return nil
}

// mint creates a fresh parameter for v and returns its marker.
func (r *renderer) mint(base string, v any) string {
	name := r.names.Mint(base)
	r.minted[name] = struct{}{}
	r.index[name] = len(r.params)
	r.params = append(r.params, Param{Name: name, Value: v})
	r.occurrences = append(r.occurrences, name)
	return r.ctx.Dialect.Marker(name)
}

// binding returns the value bound to name.
func (r *renderer) binding(name string) (any, error) {
	v, ok := r.bindings[name]
	if !ok {
		return nil, r.bindingError(name, "missing binding")
	}
	return v, nil
}

// translate runs the expression translator with this render's namer and
// records the parameters it introduces.
func (r *renderer) translate(n expr.Node) (string, error) {
	frag, err := expr.Translate(n, expr.Scope{Dialect: r.ctx.Dialect, Table: r.ctx.Table, Names: r.names})
	if err != nil {
		return "", err
	}
	for _, p := range frag.Params {
		r.minted[p.Name] = struct{}{}
		r.index[p.Name] = len(r.params)
		r.params = append(r.params, p)
		r.occurrences = append(r.occurrences, p.Name)
	}
	return frag.SQL, nil
}

// merge splices a rendered subquery, carrying its parameters over. Names
// the subquery minted are renamed when this render already uses them;
// names it took from bindings or literal text are shared and must agree.
func (r *renderer) merge(sub *Rendered) (string, error) {
	var clash []string
	for _, p := range sub.Params {
		if _, ok := sub.minted[p.Name]; !ok {
			continue
		}
		if _, used := r.index[p.Name]; used || r.names.Taken(p.Name) {
			clash = append(clash, p.Name)
		}
	}
	// Fresh names must avoid the subquery's own names too.
	for _, p := range sub.Params {
		r.names.Reserve(p.Name)
	}
	rename := make(map[string]string, len(clash))
	for _, name := range clash {
		rename[name] = r.names.Mint(mintedBase(name))
	}
	target := func(name string) string {
		if to, ok := rename[name]; ok {
			return to
		}
		return name
	}
	carry := func(name string) {
		if _, ok := sub.minted[name]; ok {
			r.minted[target(name)] = struct{}{}
		}
	}

	values := sub.Map()
	for _, name := range sub.occurrences {
		to := target(name)
		if err := r.set(to, values[name]); err != nil {
			return "", err
		}
		carry(name)
		r.names.Reserve(to)
	}
	// Parameters listed without a marker occurrence still travel along.
	for _, p := range sub.Params {
		to := target(p.Name)
		if _, ok := r.index[to]; !ok {
			r.index[to] = len(r.params)
			r.params = append(r.params, Param{Name: to, Value: p.Value})
			carry(p.Name)
			r.names.Reserve(to)
		}
	}

	if len(rename) == 0 {
		return sub.SQL, nil
	}
	return renameMarkers(r.ctx.Dialect, sub.SQL, rename), nil
}

// mintedBase strips the _N suffix a Sequence appends.
func mintedBase(name string) string {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}

func (r *renderer) bindingError(name, msg string) error {
	return &BindingError{Span: r.span, Name: name, Message: msg}
}
