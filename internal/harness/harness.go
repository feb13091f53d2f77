package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/loader"
	"github.com/roach88/stencil/internal/meta"
	"github.com/roach88/stencil/internal/sqlcheck"
	"github.com/roach88/stencil/internal/template"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithEntities supplies entities for scenarios that do not name an
// entities file.
func WithEntities(set *loader.Set) Option {
	return func(h *Harness) { h.entities = set }
}

// WithRegistry sets the dialect registry. The default is dialect.Default().
func WithRegistry(r *dialect.Registry) Option {
	return func(h *Harness) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithConcurrency bounds the number of scenarios RunAll runs at once.
func WithConcurrency(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.concurrency = n
		}
	}
}

// Harness runs render scenarios.
type Harness struct {
	logger      *slog.Logger
	entities    *loader.Set
	registry    *dialect.Registry
	concurrency int
}

// New creates a harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry:    dialect.Default(),
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes one scenario with a default harness.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	return New(opts...).Run(ctx, scenario)
}

// RunAll executes scenarios concurrently with a default harness.
func RunAll(ctx context.Context, scenarios []*Scenario, opts ...Option) ([]*Result, error) {
	return New(opts...).RunAll(ctx, scenarios)
}

// Run renders the scenario's template and evaluates its expectations.
//
// A render error is an outcome, not a failure of Run: it is recorded in the
// result and matched against expect.error. Run itself fails only when the
// scenario cannot be set up (unknown dialect, missing entity, bad
// bindings).
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, table, bindings, err := h.setup(scenario)
	if err != nil {
		return nil, err
	}

	logger := h.logger.With("scenario", scenario.Name, "dialect", d.Name)
	result := NewResult(scenario.Name, d.Name)

	rendered, err := template.PrepareAndRender(scenario.Template, template.NewContext(d, table), bindings,
		template.WithLogger(logger))
	if err != nil {
		result.Error = err.Error()
		result.Code = template.CodeOf(err)
		logger.Debug("render failed", "code", result.Code, "error", err)
	} else {
		result.SQL = rendered.SQL
		result.Params = rendered.Map()
		result.Names = rendered.Names()
		result.Args = rendered.Args()
		logger.Debug("rendered", "sql", rendered.SQL, "params", len(rendered.Params))
	}

	for _, msg := range EvaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}

	if scenario.Check && rendered != nil {
		if check, ok := sqlcheck.For(d); ok {
			if err := check(ctx, table, rendered.SQL); err != nil {
				result.AddError((&AssertionError{Type: "check", Expected: "statement accepted", Actual: err.Error(), SQL: rendered.SQL}).Error())
			}
		} else {
			logger.Debug("no offline checker for dialect")
		}
	}

	logger.Debug("scenario finished", "pass", result.Pass)
	return result, nil
}

// Render renders the scenario's template without evaluating expectations.
// It returns the dialect the scenario resolved to.
func (h *Harness) Render(ctx context.Context, scenario *Scenario) (dialect.Descriptor, *template.Rendered, error) {
	if err := ctx.Err(); err != nil {
		return dialect.Descriptor{}, nil, err
	}
	d, table, bindings, err := h.setup(scenario)
	if err != nil {
		return dialect.Descriptor{}, nil, err
	}
	r, err := template.PrepareAndRender(scenario.Template, template.NewContext(d, table), bindings,
		template.WithLogger(h.logger.With("scenario", scenario.Name, "dialect", d.Name)))
	if err != nil {
		return d, nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return d, r, nil
}

func (h *Harness) setup(s *Scenario) (dialect.Descriptor, *meta.Table, template.Bindings, error) {
	d, err := h.registry.Lookup(s.Dialect)
	if err != nil {
		return dialect.Descriptor{}, nil, nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	table, err := h.table(s)
	if err != nil {
		return dialect.Descriptor{}, nil, nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	bindings, err := DecodeBindings(s.Bindings)
	if err != nil {
		return dialect.Descriptor{}, nil, nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return d, table, bindings, nil
}

// RunAll runs scenarios concurrently. Results are in scenario order. The
// first setup error cancels the remaining scenarios.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			r, err := h.Run(ctx, s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// table resolves the scenario's entity.
func (h *Harness) table(s *Scenario) (*meta.Table, error) {
	if s.Entity == "" {
		return nil, nil
	}

	set := h.entities
	if s.Entities != "" {
		loaded, err := loader.LoadDir(s.Entities)
		if err != nil {
			return nil, fmt.Errorf("failed to load entities: %w", err)
		}
		set = loaded
	}
	if set == nil {
		return nil, fmt.Errorf("entity %q: no entities loaded", s.Entity)
	}
	t, ok := set.Lookup(s.Entity)
	if !ok {
		return nil, fmt.Errorf("entity %q not found (have %v)", s.Entity, set.Names())
	}
	return t, nil
}
