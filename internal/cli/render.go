package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/stencil/internal/dialect"
	"github.com/roach88/stencil/internal/harness"
	"github.com/roach88/stencil/internal/meta"
	"github.com/roach88/stencil/internal/template"
)

// RenderOptions holds flags shared by render and check.
type RenderOptions struct {
	*RootOptions
	File     string   // template file, "-" for stdin
	Bindings string   // YAML bindings file
	Set      []string // name=value bindings, values parsed as YAML
}

// ParamResult is one bound parameter.
type ParamResult struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// RenderResult is the output of the render command.
type RenderResult struct {
	Dialect string        `json:"dialect"`
	SQL     string        `json:"sql"`
	Params  []ParamResult `json:"params"`
	Args    []any         `json:"args,omitempty"` // positional dialects only
}

// renderInput is everything a render needs, resolved from flags.
type renderInput struct {
	text     string
	dialect  dialect.Descriptor
	table    *meta.Table
	bindings template.Bindings
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template for one dialect",
		Long: `Render a SQL template and print the statement with its parameters.

The template is the argument or the contents of --file. Bindings come from
a YAML file (--bindings) and from --set name=value; values are parsed as
YAML, so --set ids=[1,2] binds a list and --set 'f={member: active}' binds
a predicate.

Exit codes:
  0 - Rendered
  1 - Template or binding error
  2 - Command error (no dialect, unreadable files, unknown entity)

Examples:
  stencil render -d postgres --entities ./entities --entity User \
    'SELECT {{columns}} FROM {{table}} {{where --key id}}' --set id=7
  stencil render -d sqlserver -f list_users.sql --bindings page.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args, cmd)
		},
	}

	addRenderFlags(cmd, opts)
	return cmd
}

func addRenderFlags(cmd *cobra.Command, opts *RenderOptions) {
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the template from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Bindings, "bindings", "b", "", "YAML file of bindings")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "binding as name=value (repeatable)")
}

func runRender(opts *RenderOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	in, err := opts.input(args, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	rendered, err := renderStatement(opts.RootOptions, in)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	result := newRenderResult(in.dialect, rendered)
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.SQL)
		for _, p := range result.Params {
			fmt.Fprintf(w, "-- %s = %#v\n", p.Name, p.Value)
		}
		if len(result.Args) > 0 {
			fmt.Fprintf(w, "-- args %v\n", result.Args)
		}
	})
}

func renderStatement(opts *RootOptions, in *renderInput) (*template.Rendered, error) {
	logger := opts.Logger().With("dialect", in.dialect.Name)
	rendered, err := template.PrepareAndRender(in.text, template.NewContext(in.dialect, in.table), in.bindings,
		template.WithLogger(logger))
	if err != nil {
		logger.Debug("render failed", "code", template.CodeOf(err), "error", err)
		return nil, err
	}
	logger.Debug("rendered", "sql", rendered.SQL, "params", len(rendered.Params))
	return rendered, nil
}

func newRenderResult(d dialect.Descriptor, r *template.Rendered) RenderResult {
	result := RenderResult{
		Dialect: d.Name,
		SQL:     r.SQL,
		Params:  make([]ParamResult, len(r.Params)),
	}
	for i, p := range r.Params {
		result.Params[i] = ParamResult{Name: p.Name, Value: p.Value}
	}
	if d.Positional {
		result.Args = r.Args()
	}
	return result
}

// input resolves the template text, dialect, table and bindings.
func (o *RenderOptions) input(args []string, stdin io.Reader) (*renderInput, error) {
	text, err := o.templateText(args, stdin)
	if err != nil {
		return nil, err
	}
	d, err := o.descriptor()
	if err != nil {
		return nil, err
	}
	table, err := o.table()
	if err != nil {
		return nil, err
	}
	bindings, err := o.bindings()
	if err != nil {
		return nil, err
	}
	return &renderInput{text: text, dialect: d, table: table, bindings: bindings}, nil
}

func (o *RenderOptions) templateText(args []string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && o.File != "":
		return "", fmt.Errorf("give the template as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case o.File == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read template from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	case o.File != "":
		data, err := os.ReadFile(o.File)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return "", fmt.Errorf("no template: pass it as an argument or with --file")
}

// bindings merges the bindings file with --set values; --set wins.
func (o *RenderOptions) bindings() (template.Bindings, error) {
	raw := make(map[string]any)
	if o.Bindings != "" {
		data, err := os.ReadFile(o.Bindings)
		if err != nil {
			return nil, fmt.Errorf("failed to read bindings: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse bindings %s: %w", o.Bindings, err)
		}
		if raw == nil {
			raw = make(map[string]any)
		}
	}
	for _, kv := range o.Set {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", kv)
		}
		var v any
		if err := yaml.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("invalid --set %s: %w", name, err)
		}
		raw[name] = v
	}
	return harness.DecodeBindings(raw)
}
