package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/stencil/internal/codegen"
	"github.com/roach88/stencil/internal/harness"
	"github.com/roach88/stencil/internal/loader"
)

// GenOptions holds flags for the gen command.
type GenOptions struct {
	*RootOptions
	Package string
	Output  string // output file, stdout when empty
	Filter  string
}

// GenResult is the output of the gen command.
type GenResult struct {
	Package    string   `json:"package"`
	Output     string   `json:"output,omitempty"`
	Statements []string `json:"statements"`
	Source     string   `json:"source,omitempty"` // set when writing to stdout
}

// NewGenCommand creates the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "gen <scenarios-dir>",
		Short: "Generate Go constants from render scenarios",
		Long: `Render every scenario that does not expect an error and emit a Go
file with one string constant per statement and a <Name>Params slice
listing its parameters in binding order.

Examples:
  stencil gen ./scenarios --package queries -o internal/queries/queries_gen.go
  stencil gen ./scenarios --filter "users_*"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Package, "package", "queries", "Go package name of the generated file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the name")

	return cmd
}

func runGen(opts *GenOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, err)
	}
	scenarios, err = filterScenarios(scenarios, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err)
	}

	hopts := []harness.Option{harness.WithLogger(opts.Logger())}
	if opts.Entities != "" {
		set, err := loader.LoadDir(opts.Entities)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("failed to load entities: %w", err))
		}
		hopts = append(hopts, harness.WithEntities(set))
	}
	h := harness.New(hopts...)

	var stmts []codegen.Statement
	for _, s := range scenarios {
		if s.Expect.Error != "" {
			opts.Logger().Debug("skipping error scenario", "scenario", s.Name)
			continue
		}
		d, rendered, err := h.Render(cmd.Context(), s)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		stmts = append(stmts, codegen.FromRendered(s.Name, d, s.Template, rendered))
	}

	src, err := codegen.Emit(opts.Package, stmts)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	result := GenResult{Package: opts.Package, Output: opts.Output, Statements: make([]string, len(stmts))}
	for i, s := range stmts {
		result.Statements[i] = s.Name
	}

	if opts.Output == "" {
		if f.JSON() {
			result.Source = string(src)
			return f.Success(result, nil)
		}
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	if outDir := filepath.Dir(opts.Output); outDir != "." {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Errorf("failed to create output directory: %w", err))
		}
	}
	if err := os.WriteFile(opts.Output, src, 0644); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Errorf("failed to write output: %w", err))
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Generated %d statement(s) in %s\n", len(stmts), opts.Output)
	})
}
