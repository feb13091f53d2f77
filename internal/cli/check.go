package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stencil/internal/sqlcheck"
)

// CheckResult is the output of the check command.
type CheckResult struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Valid   bool   `json:"valid"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [template]",
		Short: "Render a template and check the statement offline",
		Long: `Render a template and hand the statement to an offline checker.

SQLite statements are prepared against an in-memory database holding the
entity's table. MySQL statements are parsed with the TiDB parser. Other
dialects have no checker.

Exit codes:
  0 - Statement accepted
  1 - Render error or statement rejected
  2 - Command error (no checker for the dialect, unreadable files)

Examples:
  stencil check -d sqlite --entities ./entities --entity User \
    'UPDATE {{table}} SET {{set --exclude id}} {{where --key id}}'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	addRenderFlags(cmd, opts)
	return cmd
}

func runCheck(opts *RenderOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	in, err := opts.input(args, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	check, ok := sqlcheck.For(in.dialect)
	if !ok {
		return f.Fail(ExitCommandError, ErrCodeUsage,
			fmt.Errorf("no offline checker for dialect %s (have sqlite, mysql)", in.dialect.Name))
	}

	rendered, err := renderStatement(opts.RootOptions, in)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	if err := check(cmd.Context(), in.table, rendered.SQL); err != nil {
		opts.Logger().Debug("statement rejected", "dialect", in.dialect.Name, "error", err)
		return f.Fail(ExitFailure, ErrCodeCheckFailed, err)
	}

	result := CheckResult{Dialect: in.dialect.Name, SQL: rendered.SQL, Valid: true}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.SQL)
		fmt.Fprintf(w, "✓ accepted by %s checker\n", result.Dialect)
	})
}
