package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/stencil/internal/harness"
	"github.com/roach88/stencil/internal/loader"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update      bool   // regenerate golden files
	Filter      string // scenario filter (glob pattern)
	Golden      string // golden directory, default <scenarios-dir>/golden
	Concurrency int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	SQL    string   `json:"sql,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run render scenarios",
		Long: `Run YAML render scenarios and compare them with golden snapshots.

Each scenario renders one template for one dialect and asserts the SQL,
the parameters or the error. When a golden file exists for the scenario,
its canonical JSON snapshot must match byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unknown dialect, missing entity)

Examples:
  stencil test ./scenarios
  stencil test ./scenarios --filter "users_*"
  stencil test ./scenarios --update
  stencil test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the name")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory (default <scenarios-dir>/golden)")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0, "scenarios to run at once (default GOMAXPROCS)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	w := cmd.OutOrStdout()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("scenarios directory not found: %s", dir))
	}

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	scenarios, err = filterScenarios(scenarios, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err)
	}

	if len(scenarios) == 0 {
		return f.Success(TestResult{Scenarios: []ScenarioResult{}}, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	hopts := []harness.Option{
		harness.WithLogger(opts.Logger()),
		harness.WithConcurrency(opts.Concurrency),
	}
	if opts.Entities != "" {
		set, err := loader.LoadDir(opts.Entities)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("failed to load entities: %w", err))
		}
		hopts = append(hopts, harness.WithEntities(set))
	}

	results, err := harness.RunAll(cmd.Context(), scenarios, hopts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	goldenDir := opts.Golden
	if goldenDir == "" {
		goldenDir = filepath.Join(dir, "golden")
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(results)),
		Total:     len(results),
	}
	for _, r := range results {
		if err := opts.golden(goldenDir, r); err != nil {
			r.AddError(err.Error())
		}

		sr := ScenarioResult{Name: r.Scenario, Pass: r.Pass, SQL: r.SQL, Errors: r.Errors}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}

		if !f.JSON() {
			printScenario(w, sr, opts.Update)
		}
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	if !f.JSON() {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
	return nil
}

func filterScenarios(scenarios []*harness.Scenario, pattern string) ([]*harness.Scenario, error) {
	if pattern == "" {
		return scenarios, nil
	}
	var out []*harness.Scenario
	for _, s := range scenarios {
		matched, err := filepath.Match(pattern, s.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, s)
		}
	}
	return out, nil
}

// golden writes or compares the snapshot for r. A missing golden file is
// not an error; the scenario's own assertions still apply.
func (o *TestOptions) golden(dir string, r *harness.Result) error {
	path := filepath.Join(dir, r.Scenario+".golden")
	current, err := harness.MarshalSnapshot(harness.SnapshotOf(r))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if o.Update {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, current, 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		o.Logger().Debug("golden updated", "scenario", r.Scenario, "path", path)
		return nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, current) {
		return fmt.Errorf("snapshot does not match %s (run with --update to regenerate)", path)
	}
	return nil
}

func printScenario(w io.Writer, sr ScenarioResult, updated bool) {
	switch {
	case sr.Pass && updated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	case sr.Pass:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
