package harness

import (
	"context"
	"fmt"
	"strings"
)

// Summary aggregates the results of a scenario run.
type Summary struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failure is one failed scenario.
type Failure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path,omitempty"`
	Errors   []string `json:"errors"`
}

// OK reports whether every scenario passed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// String renders a one-line summary.
func (s *Summary) String() string {
	return fmt.Sprintf("%d scenarios, %d passed, %d failed", s.Total, s.Passed, s.Failed)
}

// Summarize pairs scenarios with their results.
func Summarize(scenarios []*Scenario, results []*Result) *Summary {
	sum := &Summary{Total: len(results)}
	for i, r := range results {
		if r.Pass {
			sum.Passed++
			continue
		}
		sum.Failed++
		f := Failure{Scenario: r.Scenario, Errors: r.Errors}
		if i < len(scenarios) {
			f.Path = scenarios[i].Path()
		}
		sum.Failures = append(sum.Failures, f)
	}
	return sum
}

// RunDir loads every scenario in dir, runs them concurrently and
// summarizes the outcome.
func RunDir(ctx context.Context, dir string, opts ...Option) (*Summary, []*Result, error) {
	scenarios, err := LoadScenarios(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(scenarios) == 0 {
		return nil, nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	results, err := RunAll(ctx, scenarios, opts...)
	if err != nil {
		return nil, nil, err
	}
	return Summarize(scenarios, results), results, nil
}

// Report renders failures for humans.
func (s *Summary) Report() string {
	var buf strings.Builder
	for _, f := range s.Failures {
		fmt.Fprintf(&buf, "FAIL %s", f.Scenario)
		if f.Path != "" {
			fmt.Fprintf(&buf, " (%s)", f.Path)
		}
		buf.WriteByte('\n')
		for _, e := range f.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(&buf, "    %s\n", line)
			}
		}
	}
	buf.WriteString(s.String())
	buf.WriteByte('\n')
	return buf.String()
}
