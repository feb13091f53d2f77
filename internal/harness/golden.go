package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the golden form of a render: the statement and its
// parameters, or the error it produced.
type Snapshot struct {
	Scenario string
	Dialect  string
	SQL      string
	Params   map[string]any
	Code     string
	Error    string
}

// SnapshotOf builds the snapshot of a result.
func SnapshotOf(r *Result) Snapshot {
	return Snapshot{
		Scenario: r.Scenario,
		Dialect:  r.Dialect,
		SQL:      r.SQL,
		Params:   r.Params,
		Code:     r.Code,
		Error:    r.Error,
	}
}

// toCanonicalMap converts a snapshot to a map for canonical JSON.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario": s.Scenario,
		"dialect":  s.Dialect,
	}
	if s.Error != "" {
		m["error"] = s.Error
		if s.Code != "" {
			m["code"] = s.Code
		}
		return m
	}
	params := make(map[string]any, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	m["sql"] = s.SQL
	m["params"] = params
	return m
}

// MarshalSnapshot returns the canonical JSON of s with a trailing newline.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := MarshalCanonical(s.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. Expectation failures are
// reported on t as well.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	if err := AssertGolden(t, scenario.Name, SnapshotOf(result)); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a snapshot against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, s Snapshot) error {
	t.Helper()

	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
