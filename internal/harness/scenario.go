package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one render case: a template rendered for one entity in one
// dialect with fixed bindings, and the outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect is a dialect name or alias ("postgres", "mssql", ...).
	Dialect string `yaml:"dialect"`

	// Entities is a CUE/YAML entity file or directory, relative to the
	// scenario file. It may be left empty when entities are supplied with
	// WithEntities.
	Entities string `yaml:"entities,omitempty"`

	// Entity names the entity whose table the template is rendered
	// against. Empty renders against a table with no columns.
	Entity string `yaml:"entity,omitempty"`

	// Template is the SQL template text.
	Template string `yaml:"template"`

	// Bindings are the render-time values. Map values are predicate trees,
	// see DecodeBindings.
	Bindings map[string]any `yaml:"bindings,omitempty"`

	// Check also runs the dialect's offline SQL checker, when it has one.
	Check bool `yaml:"check,omitempty"`

	// Expect is the required outcome.
	Expect Expect `yaml:"expect"`

	// path is the file the scenario was loaded from.
	path string
}

// Expect is the outcome of a scenario. Either Error or SQL is set.
type Expect struct {
	// SQL is the exact rendered text. Surrounding whitespace is ignored.
	SQL string `yaml:"sql,omitempty"`

	// Params is the full parameter map. Nil skips the comparison; an empty
	// map requires no parameters.
	Params map[string]any `yaml:"params,omitempty"`

	// Args are the driver arguments in order, for positional dialects.
	Args []any `yaml:"args,omitempty"`

	// Error is an error code ("E205") or a substring of the error message.
	Error string `yaml:"error,omitempty"`
}

// Path returns the file the scenario was loaded from, if any.
func (s *Scenario) Path() string { return s.path }

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenario reads and parses a scenario YAML file. The entities path is
// resolved relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the entities path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if scenario.Entities != "" && !filepath.IsAbs(scenario.Entities) && basePath != "" {
		scenario.Entities = filepath.Join(basePath, scenario.Entities)
	}
	scenario.path = path
	return scenario, nil
}

// LoadScenarios loads every *.yaml / *.yml scenario directly in dir, in
// name order. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Dialect == "" {
		return fmt.Errorf("dialect is required")
	}
	if s.Template == "" {
		return fmt.Errorf("template is required")
	}
	if s.Expect.Error != "" && (s.Expect.SQL != "" || s.Expect.Params != nil || s.Expect.Args != nil) {
		return fmt.Errorf("expect.error cannot be combined with sql, params or args")
	}
	if s.Expect.Error == "" && s.Expect.SQL == "" {
		return fmt.Errorf("expect needs sql or error")
	}
	if s.Entity == "" && s.Entities != "" {
		return fmt.Errorf("entities given without entity")
	}
	return nil
}
