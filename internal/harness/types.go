package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Dialect is the canonical dialect name.
	Dialect string `json:"dialect"`

	// Pass indicates overall success: every expectation matched.
	Pass bool `json:"pass"`

	// SQL is the rendered statement, empty when rendering failed.
	SQL string `json:"sql,omitempty"`

	// Params are the rendered parameters by name.
	Params map[string]any `json:"params,omitempty"`

	// Names are the parameter names in first-appearance order.
	Names []string `json:"names,omitempty"`

	// Args are the driver arguments in order.
	Args []any `json:"args,omitempty"`

	// Error is the render error message, if rendering failed.
	Error string `json:"error,omitempty"`

	// Code is the stable code of the render error, if it has one.
	Code string `json:"code,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario, dialect string) *Result {
	return &Result{
		Scenario: scenario,
		Dialect:  dialect,
		Pass:     true,
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
