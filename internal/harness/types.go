package harness

// CaseResult records what one case compiled to and returned.
type CaseResult struct {
	// Name is the case name.
	Name string `json:"name"`

	// Entity is the root entity of the query.
	Entity string `json:"entity"`

	// SQL and Params are the compiled statement. Both are empty when the
	// query failed to build.
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// IDs are the primary keys of the returned rows, in order.
	IDs []any `json:"ids,omitempty"`

	// ErrorCode is the resolution error code when the query failed to
	// build, and Error its message.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// Warnings are structural warnings reported for the query, such as
	// ordering through a one-to-many join.
	Warnings []string `json:"warnings,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case met its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per case, in scenario order.
	Cases []CaseResult `json:"cases"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds an assertion error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase appends a case result.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
}
