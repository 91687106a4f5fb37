package harness

// StepResult is the observed outcome of one step.
type StepResult struct {
	Args   []string `json:"args"`
	Stdin  string   `json:"stdin,omitempty"`
	Output string   `json:"output"`
	Exit   int      `json:"exit"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step exited as expected and
	// every assertion held.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed step, in order.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
