package harness

// CycleTrace is what one cycle did.
type CycleTrace struct {
	Seq        int64    `json:"seq"`
	Drained    []string `json:"drained"`
	Queued     int      `json:"queued"`
	Dispatched []string `json:"dispatched,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every cycle expectation and assertion held.
	Pass bool `json:"pass"`

	// RunID is the scheduler run the trace belongs to.
	RunID string `json:"run_id"`

	// Cycles holds one entry per executed cycle.
	Cycles []CycleTrace `json:"cycles"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Cycles: []CycleTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCycle appends a cycle to the trace.
func (r *Result) AddCycle(c CycleTrace) {
	r.Cycles = append(r.Cycles, c)
}
