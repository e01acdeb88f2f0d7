package engine

// QuotaEnforcer counts cycle turnovers for one run and enforces a maximum.
//
// A scheduler driven by a feedback loop (a node whose output re-triggers
// its own input through a cycle in the graph) can turn forever. The quota
// bounds that. A limit of 0 or less disables enforcement.
type QuotaEnforcer struct {
	maxCycles int
	current   int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxCycles int) *QuotaEnforcer {
	return &QuotaEnforcer{maxCycles: maxCycles}
}

// Check counts one more cycle and validates it against the limit.
//
// Returns a RuntimeError with ErrCodeQuotaExceeded once the limit is
// passed. The rejected cycle is not counted, so every later call fails
// the same way.
func (q *QuotaEnforcer) Check(runID string) error {
	if q.maxCycles > 0 && q.current >= q.maxCycles {
		return NewQuotaError(runID, q.current+1, q.maxCycles)
	}
	q.current++
	return nil
}

// Reset resets the cycle counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the number of cycles counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxCycles returns the limit; 0 means unlimited.
func (q *QuotaEnforcer) MaxCycles() int {
	return q.maxCycles
}
