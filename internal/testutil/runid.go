package testutil

// FixedRunID returns the same run ID every time.
//
// Golden traces embed the run ID, so scenarios pin it:
//
//	run_id: "chain-basic"
//
// If id is empty, Generate returns "test-run-default".
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run-ID generator.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID. Implements engine.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
