package harness

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Cycles   []CycleTrace
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, c := range e.Cycles {
		fmt.Fprintf(&buf, "  [%d] drained=%v queued=%d", c.Seq, c.Drained, c.Queued)
		if len(c.Dispatched) > 0 {
			fmt.Fprintf(&buf, " dispatched=%v", c.Dispatched)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertDrainCount:
		return assertDrainCount(result.Cycles, a)
	case AssertTagCount:
		return assertTagCount(result.Cycles, a)
	case AssertDispatchOrder:
		return assertDispatchOrder(result.Cycles, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertDrainCount checks the total number of drained tags.
func assertDrainCount(cycles []CycleTrace, a Assertion) error {
	total := 0
	for _, c := range cycles {
		total += len(c.Drained)
	}
	if total != a.Count {
		return &AssertionError{
			Type:     AssertDrainCount,
			Expected: fmt.Sprintf("%d tags drained", a.Count),
			Actual:   fmt.Sprintf("%d tags drained", total),
			Cycles:   cycles,
		}
	}
	return nil
}

// assertTagCount checks how often one tag drained across all cycles.
func assertTagCount(cycles []CycleTrace, a Assertion) error {
	tag := norm.NFC.String(a.Tag)
	count := 0
	for _, c := range cycles {
		for _, d := range c.Drained {
			if d == tag {
				count++
			}
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTagCount,
			Expected: fmt.Sprintf("%s drained %d times", tag, a.Count),
			Actual:   fmt.Sprintf("drained %d times", count),
			Cycles:   cycles,
		}
	}
	return nil
}

// assertDispatchOrder checks that nodes were first dispatched in the given
// order. Other dispatches may be interleaved.
func assertDispatchOrder(cycles []CycleTrace, a Assertion) error {
	positions := make(map[string]int)
	pos := 0
	for _, c := range cycles {
		for _, n := range c.Dispatched {
			pos++
			if _, seen := positions[n]; !seen {
				positions[n] = pos
			}
		}
	}

	nodes := normalizeAll(a.Nodes)
	for _, n := range nodes {
		if _, ok := positions[n]; !ok {
			return &AssertionError{
				Type:     AssertDispatchOrder,
				Expected: fmt.Sprintf("all nodes dispatched: %v", nodes),
				Actual:   fmt.Sprintf("missing node: %s", n),
				Cycles:   cycles,
			}
		}
	}

	for i := 1; i < len(nodes); i++ {
		prev, curr := nodes[i-1], nodes[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertDispatchOrder,
				Expected: fmt.Sprintf("nodes in order: %v", nodes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Cycles: cycles,
			}
		}
	}

	return nil
}
