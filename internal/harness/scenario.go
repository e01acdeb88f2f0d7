package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/portsched/internal/trigger"
)

// Scenario defines a scheduler scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Topology is a path to a .cue file or directory, relative to the
	// scenario file, or inline CUE. Text containing a newline or "{" is
	// treated as inline CUE.
	Topology string `yaml:"topology"`

	// RunID is the fixed run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// MaxCycles bounds the run. 0 uses the scheduler default.
	MaxCycles int `yaml:"max_cycles,omitempty"`

	// Cycles are executed in order, one scheduler turn each.
	Cycles []Cycle `yaml:"cycles"`

	// Assertions validate the whole trace after the last cycle.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Cycle is one scheduling cycle.
type Cycle struct {
	// Signals fire before the turn, in order.
	Signals []Signal `yaml:"signals,omitempty"`

	// Detach lists edges ("a->b") removed after the signals, before the turn.
	Detach []string `yaml:"detach,omitempty"`

	// Expect is the drained batch in queue order, head first. An omitted
	// expect means the cycle must drain nothing.
	Expect []string `yaml:"expect,omitempty"`

	// Dispatch drains the scheduler queue into the ready queue after the turn.
	Dispatch bool `yaml:"dispatch,omitempty"`

	// Ready is the expected dispatch order, checked when Dispatch is set.
	Ready []string `yaml:"ready,omitempty"`
}

// Signal fires one port of an edge.
type Signal struct {
	// Edge is "from->to".
	Edge string `yaml:"edge"`

	// Port is "output" (the producer pushed) or "input" (the consumer pulled).
	Port string `yaml:"port"`

	// Repeat fires the port this many times. 0 means once.
	Repeat int `yaml:"repeat,omitempty"`
}

// Port names.
const (
	PortOutput = "output"
	PortInput  = "input"
)

// Assertion validates the complete trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "drain_count": total tags drained equals Count
	// - "tag_count": Tag drained exactly Count times
	// - "dispatch_order": Nodes were dispatched in this relative order
	Type string `yaml:"type"`

	// Tag is the tag to count (used by tag_count).
	Tag string `yaml:"tag,omitempty"`

	// Count is the expected number (used by drain_count and tag_count).
	Count int `yaml:"count,omitempty"`

	// Nodes is the expected order (used by dispatch_order).
	Nodes []string `yaml:"nodes,omitempty"`
}

// Assertion type constants.
const (
	AssertDrainCount    = "drain_count"
	AssertTagCount      = "tag_count"
	AssertDispatchOrder = "dispatch_order"
)

// LoadScenario reads and parses a scenario YAML file. A topology path is
// resolved relative to the scenario file.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. baseDir anchors a relative topology
// path; pass "" to leave it unchanged.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if !IsInlineTopology(scenario.Topology) && baseDir != "" && scenario.Topology != "" &&
		!filepath.IsAbs(scenario.Topology) {
		scenario.Topology = filepath.Join(baseDir, scenario.Topology)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// IsInlineTopology reports whether a scenario's topology field holds CUE
// source rather than a path.
func IsInlineTopology(topology string) bool {
	return strings.ContainsAny(topology, "{\n")
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Topology == "" {
		return fmt.Errorf("topology is required")
	}

	if !IsInlineTopology(s.Topology) {
		if _, err := os.Stat(s.Topology); os.IsNotExist(err) {
			return fmt.Errorf("topology not found: %s", s.Topology)
		}
	}

	if len(s.Cycles) == 0 {
		return fmt.Errorf("cycles list is required and must be non-empty")
	}

	if s.MaxCycles < 0 {
		return fmt.Errorf("max_cycles must be non-negative")
	}

	for i, c := range s.Cycles {
		for j, sig := range c.Signals {
			if _, _, err := splitEdgeRef(sig.Edge); err != nil {
				return fmt.Errorf("cycles[%d].signals[%d]: %w", i, j, err)
			}
			if sig.Port != PortOutput && sig.Port != PortInput {
				return fmt.Errorf("cycles[%d].signals[%d]: port must be %q or %q, got %q",
					i, j, PortOutput, PortInput, sig.Port)
			}
			if sig.Repeat < 0 {
				return fmt.Errorf("cycles[%d].signals[%d]: repeat must be non-negative", i, j)
			}
		}
		for j, ref := range c.Detach {
			if _, _, err := splitEdgeRef(ref); err != nil {
				return fmt.Errorf("cycles[%d].detach[%d]: %w", i, j, err)
			}
		}
		for j, tag := range c.Expect {
			if err := validateTag(tag); err != nil {
				return fmt.Errorf("cycles[%d].expect[%d]: %w", i, j, err)
			}
		}
		if len(c.Ready) > 0 && !c.Dispatch {
			return fmt.Errorf("cycles[%d]: ready requires dispatch", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDrainCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for drain_count", index)
		}
	case AssertTagCount:
		if err := validateTag(a.Tag); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for tag_count", index)
		}
	case AssertDispatchOrder:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for dispatch_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// splitEdgeRef splits "from->to".
func splitEdgeRef(ref string) (string, string, error) {
	from, to, ok := strings.Cut(ref, "->")
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("edge %q must be written as from->to", ref)
	}
	return from, to, nil
}

func validateTag(tag string) error {
	i := strings.LastIndex(tag, ":")
	if i <= 0 {
		return fmt.Errorf("tag %q must be written as edge:direction", tag)
	}
	if _, err := trigger.ParseDirection(tag[i+1:]); err != nil {
		return fmt.Errorf("tag %q: %w", tag, err)
	}
	return nil
}
