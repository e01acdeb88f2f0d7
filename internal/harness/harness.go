package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/portsched/internal/engine"
	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/pipeline"
	"github.com/roach88/portsched/internal/store"
	"github.com/roach88/portsched/internal/testutil"
	"github.com/roach88/portsched/internal/topology"
	"github.com/roach88/portsched/internal/trigger"
)

// Harness executes one scenario against a scheduler.
type Harness struct {
	pipeline  *pipeline.Pipeline
	graph     *graph.Graph
	scheduler *engine.Scheduler
}

// RunOption configures RunWithJournal.
type RunOption func(*runConfig)

type runConfig struct {
	runIDs engine.RunIDGenerator
	logger *slog.Logger
}

// WithRunIDGenerator overrides the run ID source. The default pins the
// scenario's run_id so golden traces stay stable.
func WithRunIDGenerator(gen engine.RunIDGenerator) RunOption {
	return func(c *runConfig) {
		c.runIDs = gen
	}
}

// WithLogger routes scheduler logs to logger. The default discards them.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario against a fresh in-memory journal.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunWithJournal(context.Background(), scenario, st)
}

// RunWithJournal executes a scenario, persisting every cycle to j.
//
// Execution flow, per cycle:
// 1. Fire signals in order
// 2. Detach listed edges
// 3. Turn the scheduler and compare the drained batch with expect
// 4. If dispatch is set, drain into the ready queue and compare with ready
//
// Expectation mismatches are collected in the result; only setup failures
// (bad topology, unknown edges, journal errors) return an error.
func RunWithJournal(ctx context.Context, scenario *Scenario, j engine.Journal, options ...RunOption) (*Result, error) {
	cfg := runConfig{
		runIDs: testutil.NewFixedRunID(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	top, err := loadTopology(scenario.Topology)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}

	p, err := pipeline.Build(top.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to wire pipeline: %w", err)
	}

	opts := []engine.SchedulerOption{
		engine.WithJournal(j),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRunIDGenerator(cfg.runIDs),
		engine.WithLogger(cfg.logger),
		engine.WithName(scenario.Name),
	}
	if scenario.MaxCycles > 0 {
		opts = append(opts, engine.WithMaxCycles(scenario.MaxCycles))
	}

	h := &Harness{
		pipeline:  p,
		graph:     top.Graph,
		scheduler: engine.New(p, opts...),
	}
	defer h.scheduler.Close()

	result := NewResult(h.scheduler.RunID())
	for i, c := range scenario.Cycles {
		trace, err := h.executeCycle(ctx, i, c, result)
		if engine.IsQuotaError(err) {
			result.AddError(fmt.Sprintf("cycle %d: %v", i+1, err))
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", i+1, err)
		}
		result.AddCycle(trace)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) executeCycle(ctx context.Context, index int, c Cycle, result *Result) (CycleTrace, error) {
	for _, sig := range c.Signals {
		e, err := h.resolveEdge(sig.Edge)
		if err != nil {
			return CycleTrace{}, err
		}
		n := max(sig.Repeat, 1)
		for i := 0; i < n; i++ {
			if sig.Port == PortOutput {
				h.pipeline.OutputPort(e).Pushed()
			} else {
				h.pipeline.InputPort(e).Pulled()
			}
		}
	}

	for _, ref := range c.Detach {
		e, err := h.resolveEdge(ref)
		if err != nil {
			return CycleTrace{}, err
		}
		if err := h.pipeline.Detach(e); err != nil {
			return CycleTrace{}, err
		}
	}

	report, err := h.scheduler.Turn(ctx)
	if err != nil {
		return CycleTrace{}, err
	}

	trace := CycleTrace{
		Seq:     report.Seq,
		Drained: make([]string, len(report.Tags)),
		Queued:  report.Queued,
	}
	for i, tag := range report.Tags {
		trace.Drained[i] = h.describeTag(tag)
	}

	expect := normalizeAll(c.Expect)
	if !slices.Equal(trace.Drained, expect) {
		result.AddError(fmt.Sprintf("cycle %d: expected drain %v, got %v", index+1, expect, trace.Drained))
	}

	if c.Dispatch {
		if _, err := h.scheduler.Dispatch(ctx); err != nil {
			return CycleTrace{}, err
		}
		for {
			n, ok := h.scheduler.Ready().TryDequeue()
			if !ok {
				break
			}
			trace.Dispatched = append(trace.Dispatched, h.graph.NodeName(n))
		}

		ready := normalizeAll(c.Ready)
		if !slices.Equal(trace.Dispatched, ready) {
			result.AddError(fmt.Sprintf("cycle %d: expected ready %v, got %v", index+1, ready, trace.Dispatched))
		}
	}

	return trace, nil
}

// resolveEdge looks up a live "from->to" edge.
func (h *Harness) resolveEdge(ref string) (graph.EdgeIndex, error) {
	fromName, toName, err := splitEdgeRef(ref)
	if err != nil {
		return 0, err
	}
	from, ok := h.graph.Lookup(norm.NFC.String(fromName))
	if !ok {
		return 0, fmt.Errorf("edge %q: unknown node %q", ref, fromName)
	}
	to, ok := h.graph.Lookup(norm.NFC.String(toName))
	if !ok {
		return 0, fmt.Errorf("edge %q: unknown node %q", ref, toName)
	}
	e, ok := h.graph.FindEdge(from, to)
	if !ok {
		return 0, fmt.Errorf("edge %q: no such edge", ref)
	}
	return e, nil
}

func (h *Harness) describeTag(tag trigger.DirectedEdge) string {
	return h.graph.DescribeEdge(tag.Edge) + ":" + tag.Direction.String()
}

func loadTopology(src string) (*topology.Topology, error) {
	if IsInlineTopology(src) {
		return topology.CompileString(src)
	}
	return topology.Load(src)
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = norm.NFC.String(s)
	}
	return out
}
