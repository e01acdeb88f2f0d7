package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/pipeline"
	"github.com/roach88/portsched/internal/store"
	"github.com/roach88/portsched/internal/trigger"
)

// Journal persists cycle turnovers. Implemented by *store.Store.
type Journal interface {
	WriteRun(ctx context.Context, run store.Run) error
	WriteCycle(ctx context.Context, rec store.CycleRecord) error
}

// DefaultMaxCycles is the default cycle quota per run.
const DefaultMaxCycles = 100000

// CycleReport describes one turnover.
type CycleReport struct {
	// Seq is the logical clock stamp of the turnover.
	Seq int64
	// Cycle is the update list's own 1-based cycle number.
	Cycle    uint64
	Drained  int
	Triggers int
	// Queued is the scheduler queue length after the turnover.
	Queued int
	// Tags is the drained batch in queue order, head first.
	Tags []trigger.DirectedEdge
}

// Schedule is one resolved tag: the node that raised it and the node that
// should be considered for execution.
type Schedule struct {
	Tag    trigger.DirectedEdge
	Source graph.NodeIndex
	Target graph.NodeIndex
}

// Scheduler drives scheduling cycles for one pipeline.
//
// Turn, Next and Dispatch must be called from a single goroutine. Ports may
// signal from any goroutine; ReadyQueue consumers may run anywhere.
type Scheduler struct {
	pipeline *pipeline.Pipeline
	graph    *graph.Graph
	list     *trigger.UpdateList
	queue    *trigger.EdgeQueue
	ready    *ReadyQueue

	clock   SeqClock
	quota   *QuotaEnforcer
	journal Journal
	logger  *slog.Logger

	runID     string
	runIDs    RunIDGenerator
	name      string
	maxCycles int

	runWritten bool
	skipped    int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxCycles sets the cycle quota. 0 disables it.
//
// Default: DefaultMaxCycles.
func WithMaxCycles(n int) SchedulerOption {
	return func(s *Scheduler) {
		s.maxCycles = n
	}
}

// WithJournal persists every turnover to j.
func WithJournal(j Journal) SchedulerOption {
	return func(s *Scheduler) {
		s.journal = j
	}
}

// WithClock replaces the logical cycle clock.
func WithClock(c SeqClock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) SchedulerOption {
	return func(s *Scheduler) {
		s.runID = id
	}
}

// WithRunIDGenerator sets the generator used when no run ID is fixed.
func WithRunIDGenerator(gen RunIDGenerator) SchedulerOption {
	return func(s *Scheduler) {
		s.runIDs = gen
	}
}

// WithName labels the run in the journal.
func WithName(name string) SchedulerOption {
	return func(s *Scheduler) {
		s.name = name
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithReadyQueue hands dispatched nodes to q instead of a private queue.
func WithReadyQueue(q *ReadyQueue) SchedulerOption {
	return func(s *Scheduler) {
		s.ready = q
	}
}

// New creates a Scheduler for p.
func New(p *pipeline.Pipeline, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pipeline:  p,
		graph:     p.Graph(),
		list:      p.Updates(),
		maxCycles: DefaultMaxCycles,
		runIDs:    UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.clock == nil {
		s.clock = NewClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ready == nil {
		s.ready = NewReadyQueue()
	}
	if s.runID == "" {
		s.runID = s.runIDs.Generate()
	}
	s.queue = trigger.NewEdgeQueue(s.list.TriggerCount())
	s.quota = NewQuotaEnforcer(s.maxCycles)

	return s
}

// RunID returns the run identifier.
func (s *Scheduler) RunID() string {
	return s.runID
}

// Ready returns the queue executors consume from.
func (s *Scheduler) Ready() *ReadyQueue {
	return s.ready
}

// Pipeline returns the driven pipeline.
func (s *Scheduler) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Queued returns the number of tags waiting in the scheduler queue.
func (s *Scheduler) Queued() int {
	return s.queue.Len()
}

// Seed puts a tag at the back of the scheduler queue without going through
// a trigger. Used to schedule work that is not caused by a port signal.
func (s *Scheduler) Seed(tag trigger.DirectedEdge) {
	s.queue.PushBack(tag)
}

// Turn closes the current cycle.
//
// Every trigger is re-armed and the tags recorded during the cycle are
// moved ahead of whatever is still queued. The turnover is stamped from
// the logical clock and, with a journal configured, persisted.
//
// Turn fails with a quota error once the run has used its cycle budget; in
// that case nothing is rolled. A journal failure is returned alongside the
// report, since the turnover itself has already happened.
func (s *Scheduler) Turn(ctx context.Context) (CycleReport, error) {
	if err := ctx.Err(); err != nil {
		return CycleReport{}, err
	}

	if err := s.quota.Check(s.runID); err != nil {
		s.logger.Error("cycle quota exceeded",
			"run_id", s.runID,
			"cycles", s.quota.Current(),
			"limit", s.quota.MaxCycles(),
			"event", "quota_exceeded",
		)
		return CycleReport{}, fmt.Errorf("turn: %w", err)
	}

	ctx, span := startTurnSpan(ctx, s.runID)
	defer span.End()
	start := time.Now()

	if err := s.writeRun(ctx); err != nil {
		span.RecordError(err)
		return CycleReport{}, err
	}

	stats := s.list.RollCycle(s.queue)
	seq := s.clock.Next()

	report := CycleReport{
		Seq:      seq,
		Cycle:    stats.Cycle,
		Drained:  stats.Drained,
		Triggers: stats.Triggers,
		Queued:   s.queue.Len(),
		Tags:     s.queue.Slice()[:stats.Drained],
	}

	setTurnSpanResult(span, report)
	recordTurnMetrics(ctx, s.runID, time.Since(start), report.Drained)

	s.logger.Debug("cycle turned",
		"run_id", s.runID,
		"seq", report.Seq,
		"drained", report.Drained,
		"queued", report.Queued,
	)

	if err := s.writeCycle(ctx, report); err != nil {
		span.RecordError(err)
		return report, err
	}

	return report, nil
}

// Next pops the head tag and resolves its endpoints.
//
// Tags whose edge was removed after they were raised are dropped and
// logged. Returns false when the queue is empty.
func (s *Scheduler) Next() (Schedule, bool) {
	for {
		tag, ok := s.queue.PopFront()
		if !ok {
			return Schedule{}, false
		}

		source, okSource := tag.SourceNode(s.graph)
		target, okTarget := tag.TargetNode(s.graph)
		if !okSource || !okTarget {
			s.skipped++
			s.logger.Warn("dropping tag for removed edge",
				"run_id", s.runID,
				"tag", tag.String(),
			)
			continue
		}

		return Schedule{Tag: tag, Source: source, Target: target}, true
	}
}

// Dispatch drains the scheduler queue and hands every distinct target node
// to the ready queue, in first-seen order. Returns the number of nodes
// dispatched.
func (s *Scheduler) Dispatch(ctx context.Context) (int, error) {
	skippedBefore := s.skipped
	seen := make(map[graph.NodeIndex]bool)
	dispatched := 0

	for {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}

		sched, ok := s.Next()
		if !ok {
			break
		}
		if seen[sched.Target] {
			continue
		}
		seen[sched.Target] = true

		if !s.ready.Enqueue(sched.Target) {
			return dispatched, &RuntimeError{
				Code:    ErrCodeReadyClosed,
				Message: fmt.Sprintf("cannot dispatch %s", s.graph.NodeName(sched.Target)),
				RunID:   s.runID,
			}
		}
		dispatched++
	}

	recordDispatchMetrics(ctx, s.runID, dispatched, s.skipped-skippedBefore)
	return dispatched, nil
}

// Close closes the ready queue, releasing any executor blocked on it.
func (s *Scheduler) Close() {
	s.ready.Close()
}

func (s *Scheduler) writeRun(ctx context.Context) error {
	if s.journal == nil || s.runWritten {
		return nil
	}

	run := store.Run{
		ID:       s.runID,
		Name:     s.name,
		Nodes:    s.graph.NodeCount(),
		Edges:    s.graph.EdgeCount(),
		Triggers: s.list.TriggerCount(),
	}
	if err := s.journal.WriteRun(ctx, run); err != nil {
		return newJournalError(s.runID, 0, err)
	}
	s.runWritten = true
	return nil
}

func (s *Scheduler) writeCycle(ctx context.Context, report CycleReport) error {
	if s.journal == nil {
		return nil
	}

	rec := store.CycleRecord{
		RunID:    s.runID,
		Seq:      report.Seq,
		Drained:  report.Drained,
		Triggers: report.Triggers,
		Queued:   report.Queued,
		Tags:     make([]store.TagRecord, len(report.Tags)),
	}
	for i, tag := range report.Tags {
		source, okSource := tag.SourceNode(s.graph)
		target, okTarget := tag.TargetNode(s.graph)
		rec.Tags[i] = store.TagRecord{
			Position: i,
			Tag:      tag,
			Source:   source,
			Target:   target,
			Resolved: okSource && okTarget,
		}
	}

	if err := s.journal.WriteCycle(ctx, rec); err != nil {
		s.logger.Error("journal write failed",
			"run_id", s.runID,
			"seq", report.Seq,
			"error", err,
		)
		return newJournalError(s.runID, report.Seq, err)
	}
	return nil
}
