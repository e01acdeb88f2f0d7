package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("portsched.engine")
	meter  = otel.Meter("portsched.engine")
)

var (
	turnLatency     metric.Float64Histogram
	cyclesTotal     metric.Int64Counter
	dirtyPerCycle   metric.Int64Histogram
	dispatchedTotal metric.Int64Counter
	skippedTotal    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		turnLatency, err = meter.Float64Histogram(
			"portsched_turn_duration_seconds",
			metric.WithDescription("Duration of cycle turnovers"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cyclesTotal, err = meter.Int64Counter(
			"portsched_cycles_total",
			metric.WithDescription("Total number of completed scheduling cycles"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		dirtyPerCycle, err = meter.Int64Histogram(
			"portsched_dirty_edges",
			metric.WithDescription("Number of tags drained per cycle"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		dispatchedTotal, err = meter.Int64Counter(
			"portsched_dispatched_nodes_total",
			metric.WithDescription("Total nodes handed to the ready queue"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		skippedTotal, err = meter.Int64Counter(
			"portsched_skipped_tags_total",
			metric.WithDescription("Total tags dropped because their edge was removed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startTurnSpan creates a span for one cycle turnover.
func startTurnSpan(ctx context.Context, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Scheduler.Turn",
		trace.WithAttributes(
			attribute.String("portsched.run_id", runID),
		),
	)
}

// setTurnSpanResult sets the result attributes on a turn span.
func setTurnSpanResult(span trace.Span, report CycleReport) {
	span.SetAttributes(
		attribute.Int64("portsched.cycle", report.Seq),
		attribute.Int("portsched.drained", report.Drained),
		attribute.Int("portsched.queued", report.Queued),
	)
}

func recordTurnMetrics(ctx context.Context, runID string, duration time.Duration, drained int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("run_id", runID))
	turnLatency.Record(ctx, duration.Seconds(), attrs)
	cyclesTotal.Add(ctx, 1, attrs)
	dirtyPerCycle.Record(ctx, int64(drained), attrs)
}

func recordDispatchMetrics(ctx context.Context, runID string, dispatched, skipped int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("run_id", runID))
	dispatchedTotal.Add(ctx, int64(dispatched), attrs)
	if skipped > 0 {
		skippedTotal.Add(ctx, int64(skipped), attrs)
	}
}
