package store

import (
	"context"
	"fmt"

	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/trigger"
)

// Run describes one scheduler instance.
type Run struct {
	ID       string
	Name     string
	Nodes    int
	Edges    int
	Triggers int
}

// TagRecord is one drained tag, with the nodes it resolved to when the
// cycle was journaled. Resolved is false when the edge had been removed.
type TagRecord struct {
	Position int
	Tag      trigger.DirectedEdge
	Source   graph.NodeIndex
	Target   graph.NodeIndex
	Resolved bool
}

// CycleRecord is one cycle turnover.
type CycleRecord struct {
	RunID    string
	Seq      int64
	Drained  int
	Triggers int
	// Queued is the scheduler queue length right after the turnover.
	Queued int
	Tags   []TagRecord
}

// WriteRun inserts a run. Duplicate IDs are ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, node_count, edge_count, trigger_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Name, run.Nodes, run.Edges, run.Triggers)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteCycle inserts a cycle and its tags in one transaction.
// Re-writing an existing (run, seq) is a no-op.
//
// The run must already exist (foreign key constraint).
func (s *Store) WriteCycle(ctx context.Context, rec CycleRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write cycle: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO cycles (run_id, seq, drained, triggers, queued)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, rec.RunID, rec.Seq, rec.Drained, rec.Triggers, rec.Queued)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write cycle: rows affected: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	for _, tag := range rec.Tags {
		var source, target any
		if tag.Resolved {
			source = int64(tag.Source)
			target = int64(tag.Target)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cycle_tags (run_id, seq, position, edge, direction, source_node, target_node)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, rec.RunID, rec.Seq, tag.Position, int64(tag.Tag.Edge), tag.Tag.Direction.String(), source, target)
		if err != nil {
			return fmt.Errorf("write cycle tag %d: %w", tag.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write cycle: commit: %w", err)
	}
	return nil
}
