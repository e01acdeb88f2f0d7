package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/trigger"
)

// ErrRunNotFound is returned when a run id has no journal entry.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, node_count, edge_count, trigger_count
		FROM runs
		WHERE id = ?
	`, runID).Scan(&run.ID, &run.Name, &run.Nodes, &run.Edges, &run.Triggers)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by id.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, node_count, edge_count, trigger_count
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Name, &run.Nodes, &run.Edges, &run.Triggers); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCycles returns every cycle of a run with its tags, ordered by seq
// and queue position. Returns an empty slice (not nil) when the run has no
// cycles.
func (s *Store) ReadCycles(ctx context.Context, runID string) ([]CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, drained, triggers, queued
		FROM cycles
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}

	cycles := []CycleRecord{}
	index := make(map[int64]int)
	for rows.Next() {
		rec := CycleRecord{RunID: runID, Tags: []TagRecord{}}
		if err := rows.Scan(&rec.Seq, &rec.Drained, &rec.Triggers, &rec.Queued); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		index[rec.Seq] = len(cycles)
		cycles = append(cycles, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	rows.Close()

	if len(cycles) == 0 {
		return cycles, nil
	}

	tagRows, err := s.db.QueryContext(ctx, `
		SELECT seq, position, edge, direction, source_node, target_node
		FROM cycle_tags
		WHERE run_id = ?
		ORDER BY seq ASC, position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cycle tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			seq       int64
			edge      int64
			direction string
			source    sql.NullInt64
			target    sql.NullInt64
			tag       TagRecord
		)
		if err := tagRows.Scan(&seq, &tag.Position, &edge, &direction, &source, &target); err != nil {
			return nil, fmt.Errorf("scan cycle tag: %w", err)
		}
		dir, err := trigger.ParseDirection(direction)
		if err != nil {
			return nil, fmt.Errorf("scan cycle tag: %w", err)
		}
		tag.Tag = trigger.DirectedEdge{Edge: graph.EdgeIndex(edge), Direction: dir}
		if source.Valid && target.Valid {
			tag.Resolved = true
			tag.Source = graph.NodeIndex(source.Int64)
			tag.Target = graph.NodeIndex(target.Int64)
		}

		i, ok := index[seq]
		if !ok {
			return nil, fmt.Errorf("cycle tag references unknown cycle %d", seq)
		}
		cycles[i].Tags = append(cycles[i].Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle tags: %w", err)
	}

	return cycles, nil
}
