// Package store provides the SQLite-backed cycle journal.
//
// The journal is append-only and records, per scheduler run:
//   - Runs: one row per scheduler instance (run id, topology size)
//   - Cycles: one row per RollCycle turnover (logical seq, counts)
//   - Cycle tags: every tag drained in that turnover, in queue order, with
//     the nodes it resolved to at drain time
//
// # Ordering
//
// All ordering uses the logical cycle seq and the tag's queue position,
// never wall-clock time, so two runs of the same scenario produce identical
// journals. Reads use ORDER BY seq ASC, position ASC.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: re-journaling the same (run, seq) is a
// no-op rather than an error.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
