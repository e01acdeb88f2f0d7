// Package engine drives scheduling cycles over a wired pipeline.
//
// A Scheduler owns the cycle loop for one pipeline:
//
//  1. Ports signal their triggers while nodes run (any goroutine).
//  2. Turn closes the cycle: every trigger is re-armed and the tags
//     recorded during the cycle move to the front of the scheduler queue.
//  3. Next pops tags and resolves them to (source, target) node pairs.
//  4. Dispatch hands each distinct target node to the ReadyQueue, where
//     executors pick it up.
//
// Turn, Next and Dispatch must be called from a single goroutine. The
// ReadyQueue is safe for concurrent use and is the only hand-off point
// between the scheduler and executors.
//
// Cycles are stamped from a logical SeqClock, never from wall-clock time.
// When a Journal is configured, every turnover is persisted with its
// drained batch, so a run can be inspected or compared after the fact.
package engine
