// Package trigger implements the edge-triggering substrate that feeds the
// pipeline scheduler.
//
// Every port wired into the execution graph owns a Handle to an update
// trigger. Ports call SignalInputConsumed or SignalOutputProduced on every
// unit of data they move; the trigger collapses all of those calls within one
// scheduling cycle into a single DirectedEdge recorded on the shared
// UpdateList. At the cycle boundary the scheduler calls RollCycle, which
// re-arms every trigger and moves the recorded tags into its EdgeQueue.
//
// ARCHITECTURE:
//
// Two-phase lifecycle:
//
//	Builder.RegisterTrigger ... Builder.Build  ->  *UpdateList (run phase)
//
// Triggers can only be created through the Builder. Once Build returns, the
// builder is sealed and further registration fails, so no trigger creation
// can race with trigger use.
//
// Stable handles:
// Trigger state lives in a chunked arena that never moves an allocated slot.
// A Handle is the pair (list, slot index); the zero Handle is the null handle
// and every signal through it is a no-op.
//
// Synchronization:
// One mutex on the UpdateList guards the recorded tags and every trigger's
// version pair. Signals, Record and RollCycle all take it, so callers on any
// goroutine may use them without further coordination. The critical section
// is a compare, an increment and at most one append.
//
// Debounce:
// A trigger is armed while version == prevVersion. The first signal in a
// cycle bumps version and records a tag; later signals in the same cycle see
// the trigger disarmed and return. RollCycle sets prevVersion = version.
//
// Drain order:
// RollCycle places the cycle's tags at the front of the output queue, most
// recently recorded first, ahead of anything already queued. This ordering is
// a fixed contract relied on by the scheduler.
package trigger
