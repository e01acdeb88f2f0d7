package trigger

import "sync"

// CycleStats summarizes one RollCycle call.
type CycleStats struct {
	// Cycle is the 1-based number of the cycle that was just closed.
	Cycle uint64
	// Drained is the number of tags moved into the output queue.
	Drained int
	// Triggers is the number of triggers that were re-armed.
	Triggers int
}

// UpdateList is the per-graph registry of update triggers plus the tags
// recorded during the current scheduling cycle.
//
// An UpdateList is obtained from Builder.Build. All methods are safe for
// concurrent use.
type UpdateList struct {
	mu       sync.Mutex
	pending  []DirectedEdge
	triggers arena
	cycles   uint64
}

func newUpdateList(capacityHint int) *UpdateList {
	return &UpdateList{
		pending: make([]DirectedEdge, 0, capacityHint),
	}
}

// Record appends a dirty-edge notification for the current cycle.
//
// No deduplication happens here; triggers debounce before calling it.
// Record is also usable directly by code that raises edge events without a
// trigger (e.g. initial scheduling of source nodes).
func (l *UpdateList) Record(tag DirectedEdge) {
	l.mu.Lock()
	l.pending = append(l.pending, tag)
	l.mu.Unlock()
}

// RollCycle closes the current scheduling cycle.
//
// Every registered trigger is re-armed, then every tag recorded since the
// previous RollCycle is moved to the front of out. Within the batch the most
// recently recorded tag ends up closest to the front, and the whole batch
// lands ahead of anything already in out.
func (l *UpdateList) RollCycle(out *EdgeQueue) CycleStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.triggers.each((*updateTrigger).advance)

	// Pushing oldest-first onto the front leaves newest-first at the head.
	for _, tag := range l.pending {
		out.PushFront(tag)
	}
	drained := len(l.pending)

	clear(l.pending)
	l.pending = l.pending[:0]
	l.cycles++

	return CycleStats{
		Cycle:    l.cycles,
		Drained:  drained,
		Triggers: l.triggers.len(),
	}
}

// Pending returns the number of tags recorded in the current cycle.
func (l *UpdateList) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// TriggerCount returns the number of registered triggers.
func (l *UpdateList) TriggerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.triggers.len()
}

// Cycles returns the number of completed RollCycle calls.
func (l *UpdateList) Cycles() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cycles
}

// signal is the shared body of the two Handle signal operations.
func (l *UpdateList) signal(slot uint32, dir Direction) {
	l.mu.Lock()
	t := l.triggers.at(slot)
	if t.fire() {
		l.pending = append(l.pending, DirectedEdge{Edge: t.edge, Direction: dir})
	}
	l.mu.Unlock()
}

// register allocates a trigger for the given edge. Only the Builder calls it.
func (l *UpdateList) register(t updateTrigger) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Handle{list: l, slot: l.triggers.alloc(t)}
}
