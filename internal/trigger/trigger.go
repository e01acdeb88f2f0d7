package trigger

import "github.com/roach88/portsched/internal/graph"

// updateTrigger is the per-(edge, port) debounce state.
//
// INVARIANT: version >= prevVersion, and version-prevVersion is 0 or 1.
// The trigger is armed exactly when version == prevVersion.
type updateTrigger struct {
	edge        graph.EdgeIndex
	version     uint64
	prevVersion uint64
}

func (t *updateTrigger) armed() bool {
	return t.version == t.prevVersion
}

// fire disarms the trigger and reports whether this call was the first of
// the cycle.
func (t *updateTrigger) fire() bool {
	if !t.armed() {
		return false
	}
	t.version++
	return true
}

// advance re-arms the trigger for the next cycle.
func (t *updateTrigger) advance() {
	t.prevVersion = t.version
}

// Handle is a port's reference to its update trigger.
//
// Handles are plain values: copy them freely. The zero Handle is the null
// handle, used by ports that have no registered trigger; signalling through
// it does nothing.
type Handle struct {
	list *UpdateList
	slot uint32
}

// Valid reports whether h refers to a registered trigger.
func (h Handle) Valid() bool {
	return h.list != nil
}

// SignalInputConsumed notifies that the input side of the edge changed,
// e.g. data was pulled and upstream may have capacity again.
// Emits a DirectionTarget tag at most once per cycle.
func (h Handle) SignalInputConsumed() {
	if h.list == nil {
		return
	}
	h.list.signal(h.slot, DirectionTarget)
}

// SignalOutputProduced notifies that the output side of the edge changed,
// e.g. data was pushed and downstream may proceed.
// Emits a DirectionSource tag at most once per cycle.
func (h Handle) SignalOutputProduced() {
	if h.list == nil {
		return
	}
	h.list.signal(h.slot, DirectionSource)
}

// Edge returns the edge the trigger was registered for.
func (h Handle) Edge() (graph.EdgeIndex, bool) {
	if h.list == nil {
		return 0, false
	}
	h.list.mu.Lock()
	defer h.list.mu.Unlock()
	return h.list.triggers.at(h.slot).edge, true
}

// Armed reports whether the next signal through h will be recorded.
// The null handle is never armed.
func (h Handle) Armed() bool {
	if h.list == nil {
		return false
	}
	h.list.mu.Lock()
	defer h.list.mu.Unlock()
	return h.list.triggers.at(h.slot).armed()
}
