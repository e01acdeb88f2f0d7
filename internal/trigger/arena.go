package trigger

const (
	chunkBits = 8
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
)

// arena stores update triggers in fixed-size chunks.
//
// Growing the arena appends a new chunk; existing chunks are never copied,
// so a *updateTrigger obtained from at stays valid for the arena's lifetime.
// Not synchronized: the owning UpdateList's mutex covers it.
type arena struct {
	chunks []*[chunkSize]updateTrigger
	n      uint32
}

// alloc appends a trigger and returns its slot index.
func (a *arena) alloc(t updateTrigger) uint32 {
	slot := a.n
	if int(slot>>chunkBits) == len(a.chunks) {
		a.chunks = append(a.chunks, new([chunkSize]updateTrigger))
	}
	a.chunks[slot>>chunkBits][slot&chunkMask] = t
	a.n++
	return slot
}

// at returns the trigger stored in slot. The slot must have been allocated.
func (a *arena) at(slot uint32) *updateTrigger {
	return &a.chunks[slot>>chunkBits][slot&chunkMask]
}

// len returns the number of allocated slots.
func (a *arena) len() int {
	return int(a.n)
}

// each calls fn for every allocated trigger in slot order.
func (a *arena) each(fn func(t *updateTrigger)) {
	remaining := int(a.n)
	for _, chunk := range a.chunks {
		limit := chunkSize
		if remaining < limit {
			limit = remaining
		}
		for i := 0; i < limit; i++ {
			fn(&chunk[i])
		}
		remaining -= limit
		if remaining == 0 {
			return
		}
	}
}
