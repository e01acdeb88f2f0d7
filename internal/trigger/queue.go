package trigger

const minQueueCapacity = 16

// EdgeQueue is a double-ended queue of DirectedEdge tags backed by a ring
// buffer. It is the destination of UpdateList.RollCycle.
//
// EdgeQueue is not synchronized; it belongs to the scheduler goroutine.
type EdgeQueue struct {
	buf  []DirectedEdge
	head int
	n    int
}

// NewEdgeQueue creates a queue with room for capacity tags before growing.
func NewEdgeQueue(capacity int) *EdgeQueue {
	if capacity < minQueueCapacity {
		capacity = minQueueCapacity
	}
	return &EdgeQueue{buf: make([]DirectedEdge, capacity)}
}

// Len returns the number of queued tags.
func (q *EdgeQueue) Len() int {
	return q.n
}

// PushFront inserts a tag at the head.
func (q *EdgeQueue) PushFront(e DirectedEdge) {
	q.grow()
	q.head = (q.head - 1 + len(q.buf)) % len(q.buf)
	q.buf[q.head] = e
	q.n++
}

// PushBack appends a tag at the tail.
func (q *EdgeQueue) PushBack(e DirectedEdge) {
	q.grow()
	q.buf[(q.head+q.n)%len(q.buf)] = e
	q.n++
}

// PopFront removes and returns the head tag.
func (q *EdgeQueue) PopFront() (DirectedEdge, bool) {
	if q.n == 0 {
		return DirectedEdge{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = DirectedEdge{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	if q.n == 0 {
		q.head = 0
	}
	return e, true
}

// PeekFront returns the head tag without removing it.
func (q *EdgeQueue) PeekFront() (DirectedEdge, bool) {
	if q.n == 0 {
		return DirectedEdge{}, false
	}
	return q.buf[q.head], true
}

// Slice returns a copy of the queue contents, head first.
func (q *EdgeQueue) Slice() []DirectedEdge {
	out := make([]DirectedEdge, q.n)
	for i := 0; i < q.n; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// Reset empties the queue, keeping its storage.
func (q *EdgeQueue) Reset() {
	clear(q.buf)
	q.head = 0
	q.n = 0
}

func (q *EdgeQueue) grow() {
	if q.buf == nil {
		q.buf = make([]DirectedEdge, minQueueCapacity)
		return
	}
	if q.n < len(q.buf) {
		return
	}
	next := make([]DirectedEdge, len(q.buf)*2)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
