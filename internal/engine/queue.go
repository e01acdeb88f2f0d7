package engine

import (
	"context"
	"sync"

	"github.com/roach88/portsched/internal/graph"
)

// ReadyQueue is a thread-safe FIFO of nodes that are ready to run.
//
// The scheduler goroutine enqueues through Dispatch; executors dequeue from
// any goroutine. The queue is unbounded so a large drained batch never
// blocks the scheduler.
//
// The queue uses a channel for signaling so waiters can also select on a
// context.
type ReadyQueue struct {
	mu     sync.Mutex
	nodes  []graph.NodeIndex
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewReadyQueue creates an empty ready queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{
		nodes:  make([]graph.NodeIndex, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a node to the back of the queue.
// Returns false if the queue is closed.
func (q *ReadyQueue) Enqueue(n graph.NodeIndex) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.nodes = append(q.nodes, n)

	// Buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front node without blocking.
// Returns false if the queue is empty.
func (q *ReadyQueue) TryDequeue() (graph.NodeIndex, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.nodes) == 0 {
		return 0, false
	}

	n := q.nodes[0]
	if len(q.nodes) == 1 {
		q.nodes = q.nodes[:0]
	} else {
		q.nodes = q.nodes[1:]
	}
	return n, true
}

// Dequeue blocks until a node is available, the queue is closed and
// empty, or ctx is done.
//
// Returns (0, false, nil) once the queue is closed and drained.
func (q *ReadyQueue) Dequeue(ctx context.Context) (graph.NodeIndex, bool, error) {
	for {
		if n, ok := q.TryDequeue(); ok {
			return n, true, nil
		}

		q.mu.Lock()
		done := q.closed && len(q.nodes) == 0
		q.mu.Unlock()
		if done {
			return 0, false, nil
		}

		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case <-q.Wait():
		}
	}
}

// Wait returns a channel that signals when nodes may be available.
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *ReadyQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *ReadyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.nodes)
}

// Close stops the queue from accepting nodes and wakes every waiter.
// Nodes already queued can still be dequeued.
func (q *ReadyQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
