package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portsched/internal/graph"
)

func TestUpdateList_RollCycle_NewestFirstAheadOfQueued(t *testing.T) {
	b := NewBuilder()
	h1 := mustRegister(t, b, graph.EdgeIndex(1))
	h2 := mustRegister(t, b, graph.EdgeIndex(2))
	h3 := mustRegister(t, b, graph.EdgeIndex(3))
	list := mustBuild(t, b)

	q := NewEdgeQueue(0)
	q.PushBack(SourceEdge(99))

	h1.SignalOutputProduced()
	h2.SignalOutputProduced()
	h3.SignalOutputProduced()

	list.RollCycle(q)

	assert.Equal(t, []DirectedEdge{
		SourceEdge(3),
		SourceEdge(2),
		SourceEdge(1),
		SourceEdge(99),
	}, q.Slice())
}

func TestUpdateList_RollCycle_BatchesStackAsUnits(t *testing.T) {
	b := NewBuilder()
	h1 := mustRegister(t, b, graph.EdgeIndex(1))
	h2 := mustRegister(t, b, graph.EdgeIndex(2))
	h3 := mustRegister(t, b, graph.EdgeIndex(3))
	h4 := mustRegister(t, b, graph.EdgeIndex(4))
	list := mustBuild(t, b)

	var q EdgeQueue

	h1.SignalOutputProduced()
	h2.SignalInputConsumed()
	list.RollCycle(&q)

	h3.SignalOutputProduced()
	h4.SignalInputConsumed()
	list.RollCycle(&q)

	// The second cycle's batch sits in front of the first, each newest-first.
	assert.Equal(t, []DirectedEdge{
		TargetEdge(4),
		SourceEdge(3),
		TargetEdge(2),
		SourceEdge(1),
	}, q.Slice())
}

func TestUpdateList_Record(t *testing.T) {
	b := NewBuilder()
	list := mustBuild(t, b)

	list.Record(SourceEdge(5))
	list.Record(SourceEdge(5))
	assert.Equal(t, 2, list.Pending(), "Record does not deduplicate")

	var q EdgeQueue
	stats := list.RollCycle(&q)
	assert.Equal(t, 2, stats.Drained)
	assert.Equal(t, 0, list.Pending())
}

func TestUpdateList_RollCycle_CountsCycles(t *testing.T) {
	list := mustBuild(t, NewBuilder())

	var q EdgeQueue
	assert.Equal(t, uint64(1), list.RollCycle(&q).Cycle)
	assert.Equal(t, uint64(2), list.RollCycle(&q).Cycle)
	assert.Equal(t, uint64(2), list.Cycles())
}

func TestUpdateList_RollCycle_EmptyLeavesQueueUntouched(t *testing.T) {
	list := mustBuild(t, NewBuilder())

	q := NewEdgeQueue(4)
	q.PushBack(TargetEdge(1))

	stats := list.RollCycle(q)
	assert.Equal(t, 0, stats.Drained)
	assert.Equal(t, []DirectedEdge{TargetEdge(1)}, q.Slice())
}

func TestBuilder_SealedAfterBuild(t *testing.T) {
	b := NewBuilder()
	_ = mustRegister(t, b, graph.EdgeIndex(0))
	list := mustBuild(t, b)
	require.NotNil(t, list)
	assert.True(t, b.Sealed())

	_, err := b.RegisterTrigger(graph.EdgeIndex(1))
	require.Error(t, err)
	assert.True(t, IsSealedError(err))
	assert.Equal(t, 1, list.TriggerCount(), "sealed builder must not grow the registry")

	_, err = b.Build()
	assert.True(t, IsSealedError(err))
}

func TestBuilder_WithResolver_RejectsUnknownEdge(t *testing.T) {
	g, _, _, _, e1, _ := chainGraph(t)
	b := NewBuilder(WithResolver(g))

	_, err := b.RegisterTrigger(e1)
	require.NoError(t, err)

	_, err = b.RegisterTrigger(graph.EdgeIndex(40))
	require.Error(t, err)
	assert.True(t, IsUnknownEdgeError(err))
	assert.Contains(t, err.Error(), "UNKNOWN_EDGE")
	assert.Contains(t, err.Error(), "e40")
}

func TestBuilder_HandlesStableAcrossGrowth(t *testing.T) {
	b := NewBuilder()
	first := mustRegister(t, b, graph.EdgeIndex(0))

	// Force several new arena chunks after the first handle was issued.
	for i := 1; i < chunkSize*3+5; i++ {
		mustRegister(t, b, graph.EdgeIndex(i))
	}
	list := mustBuild(t, b)

	e, ok := first.Edge()
	require.True(t, ok)
	assert.Equal(t, graph.EdgeIndex(0), e)

	first.SignalOutputProduced()
	var q EdgeQueue
	list.RollCycle(&q)
	assert.Equal(t, []DirectedEdge{SourceEdge(0)}, q.Slice())
}

func TestArena_Each(t *testing.T) {
	var a arena
	for i := 0; i < chunkSize+3; i++ {
		a.alloc(updateTrigger{edge: graph.EdgeIndex(i)})
	}
	require.Equal(t, chunkSize+3, a.len())

	var visited []graph.EdgeIndex
	a.each(func(t *updateTrigger) {
		visited = append(visited, t.edge)
	})
	require.Len(t, visited, chunkSize+3)
	assert.Equal(t, graph.EdgeIndex(0), visited[0])
	assert.Equal(t, graph.EdgeIndex(chunkSize+2), visited[len(visited)-1])
}

func TestArena_PointerStableAcrossAlloc(t *testing.T) {
	var a arena
	slot := a.alloc(updateTrigger{edge: 1})
	p := a.at(slot)

	for i := 0; i < chunkSize*2; i++ {
		a.alloc(updateTrigger{})
	}
	assert.Same(t, p, a.at(slot))
}
