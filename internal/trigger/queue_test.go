package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portsched/internal/graph"
)

func TestEdgeQueue_ZeroValueUsable(t *testing.T) {
	var q EdgeQueue
	q.PushFront(SourceEdge(1))
	q.PushBack(SourceEdge(2))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []DirectedEdge{SourceEdge(1), SourceEdge(2)}, q.Slice())
}

func TestEdgeQueue_PopFront_Empty(t *testing.T) {
	q := NewEdgeQueue(0)
	_, ok := q.PopFront()
	assert.False(t, ok)
	_, ok = q.PeekFront()
	assert.False(t, ok)
}

func TestEdgeQueue_MixedEnds(t *testing.T) {
	q := NewEdgeQueue(0)
	q.PushBack(SourceEdge(2))
	q.PushFront(SourceEdge(1))
	q.PushBack(SourceEdge(3))
	q.PushFront(SourceEdge(0))

	head, ok := q.PeekFront()
	require.True(t, ok)
	assert.Equal(t, SourceEdge(0), head)

	for want := 0; want < 4; want++ {
		got, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, graph.EdgeIndex(want), got.Edge)
	}
	assert.Equal(t, 0, q.Len())
}

func TestEdgeQueue_GrowPreservesOrder(t *testing.T) {
	q := NewEdgeQueue(0)
	// Wrap the ring before growing.
	for i := 0; i < 10; i++ {
		q.PushBack(SourceEdge(graph.EdgeIndex(i)))
	}
	for i := 0; i < 5; i++ {
		_, _ = q.PopFront()
	}
	for i := 10; i < 100; i++ {
		q.PushBack(SourceEdge(graph.EdgeIndex(i)))
	}
	for i := 4; i >= 0; i-- {
		q.PushFront(TargetEdge(graph.EdgeIndex(i)))
	}

	got := q.Slice()
	require.Len(t, got, 100)
	for i := 0; i < 5; i++ {
		assert.Equal(t, TargetEdge(graph.EdgeIndex(i)), got[i])
	}
	for i := 5; i < 100; i++ {
		assert.Equal(t, SourceEdge(graph.EdgeIndex(i)), got[i])
	}
}

func TestEdgeQueue_Reset(t *testing.T) {
	q := NewEdgeQueue(0)
	q.PushBack(SourceEdge(1))
	q.Reset()
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Slice())
}

func TestDirection_StringAndParse(t *testing.T) {
	tests := []struct {
		dir  Direction
		text string
	}{
		{DirectionSource, "source"},
		{DirectionTarget, "target"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.dir.String())
			parsed, err := ParseDirection(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.dir, parsed)
		})
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
	assert.Equal(t, "direction(0)", Direction(0).String())
}

func TestDirectedEdge_RemovedEdgeDoesNotResolve(t *testing.T) {
	g, _, _, _, e1, _ := chainGraph(t)
	require.NoError(t, g.RemoveEdge(e1))

	_, ok := SourceEdge(e1).TargetNode(g)
	assert.False(t, ok)
	_, ok = TargetEdge(e1).SourceNode(g)
	assert.False(t, ok)
}

func TestDirectedEdge_String(t *testing.T) {
	assert.Equal(t, "e4:source", SourceEdge(4).String())
	assert.Equal(t, "e0:target", TargetEdge(0).String())
}
