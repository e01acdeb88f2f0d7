package trigger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portsched/internal/graph"
)

// chainGraph builds a -> b -> c.
func chainGraph(t *testing.T) (g *graph.Graph, a, b, c graph.NodeIndex, e1, e2 graph.EdgeIndex) {
	t.Helper()
	g = graph.New()
	var err error
	a, err = g.AddNode("a")
	require.NoError(t, err)
	b, err = g.AddNode("b")
	require.NoError(t, err)
	c, err = g.AddNode("c")
	require.NoError(t, err)
	e1, err = g.AddEdge(a, b)
	require.NoError(t, err)
	e2, err = g.AddEdge(b, c)
	require.NoError(t, err)
	return g, a, b, c, e1, e2
}

func mustRegister(t *testing.T, b *Builder, e graph.EdgeIndex) Handle {
	t.Helper()
	h, err := b.RegisterTrigger(e)
	require.NoError(t, err)
	require.True(t, h.Valid())
	return h
}

func mustBuild(t *testing.T, b *Builder) *UpdateList {
	t.Helper()
	l, err := b.Build()
	require.NoError(t, err)
	return l
}

func TestHandle_Debounce(t *testing.T) {
	b := NewBuilder()
	h := mustRegister(t, b, graph.EdgeIndex(0))
	list := mustBuild(t, b)

	for i := 0; i < 100; i++ {
		h.SignalOutputProduced()
	}
	assert.Equal(t, 1, list.Pending(), "burst within a cycle must record once")

	var q EdgeQueue
	list.RollCycle(&q)
	assert.Equal(t, []DirectedEdge{SourceEdge(0)}, q.Slice())
}

func TestHandle_DebounceAcrossBothSignals(t *testing.T) {
	b := NewBuilder()
	h := mustRegister(t, b, graph.EdgeIndex(3))
	list := mustBuild(t, b)

	h.SignalInputConsumed()
	h.SignalOutputProduced()
	h.SignalInputConsumed()

	var q EdgeQueue
	stats := list.RollCycle(&q)
	assert.Equal(t, 1, stats.Drained)
	assert.Equal(t, []DirectedEdge{TargetEdge(3)}, q.Slice(), "first signal of the cycle wins")
}

func TestHandle_RearmsAfterRoll(t *testing.T) {
	b := NewBuilder()
	h := mustRegister(t, b, graph.EdgeIndex(0))
	list := mustBuild(t, b)

	assert.True(t, h.Armed())
	h.SignalInputConsumed()
	assert.False(t, h.Armed())

	var q EdgeQueue
	list.RollCycle(&q)
	assert.True(t, h.Armed(), "roll must re-arm fired triggers")

	h.SignalInputConsumed()
	h.SignalInputConsumed()
	assert.Equal(t, 1, list.Pending())

	q.Reset()
	list.RollCycle(&q)
	assert.Equal(t, []DirectedEdge{TargetEdge(0)}, q.Slice())
}

func TestHandle_UnfiredTriggerStaysArmed(t *testing.T) {
	b := NewBuilder()
	h := mustRegister(t, b, graph.EdgeIndex(0))
	list := mustBuild(t, b)

	var q EdgeQueue
	list.RollCycle(&q)
	list.RollCycle(&q)
	assert.True(t, h.Armed())
	assert.Equal(t, 0, q.Len())
}

func TestHandle_NullIsNoop(t *testing.T) {
	var h Handle
	assert.False(t, h.Valid())
	assert.False(t, h.Armed())

	assert.NotPanics(t, func() {
		h.SignalInputConsumed()
		h.SignalOutputProduced()
	})

	_, ok := h.Edge()
	assert.False(t, ok)
}

func TestHandle_NullDoesNotRecord(t *testing.T) {
	b := NewBuilder()
	_ = mustRegister(t, b, graph.EdgeIndex(0))
	list := mustBuild(t, b)

	var unregistered Handle
	unregistered.SignalOutputProduced()
	assert.Equal(t, 0, list.Pending())
}

func TestHandle_Edge(t *testing.T) {
	b := NewBuilder()
	h := mustRegister(t, b, graph.EdgeIndex(7))

	e, ok := h.Edge()
	require.True(t, ok)
	assert.Equal(t, graph.EdgeIndex(7), e)
}

func TestDirectedEdge_DirectionCorrectness(t *testing.T) {
	g, a, b, _, e1, _ := chainGraph(t)

	bld := NewBuilder(WithResolver(g))
	input := mustRegister(t, bld, e1)
	output := mustRegister(t, bld, e1)
	list := mustBuild(t, bld)

	input.SignalInputConsumed()
	output.SignalOutputProduced()

	var q EdgeQueue
	list.RollCycle(&q)
	tags := q.Slice()
	require.Len(t, tags, 2)

	for _, tag := range tags {
		src, ok := tag.SourceNode(g)
		require.True(t, ok)
		dst, ok := tag.TargetNode(g)
		require.True(t, ok)

		switch tag.Direction {
		case DirectionTarget:
			assert.Equal(t, a, dst, "input-side tag must target the producer")
			assert.Equal(t, b, src)
		case DirectionSource:
			assert.Equal(t, b, dst, "output-side tag must target the consumer")
			assert.Equal(t, a, src)
		default:
			t.Fatalf("unexpected direction %v", tag.Direction)
		}
	}
}

func TestHandle_CycleIsolation(t *testing.T) {
	b := NewBuilder()
	h1 := mustRegister(t, b, graph.EdgeIndex(1))
	h2 := mustRegister(t, b, graph.EdgeIndex(2))
	list := mustBuild(t, b)

	h1.SignalOutputProduced()
	var first EdgeQueue
	list.RollCycle(&first)
	assert.Equal(t, []DirectedEdge{SourceEdge(1)}, first.Slice())

	h2.SignalOutputProduced()
	var second EdgeQueue
	list.RollCycle(&second)
	assert.Equal(t, []DirectedEdge{SourceEdge(2)}, second.Slice(),
		"tags from cycle K must not reappear in cycle K+1")

	var third EdgeQueue
	list.RollCycle(&third)
	assert.Equal(t, 0, third.Len())
}

func TestEndToEnd_ChainMiddleNodeFromBothSides(t *testing.T) {
	g, a, b, c, e1, e2 := chainGraph(t)

	bld := NewBuilder(WithResolver(g))
	e1Out := mustRegister(t, bld, e1)
	_ = mustRegister(t, bld, e1) // e1 input port
	_ = mustRegister(t, bld, e2) // e2 output port
	e2In := mustRegister(t, bld, e2)
	list := mustBuild(t, bld)
	require.Equal(t, 4, list.TriggerCount())

	e1Out.SignalOutputProduced()
	e2In.SignalInputConsumed()

	var q EdgeQueue
	stats := list.RollCycle(&q)
	assert.Equal(t, 2, stats.Drained)
	assert.Equal(t, 4, stats.Triggers)

	tags := q.Slice()
	require.Len(t, tags, 2)
	for _, tag := range tags {
		dst, ok := tag.TargetNode(g)
		require.True(t, ok)
		assert.Equal(t, b, dst, "b is reconsidered from both sides")
	}

	// Newest first: e2 input-side, then e1 output-side.
	assert.Equal(t, TargetEdge(e2), tags[0])
	src, _ := tags[0].SourceNode(g)
	assert.Equal(t, c, src)

	assert.Equal(t, SourceEdge(e1), tags[1])
	src, _ = tags[1].SourceNode(g)
	assert.Equal(t, a, src)
}

func TestHandle_ConcurrentSignals(t *testing.T) {
	const edges = 600 // spans several arena chunks
	const signalsPerEdge = 50

	b := NewBuilder(WithCapacityHint(edges))
	handles := make([]Handle, edges)
	for i := range handles {
		handles[i] = mustRegister(t, b, graph.EdgeIndex(i))
	}
	list := mustBuild(t, b)

	for cycle := 0; cycle < 3; cycle++ {
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < edges; i += 8 {
					for n := 0; n < signalsPerEdge; n++ {
						if n%2 == 0 {
							handles[i].SignalOutputProduced()
						} else {
							handles[i].SignalInputConsumed()
						}
					}
				}
			}(w)
		}
		wg.Wait()

		var q EdgeQueue
		stats := list.RollCycle(&q)
		require.Equal(t, edges, stats.Drained, "cycle %d", cycle)

		seen := make(map[graph.EdgeIndex]int, edges)
		for _, tag := range q.Slice() {
			seen[tag.Edge]++
		}
		require.Len(t, seen, edges)
		for e, n := range seen {
			require.Equal(t, 1, n, "edge %s recorded %d times", e, n)
		}
	}
}
