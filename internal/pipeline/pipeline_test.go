package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/trigger"
)

func buildChain(t *testing.T) (*graph.Graph, graph.EdgeIndex, graph.EdgeIndex) {
	t.Helper()
	g := graph.New()
	a, err := g.AddNode("a")
	require.NoError(t, err)
	b, err := g.AddNode("b")
	require.NoError(t, err)
	c, err := g.AddNode("c")
	require.NoError(t, err)
	e1, err := g.AddEdge(a, b)
	require.NoError(t, err)
	e2, err := g.AddEdge(b, c)
	require.NoError(t, err)
	return g, e1, e2
}

func TestBuild_WiresTwoTriggersPerEdge(t *testing.T) {
	g, e1, e2 := buildChain(t)

	p, err := Build(g)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Updates().TriggerCount())

	for _, e := range []graph.EdgeIndex{e1, e2} {
		assert.True(t, p.OutputPort(e).Connected())
		assert.True(t, p.InputPort(e).Connected())
		assert.Equal(t, e, p.OutputPort(e).Edge())
		assert.Equal(t, e, p.InputPort(e).Edge())
	}
}

func TestPorts_SignalIndependently(t *testing.T) {
	g, e1, _ := buildChain(t)
	p, err := Build(g)
	require.NoError(t, err)

	out := p.OutputPort(e1)
	in := p.InputPort(e1)

	// Each port has its own trigger, so both sides are recorded.
	for i := 0; i < 10; i++ {
		out.Pushed()
		in.Pulled()
	}

	var q trigger.EdgeQueue
	stats := p.Updates().RollCycle(&q)
	assert.Equal(t, 2, stats.Drained)
	assert.Equal(t, []trigger.DirectedEdge{
		trigger.TargetEdge(e1),
		trigger.SourceEdge(e1),
	}, q.Slice())
}

func TestPorts_ChainMiddleNode(t *testing.T) {
	g, e1, e2 := buildChain(t)
	p, err := Build(g)
	require.NoError(t, err)

	p.OutputPort(e1).Pushed()
	p.InputPort(e2).Pulled()

	var q trigger.EdgeQueue
	p.Updates().RollCycle(&q)

	b, _ := g.Lookup("b")
	for _, tag := range q.Slice() {
		dst, ok := tag.TargetNode(g)
		require.True(t, ok)
		assert.Equal(t, b, dst)
	}
	assert.Equal(t, 2, q.Len())
}

func TestWithoutTriggers(t *testing.T) {
	g, e1, e2 := buildChain(t)
	p, err := Build(g, WithoutTriggers(e2))
	require.NoError(t, err)

	assert.Equal(t, 2, p.Updates().TriggerCount())
	assert.True(t, p.OutputPort(e1).Connected())
	assert.False(t, p.OutputPort(e2).Connected())

	p.OutputPort(e2).Pushed()
	p.InputPort(e2).Pulled()
	assert.Equal(t, 0, p.Updates().Pending())
}

func TestUnknownEdge_DisconnectedPorts(t *testing.T) {
	g, _, _ := buildChain(t)
	p, err := Build(g)
	require.NoError(t, err)

	port := p.OutputPort(graph.EdgeIndex(77))
	assert.False(t, port.Connected())
	assert.NotPanics(t, port.Pushed)
	assert.NotPanics(t, p.InputPort(graph.EdgeIndex(77)).Pulled)
}

func TestDetach(t *testing.T) {
	g, e1, e2 := buildChain(t)
	p, err := Build(g)
	require.NoError(t, err)

	// A tag raised before detaching stops resolving afterwards.
	p.OutputPort(e1).Pushed()
	require.NoError(t, p.Detach(e1))

	assert.False(t, p.OutputPort(e1).Connected())
	assert.True(t, p.OutputPort(e2).Connected())
	assert.Equal(t, 4, p.Updates().TriggerCount(), "registry never shrinks")

	var q trigger.EdgeQueue
	p.Updates().RollCycle(&q)
	require.Equal(t, 1, q.Len())
	tag, _ := q.PopFront()
	_, ok := tag.TargetNode(g)
	assert.False(t, ok)

	assert.Error(t, p.Detach(e1))
}

func TestRoots(t *testing.T) {
	g, _, _ := buildChain(t)
	p, err := Build(g)
	require.NoError(t, err)

	a, _ := g.Lookup("a")
	assert.Equal(t, []graph.NodeIndex{a}, p.Roots())
}

func TestBuild_EmptyGraph(t *testing.T) {
	p, err := Build(graph.New())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Updates().TriggerCount())
	assert.Empty(t, p.Roots())
}
