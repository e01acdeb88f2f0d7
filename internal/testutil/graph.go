package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/portsched/internal/graph"
)

// Chain builds names[0] -> names[1] -> ... -> names[n-1].
// Edge i connects names[i] to names[i+1].
func Chain(t testing.TB, names ...string) *graph.Graph {
	t.Helper()
	g := graph.New()
	var prev graph.NodeIndex
	for i, name := range names {
		n, err := g.AddNode(name)
		require.NoError(t, err)
		if i > 0 {
			_, err := g.AddEdge(prev, n)
			require.NoError(t, err)
		}
		prev = n
	}
	return g
}

// Diamond builds src -> left, src -> right, left -> sink, right -> sink,
// with edges e0..e3 in that order.
func Diamond(t testing.TB) *graph.Graph {
	t.Helper()
	g := graph.New()
	nodes := make(map[string]graph.NodeIndex)
	for _, name := range []string{"src", "left", "right", "sink"} {
		n, err := g.AddNode(name)
		require.NoError(t, err)
		nodes[name] = n
	}
	for _, e := range [][2]string{{"src", "left"}, {"src", "right"}, {"left", "sink"}, {"right", "sink"}} {
		_, err := g.AddEdge(nodes[e[0]], nodes[e[1]])
		require.NoError(t, err)
	}
	return g
}
