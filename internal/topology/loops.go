package topology

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/portsched/internal/graph"
)

// FeedbackLoop is a strongly connected group of nodes: a trigger raised on
// any of their edges can come back around to the same node.
//
// Loops are legal. Validate reports them as warnings.
type FeedbackLoop struct {
	Path    []string `json:"path"` // closed walk, e.g. ["a", "b", "a"]
	Message string   `json:"message"`
}

// FeedbackLoops finds every cycle in g with Tarjan's algorithm. Results are
// ordered by the lowest node index in each loop, and each path starts at
// that node.
func FeedbackLoops(g *graph.Graph) []FeedbackLoop {
	succ := successors(g)

	var loops [][]graph.NodeIndex
	for _, scc := range tarjanSCC(g.Nodes(), succ) {
		if len(scc) > 1 || slices.Contains(succ[scc[0]], scc[0]) {
			slices.Sort(scc)
			loops = append(loops, scc)
		}
	}
	slices.SortFunc(loops, func(a, b []graph.NodeIndex) int {
		return int(a[0]) - int(b[0])
	})

	out := make([]FeedbackLoop, 0, len(loops))
	for _, scc := range loops {
		out = append(out, loopWarning(g, scc, succ))
	}
	return out
}

// successors maps each node to its live successors, in edge order.
func successors(g *graph.Graph) map[graph.NodeIndex][]graph.NodeIndex {
	succ := make(map[graph.NodeIndex][]graph.NodeIndex)
	for _, e := range g.Edges() {
		succ[e.From] = append(succ[e.From], e.To)
	}
	return succ
}

func tarjanSCC(nodes []graph.Node, succ map[graph.NodeIndex][]graph.NodeIndex) [][]graph.NodeIndex {
	var (
		index   = 0
		stack   []graph.NodeIndex
		indices = make(map[graph.NodeIndex]int)
		lowlink = make(map[graph.NodeIndex]int)
		onStack = make(map[graph.NodeIndex]bool)
		sccs    [][]graph.NodeIndex
	)

	var strongConnect func(graph.NodeIndex)
	strongConnect = func(v graph.NodeIndex) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range succ[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []graph.NodeIndex
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, visited := indices[n.Index]; !visited {
			strongConnect(n.Index)
		}
	}
	return sccs
}

// loopWarning reports the shortest closed path through the loop's lowest
// node, found by a breadth-first search that stays inside the loop.
func loopWarning(g *graph.Graph, scc []graph.NodeIndex, succ map[graph.NodeIndex][]graph.NodeIndex) FeedbackLoop {
	start := scc[0]
	if len(scc) == 1 {
		name := g.NodeName(start)
		return FeedbackLoop{
			Path:    []string{name, name},
			Message: fmt.Sprintf("self-loop on %s", name),
		}
	}

	parent := map[graph.NodeIndex]graph.NodeIndex{}
	queue := []graph.NodeIndex{start}
	last := start
search:
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range succ[v] {
			if w == v || !slices.Contains(scc, w) {
				continue
			}
			if w == start {
				last = v
				break search
			}
			if _, seen := parent[w]; !seen {
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}

	// Walk back from the node that closes the loop.
	nodes := []graph.NodeIndex{start}
	for v := last; v != start; v = parent[v] {
		nodes = append(nodes, v)
	}
	nodes = append(nodes, start)
	slices.Reverse(nodes)

	path := make([]string, len(nodes))
	for i, n := range nodes {
		path[i] = g.NodeName(n)
	}
	return FeedbackLoop{
		Path:    path,
		Message: fmt.Sprintf("feedback loop: %s", strings.Join(path, " -> ")),
	}
}
