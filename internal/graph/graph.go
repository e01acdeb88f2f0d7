package graph

import (
	"errors"
	"fmt"
	"sync"
)

// NodeIndex is a stable handle to a node in a Graph.
type NodeIndex uint32

// EdgeIndex is a stable handle to an edge in a Graph.
type EdgeIndex uint32

// String renders the index as "n<idx>".
func (n NodeIndex) String() string {
	return fmt.Sprintf("n%d", uint32(n))
}

// String renders the index as "e<idx>".
func (e EdgeIndex) String() string {
	return fmt.Sprintf("e%d", uint32(e))
}

// Sentinel errors returned by topology mutations.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrDuplicateNode = errors.New("duplicate node name")
)

// Node is the read-only view of a graph node.
type Node struct {
	Index NodeIndex
	Name  string
}

// Edge is the read-only view of a directed graph edge.
type Edge struct {
	Index EdgeIndex
	From  NodeIndex
	To    NodeIndex
}

type nodeSlot struct {
	name    string
	removed bool
}

type edgeSlot struct {
	from    NodeIndex
	to      NodeIndex
	removed bool
}

// Graph is a directed graph with stable node and edge indices.
//
// Removed slots stay in place as tombstones so indices are never reused.
type Graph struct {
	mu     sync.RWMutex
	nodes  []nodeSlot
	edges  []edgeSlot
	byName map[string]NodeIndex

	liveNodes int
	liveEdges int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byName: make(map[string]NodeIndex),
	}
}

// AddNode adds a node with the given name and returns its index.
// Names must be unique among live nodes; an empty name is allowed
// but cannot be looked up.
func (g *Graph) AddNode(name string) (NodeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name != "" {
		if _, exists := g.byName[name]; exists {
			return 0, fmt.Errorf("add node %q: %w", name, ErrDuplicateNode)
		}
	}

	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, nodeSlot{name: name})
	if name != "" {
		g.byName[name] = idx
	}
	g.liveNodes++
	return idx, nil
}

// AddEdge adds a directed edge from -> to and returns its index.
// Parallel edges and self-loops are permitted.
func (g *Graph) AddEdge(from, to NodeIndex) (EdgeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.liveNode(from) {
		return 0, fmt.Errorf("add edge from %s: %w", from, ErrNodeNotFound)
	}
	if !g.liveNode(to) {
		return 0, fmt.Errorf("add edge to %s: %w", to, ErrNodeNotFound)
	}

	idx := EdgeIndex(len(g.edges))
	g.edges = append(g.edges, edgeSlot{from: from, to: to})
	g.liveEdges++
	return idx, nil
}

// RemoveEdge removes an edge. Its index is retired, not recycled.
func (g *Graph) RemoveEdge(e EdgeIndex) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.liveEdge(e) {
		return fmt.Errorf("remove edge %s: %w", e, ErrEdgeNotFound)
	}
	g.edges[e].removed = true
	g.liveEdges--
	return nil
}

// RemoveNode removes a node and every edge incident to it.
// Returns the indices of the edges that were removed alongside it.
func (g *Graph) RemoveNode(n NodeIndex) ([]EdgeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.liveNode(n) {
		return nil, fmt.Errorf("remove node %s: %w", n, ErrNodeNotFound)
	}

	var removed []EdgeIndex
	for i := range g.edges {
		slot := &g.edges[i]
		if slot.removed {
			continue
		}
		if slot.from == n || slot.to == n {
			slot.removed = true
			g.liveEdges--
			removed = append(removed, EdgeIndex(i))
		}
	}

	slot := &g.nodes[n]
	if slot.name != "" {
		delete(g.byName, slot.name)
	}
	slot.removed = true
	g.liveNodes--
	return removed, nil
}

// EdgeEndpoints returns the (source, target) nodes of a live edge.
func (g *Graph) EdgeEndpoints(e EdgeIndex) (NodeIndex, NodeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.liveEdge(e) {
		return 0, 0, false
	}
	slot := g.edges[e]
	return slot.from, slot.to, true
}

// Node returns the node at the given index.
func (g *Graph) Node(n NodeIndex) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.liveNode(n) {
		return Node{}, false
	}
	return Node{Index: n, Name: g.nodes[n].name}, true
}

// Lookup finds a live node by name.
func (g *Graph) Lookup(name string) (NodeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.byName[name]
	return idx, ok
}

// FindEdge returns the lowest-indexed live edge from -> to.
func (g *Graph) FindEdge(from, to NodeIndex) (EdgeIndex, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for i, slot := range g.edges {
		if !slot.removed && slot.from == from && slot.to == to {
			return EdgeIndex(i), true
		}
	}
	return 0, false
}

// Nodes returns all live nodes in index order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, 0, g.liveNodes)
	for i, slot := range g.nodes {
		if slot.removed {
			continue
		}
		out = append(out, Node{Index: NodeIndex(i), Name: slot.name})
	}
	return out
}

// Edges returns all live edges in index order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge, 0, g.liveEdges)
	for i, slot := range g.edges {
		if slot.removed {
			continue
		}
		out = append(out, Edge{Index: EdgeIndex(i), From: slot.from, To: slot.to})
	}
	return out
}

// Incoming returns the live edges whose target is n.
func (g *Graph) Incoming(n NodeIndex) []EdgeIndex {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []EdgeIndex
	for i, slot := range g.edges {
		if !slot.removed && slot.to == n {
			out = append(out, EdgeIndex(i))
		}
	}
	return out
}

// Outgoing returns the live edges whose source is n.
func (g *Graph) Outgoing(n NodeIndex) []EdgeIndex {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []EdgeIndex
	for i, slot := range g.edges {
		if !slot.removed && slot.from == n {
			out = append(out, EdgeIndex(i))
		}
	}
	return out
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.liveNodes
}

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.liveEdges
}

// DescribeEdge renders an edge as "from->to" using node names.
// Falls back to the edge index when the edge is gone.
func (g *Graph) DescribeEdge(e EdgeIndex) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.liveEdge(e) {
		return e.String()
	}
	slot := g.edges[e]
	return g.nameOf(slot.from) + "->" + g.nameOf(slot.to)
}

// NodeName returns the node's name, or its index string when unnamed or gone.
func (g *Graph) NodeName(n NodeIndex) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nameOf(n)
}

func (g *Graph) nameOf(n NodeIndex) string {
	if int(n) < len(g.nodes) && g.nodes[n].name != "" {
		return g.nodes[n].name
	}
	return n.String()
}

func (g *Graph) liveNode(n NodeIndex) bool {
	return int(n) < len(g.nodes) && !g.nodes[n].removed
}

func (g *Graph) liveEdge(e EdgeIndex) bool {
	return int(e) < len(g.edges) && !g.edges[e].removed
}
