// Package pipeline wires update triggers onto the ports of an execution graph.
//
// Every live edge gets two ports: the OutputPort held by the producing node
// and the InputPort held by the consuming node. Each port owns its own
// trigger, registered during Build; the builder is sealed before Build
// returns, so the run phase starts with a fixed trigger registry.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/roach88/portsched/internal/graph"
	"github.com/roach88/portsched/internal/trigger"
)

// OutputPort is the producer-side endpoint of an edge.
type OutputPort struct {
	edge    graph.EdgeIndex
	trigger trigger.Handle
}

// Pushed reports that the producer moved data onto the edge.
func (p OutputPort) Pushed() {
	p.trigger.SignalOutputProduced()
}

// Edge returns the port's edge.
func (p OutputPort) Edge() graph.EdgeIndex {
	return p.edge
}

// Connected reports whether the port has a live trigger.
func (p OutputPort) Connected() bool {
	return p.trigger.Valid()
}

// InputPort is the consumer-side endpoint of an edge.
type InputPort struct {
	edge    graph.EdgeIndex
	trigger trigger.Handle
}

// Pulled reports that the consumer took data off the edge.
func (p InputPort) Pulled() {
	p.trigger.SignalInputConsumed()
}

// Edge returns the port's edge.
func (p InputPort) Edge() graph.EdgeIndex {
	return p.edge
}

// Connected reports whether the port has a live trigger.
func (p InputPort) Connected() bool {
	return p.trigger.Valid()
}

type portPair struct {
	output OutputPort
	input  InputPort
}

// Pipeline is an execution graph with triggers attached to its ports.
type Pipeline struct {
	graph *graph.Graph
	list  *trigger.UpdateList

	mu    sync.RWMutex
	ports map[graph.EdgeIndex]portPair
}

// Option configures Build.
type Option func(*options)

type options struct {
	skip map[graph.EdgeIndex]bool
}

// WithoutTriggers leaves the listed edges unwired; their ports are
// returned disconnected and never signal.
func WithoutTriggers(edges ...graph.EdgeIndex) Option {
	return func(o *options) {
		for _, e := range edges {
			o.skip[e] = true
		}
	}
}

// Build registers an output-side and an input-side trigger for every live
// edge of g and seals the trigger registry.
func Build(g *graph.Graph, opts ...Option) (*Pipeline, error) {
	o := options{skip: make(map[graph.EdgeIndex]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	edges := g.Edges()
	b := trigger.NewBuilder(
		trigger.WithResolver(g),
		trigger.WithCapacityHint(2*len(edges)),
	)

	ports := make(map[graph.EdgeIndex]portPair, len(edges))
	for _, e := range edges {
		pair := portPair{
			output: OutputPort{edge: e.Index},
			input:  InputPort{edge: e.Index},
		}
		if !o.skip[e.Index] {
			out, err := b.RegisterTrigger(e.Index)
			if err != nil {
				return nil, fmt.Errorf("wire output port of %s: %w", e.Index, err)
			}
			in, err := b.RegisterTrigger(e.Index)
			if err != nil {
				return nil, fmt.Errorf("wire input port of %s: %w", e.Index, err)
			}
			pair.output.trigger = out
			pair.input.trigger = in
		}
		ports[e.Index] = pair
	}

	list, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("seal trigger registry: %w", err)
	}

	return &Pipeline{
		graph: g,
		list:  list,
		ports: ports,
	}, nil
}

// Graph returns the underlying execution graph.
func (p *Pipeline) Graph() *graph.Graph {
	return p.graph
}

// Updates returns the pipeline's update list.
func (p *Pipeline) Updates() *trigger.UpdateList {
	return p.list
}

// OutputPort returns the producer-side port of e. Unknown or detached
// edges yield a disconnected port.
func (p *Pipeline) OutputPort(e graph.EdgeIndex) OutputPort {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pair, ok := p.ports[e]
	if !ok {
		return OutputPort{edge: e}
	}
	return pair.output
}

// InputPort returns the consumer-side port of e. Unknown or detached
// edges yield a disconnected port.
func (p *Pipeline) InputPort(e graph.EdgeIndex) InputPort {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pair, ok := p.ports[e]
	if !ok {
		return InputPort{edge: e}
	}
	return pair.input
}

// Detach removes e from the graph and drops its ports. Triggers stay in the
// registry until the pipeline is discarded; any tag already raised for e
// stops resolving once the edge is gone.
func (p *Pipeline) Detach(e graph.EdgeIndex) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.graph.RemoveEdge(e); err != nil {
		return fmt.Errorf("detach %s: %w", e, err)
	}
	delete(p.ports, e)
	return nil
}

// Roots returns live nodes with no incoming edges, in index order.
// These are the nodes an executor schedules before any edge has fired.
func (p *Pipeline) Roots() []graph.NodeIndex {
	var roots []graph.NodeIndex
	for _, n := range p.graph.Nodes() {
		if len(p.graph.Incoming(n.Index)) == 0 {
			roots = append(roots, n.Index)
		}
	}
	return roots
}
