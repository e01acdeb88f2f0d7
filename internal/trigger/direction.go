package trigger

import (
	"fmt"

	"github.com/roach88/portsched/internal/graph"
)

// EndpointResolver resolves an edge to its (source, target) nodes.
// *graph.Graph satisfies it.
type EndpointResolver interface {
	EdgeEndpoints(e graph.EdgeIndex) (graph.NodeIndex, graph.NodeIndex, bool)
}

// Direction records which side of an edge raised a notification.
type Direction uint8

const (
	// DirectionSource is raised from the output (producer) side.
	// The tag resolves with the edge's physical orientation.
	DirectionSource Direction = iota + 1
	// DirectionTarget is raised from the input (consumer) side.
	// The tag resolves with the edge's orientation flipped.
	DirectionTarget
)

// String returns "source" or "target".
func (d Direction) String() string {
	switch d {
	case DirectionSource:
		return "source"
	case DirectionTarget:
		return "target"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection parses the output of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "source":
		return DirectionSource, nil
	case "target":
		return DirectionTarget, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: must be source or target", s)
	}
}

// DirectedEdge names an edge plus the side that raised the notification.
//
// A DirectedEdge carries no ownership and is only meaningful against the
// graph it was raised on.
type DirectedEdge struct {
	Edge      graph.EdgeIndex
	Direction Direction
}

// SourceEdge builds a tag raised from the output side of e.
func SourceEdge(e graph.EdgeIndex) DirectedEdge {
	return DirectedEdge{Edge: e, Direction: DirectionSource}
}

// TargetEdge builds a tag raised from the input side of e.
func TargetEdge(e graph.EdgeIndex) DirectedEdge {
	return DirectedEdge{Edge: e, Direction: DirectionTarget}
}

// SourceNode returns the node the notification came from.
// For DirectionSource that is the edge's physical source; for
// DirectionTarget it is the physical target. ok is false when the edge no
// longer exists in r.
func (d DirectedEdge) SourceNode(r EndpointResolver) (graph.NodeIndex, bool) {
	from, to, ok := r.EdgeEndpoints(d.Edge)
	if !ok {
		return 0, false
	}
	if d.Direction == DirectionTarget {
		return to, true
	}
	return from, true
}

// TargetNode returns the node that must be reconsidered.
// For DirectionSource that is the edge's physical target; for
// DirectionTarget it is the physical source.
func (d DirectedEdge) TargetNode(r EndpointResolver) (graph.NodeIndex, bool) {
	from, to, ok := r.EdgeEndpoints(d.Edge)
	if !ok {
		return 0, false
	}
	if d.Direction == DirectionTarget {
		return from, true
	}
	return to, true
}

// String renders the tag as "<edge>:<direction>", e.g. "e3:source".
func (d DirectedEdge) String() string {
	return d.Edge.String() + ":" + d.Direction.String()
}
