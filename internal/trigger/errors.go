package trigger

import (
	"errors"
	"fmt"

	"github.com/roach88/portsched/internal/graph"
)

// ErrorCode categorizes build-phase errors.
type ErrorCode string

const (
	// ErrCodeSealed indicates the builder was used after Build.
	ErrCodeSealed ErrorCode = "BUILDER_SEALED"

	// ErrCodeUnknownEdge indicates a trigger was requested for an edge the
	// resolver does not know.
	ErrCodeUnknownEdge ErrorCode = "UNKNOWN_EDGE"
)

// Error is returned by Builder operations.
//
// The run-phase operations (signals, Record, RollCycle) never fail.
type Error struct {
	Code    ErrorCode
	Message string
	Edge    graph.EdgeIndex
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code == ErrCodeUnknownEdge {
		return fmt.Sprintf("%s: %s (edge=%s)", e.Code, e.Message, e.Edge)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSealedError reports whether err is a BUILDER_SEALED error.
func IsSealedError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == ErrCodeSealed
	}
	return false
}

// IsUnknownEdgeError reports whether err is an UNKNOWN_EDGE error.
func IsUnknownEdgeError(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == ErrCodeUnknownEdge
	}
	return false
}

func newSealedError(op string, edge graph.EdgeIndex) *Error {
	return &Error{
		Code:    ErrCodeSealed,
		Message: op + " after build phase ended",
		Edge:    edge,
	}
}

func newUnknownEdgeError(edge graph.EdgeIndex) *Error {
	return &Error{
		Code:    ErrCodeUnknownEdge,
		Message: "edge does not exist in graph",
		Edge:    edge,
	}
}
