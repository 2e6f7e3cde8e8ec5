package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for layout operations.
var (
	// ErrInvalidGraph indicates a structural problem detected while building a graph.
	ErrInvalidGraph = errors.New("dynamo: invalid graph")

	// ErrNodeNotFound indicates a query for an identifier that was never added.
	ErrNodeNotFound = errors.New("dynamo: node not found")

	// ErrInvalidState indicates a body with a non-finite position or velocity.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates a node kept producing non-finite values across steps.
	ErrUnstable = errors.New("dynamo: simulation unstable (node diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// SimulationError wraps an error with the step and node it was observed on.
type SimulationError struct {
	Step    int
	Node    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
	}
	return fmt.Sprintf("step %d node %q: %v", e.Step, e.Node, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
