// Package store provides standardized error types for graph store operations.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// Missing-reference errors: the addressed element does not exist. The store
// state is unchanged when one of these is returned.
var (
	// ErrNoWorkflow indicates an operation was attempted before a workflow was created or loaded.
	ErrNoWorkflow = errors.New("no workflow loaded")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an edge was not found by the given identifier.
	ErrEdgeNotFound = errors.New("edge not found")
)

// Integrity errors: the mutation would break the no-dangling-edge or
// unique-id invariants and was rejected.
var (
	// ErrInvalidReference indicates an edge references a node id that does not exist.
	ErrInvalidReference = errors.New("edge references a missing node")

	// ErrDuplicateNodeID indicates two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrDuplicateEdgeID indicates two edges share an id.
	ErrDuplicateEdgeID = errors.New("duplicate edge id")

	// ErrNilWorkflow indicates a nil workflow was supplied.
	ErrNilWorkflow = errors.New("workflow cannot be nil")
)

var (
	// ErrDuplicateEdge indicates an edge with the same source, target and handle already exists.
	// Adding it is a no-op by contract.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrStaleEpoch indicates a scheduled task belongs to a workflow or stream that was replaced.
	ErrStaleEpoch = errors.New("stale epoch")
)

// NodeError wraps node-related errors with additional context.
type NodeError struct {
	Op         string // Operation being performed
	WorkflowID string // Workflow ID
	NodeID     string // Node ID
	Err        error  // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s operation failed for node %s in workflow %s: %v", e.Op, e.NodeID, e.WorkflowID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// EdgeError wraps edge-related errors with additional context.
type EdgeError struct {
	Op         string // Operation being performed
	WorkflowID string // Workflow ID
	EdgeID     string // Edge ID, when known
	Source     string // Source node ID
	Target     string // Target node ID
	Err        error  // Underlying error
}

func (e *EdgeError) Error() string {
	if e.EdgeID != "" {
		return fmt.Sprintf("%s operation failed for edge %s in workflow %s: %v", e.Op, e.EdgeID, e.WorkflowID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for edge %s->%s in workflow %s: %v", e.Op, e.Source, e.Target, e.WorkflowID, e.Err)
}

func (e *EdgeError) Unwrap() error {
	return e.Err
}

func (e *EdgeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IntegrityError reports every structural problem found in a graph supplied
// wholesale. Err is the first problem's sentinel.
type IntegrityError struct {
	Op         string   // Operation being performed
	WorkflowID string   // Workflow ID
	Problems   []string // Human-readable problem list
	Err        error    // Underlying error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s operation rejected for workflow %s: %s", e.Op, e.WorkflowID, strings.Join(e.Problems, "; "))
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func (e *IntegrityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsEdgeNotFound checks if an error indicates an edge was not found.
func IsEdgeNotFound(err error) bool {
	return errors.Is(err, ErrEdgeNotFound)
}

// IsNotFound checks if an error is any missing-reference error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoWorkflow) || IsNodeNotFound(err) || IsEdgeNotFound(err)
}

// IsIntegrityError checks if an error indicates a rejected structural violation.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrInvalidReference) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrDuplicateEdgeID) ||
		errors.Is(err, ErrNilWorkflow)
}

// IsDuplicateEdge checks if an error indicates an edge already existed.
func IsDuplicateEdge(err error) bool {
	return errors.Is(err, ErrDuplicateEdge)
}
