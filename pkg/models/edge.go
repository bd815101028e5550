package models

// Output handles exposed by decision nodes. Every other node type has a single
// implicit output handle, represented by an empty SourceHandle.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// WorkflowEdge connects the output of one node to another node.
type WorkflowEdge struct {
	ID           string `json:"id"                     validate:"required"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" validate:"omitempty,oneof=true false"`
	Label        string `json:"label,omitempty"        validate:"max=120"`
	Animated     bool   `json:"animated"`
}

// Touches reports whether the edge has nodeID as source or target.
func (e *WorkflowEdge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// SameRoute reports whether two edges share the (source, target, handle) triple.
func (e *WorkflowEdge) SameRoute(source, target, handle string) bool {
	return e.Source == source && e.Target == target && e.SourceHandle == handle
}

// Clone returns a copy of the edge.
func (e *WorkflowEdge) Clone() *WorkflowEdge {
	if e == nil {
		return nil
	}

	c := *e

	return &c
}

// CloneEdges copies an edge slice, preserving nil-ness.
func CloneEdges(edges []*WorkflowEdge) []*WorkflowEdge {
	if edges == nil {
		return nil
	}

	out := make([]*WorkflowEdge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}

	return out
}
