// Package web provides HTTP request and response types for the editor API.
package web

import (
	"github.com/dukex/flowedit/pkg/eventbus"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/store"
)

// CreateWorkflowRequest represents the request body for starting a new draft.
type CreateWorkflowRequest struct {
	Title       string `json:"title"       validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// AddNodeRequest represents the request body for adding a node of a known type.
type AddNodeRequest struct {
	Type     models.NodeType `json:"type"     validate:"required"`
	Position models.Position `json:"position"`
	Config   map[string]any  `json:"config"`
}

// DropNodeRequest carries a palette drag payload and the drop position.
type DropNodeRequest struct {
	Payload  string          `json:"payload"  validate:"required"`
	Position models.Position `json:"position"`
}

// AddEdgeRequest represents the request body for connecting two nodes.
type AddEdgeRequest struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" validate:"omitempty,oneof=true false"`
	Label        string `json:"label,omitempty"        validate:"max=120"`
}

// UpdateNodeRequest is a partial node update. Nil fields are left untouched.
type UpdateNodeRequest = store.NodePatch

// UpdateWorkflowRequest is a partial metadata update.
type UpdateWorkflowRequest = store.MetaPatch

// IDResponse is returned by endpoints that create a node or edge.
type IDResponse struct {
	ID string `json:"id"`
}

// RevealResponse describes a reveal that has started.
type RevealResponse struct {
	Epoch store.Epoch `json:"epoch"`
	Total int         `json:"total"`
}

// RunResponse describes a simulated run that has started.
type RunResponse struct {
	ExecutionID string `json:"executionId"`
	WorkflowID  string `json:"workflowId"`
}

// RunStatusResponse is the state of the most recent simulated run.
type RunStatusResponse struct {
	Executing bool                       `json:"executing"`
	Log       []models.ExecutionLogEntry `json:"log"`
}

// EventsResponse is one page of the change feed.
type EventsResponse struct {
	Last    uint64           `json:"last"`
	Entries []eventbus.Entry `json:"entries"`
}
