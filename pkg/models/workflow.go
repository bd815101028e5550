// Package models defines the core domain models for the workflow graph editor
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never run against equipment
	WorkflowStatusActive   WorkflowStatus = "active"   // Published for technicians
	WorkflowStatusArchived WorkflowStatus = "archived" // Historical, read-only in the UI
)

// Valid reports whether the status is one of the known lifecycle states.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusArchived:
		return true
	}

	return false
}

// TargetAsset describes the equipment a workflow applies to.
type TargetAsset struct {
	EquipmentType string   `json:"equipmentType"   validate:"max=120"`
	Brand         string   `json:"brand,omitempty" validate:"max=120"`
	Model         string   `json:"model,omitempty" validate:"max=120"`
	Tags          []string `json:"tags,omitempty"`
}

// SafetyCheck lists the safety requirements shown before a workflow starts.
type SafetyCheck struct {
	RequiresLockout bool     `json:"requiresLockout"`
	RequiredPPE     []string `json:"requiredPPE,omitempty"`
	WarningText     string   `json:"warningText,omitempty" validate:"max=2000"`
}

// Workflow is the aggregate root edited by the store: metadata plus the node/edge graph.
type Workflow struct {
	ID             string          `json:"id"                       validate:"required"`
	Title          string          `json:"title"                    validate:"required,max=120"`
	Description    string          `json:"description"              validate:"max=2000"`
	AuthorID       string          `json:"authorId"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Version        int             `json:"version"                  validate:"min=1"`
	IsPublic       bool            `json:"isPublic"`
	Status         WorkflowStatus  `json:"status"                   validate:"required,oneof=draft active archived"`
	TargetAsset    *TargetAsset    `json:"targetAsset,omitempty"    validate:"omitempty"`
	SafetyCheck    *SafetyCheck    `json:"safetyCheck,omitempty"    validate:"omitempty"`
	Nodes          []*WorkflowNode `json:"nodes"                    validate:"dive,required"`
	Edges          []*WorkflowEdge `json:"edges"                    validate:"dive,required"`
	Tags           []string        `json:"tags"`
	ExecutionCount int             `json:"executionCount"           validate:"min=0"`
	LastExecutedAt *time.Time      `json:"lastExecutedAt,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EdgeByID returns the edge with the given id, or nil.
func (w *Workflow) EdgeByID(id string) *WorkflowEdge {
	for _, edge := range w.Edges {
		if edge.ID == id {
			return edge
		}
	}

	return nil
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	c := *w
	c.Tags = cloneStrings(w.Tags)

	if w.TargetAsset != nil {
		asset := *w.TargetAsset
		asset.Tags = cloneStrings(w.TargetAsset.Tags)
		c.TargetAsset = &asset
	}

	if w.SafetyCheck != nil {
		safety := *w.SafetyCheck
		safety.RequiredPPE = cloneStrings(w.SafetyCheck.RequiredPPE)
		c.SafetyCheck = &safety
	}

	if w.LastExecutedAt != nil {
		at := *w.LastExecutedAt
		c.LastExecutedAt = &at
	}

	c.Nodes = CloneNodes(w.Nodes)
	c.Edges = CloneEdges(w.Edges)

	return &c
}
