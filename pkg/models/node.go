// Package models defines core node-based workflow models for the editor graph
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownNodeType is returned when a string does not name a registered node kind.
var ErrUnknownNodeType = errors.New("unknown node type")

// CategoryType groups node types for the palette and the canvas.
type CategoryType string

const (
	CategoryTrigger   CategoryType = "trigger"   // Starts a workflow
	CategoryCondition CategoryType = "condition" // Branches or gates the flow
	CategoryInput     CategoryType = "input"     // Collects data from the technician
	CategoryAction    CategoryType = "action"    // Side effects: alerts, tickets, updates
	CategoryUtility   CategoryType = "utility"   // Delays and annotations
)

// Categories lists every category in palette order.
var Categories = []CategoryType{
	CategoryTrigger,
	CategoryCondition,
	CategoryInput,
	CategoryAction,
	CategoryUtility,
}

// NodeType is the closed enumeration of node kinds.
type NodeType string

// Trigger node types.
const (
	NodeTypeManualTrigger   NodeType = "manual_trigger"
	NodeTypeScheduleTrigger NodeType = "schedule_trigger"
	NodeTypeSensorThreshold NodeType = "sensor_threshold"
	NodeTypeVoiceCommand    NodeType = "voice_command"
	NodeTypeEquipmentAlarm  NodeType = "equipment_alarm"
)

// Condition node types.
const (
	NodeTypeDecision       NodeType = "decision"
	NodeTypeThresholdCheck NodeType = "threshold_check"
	NodeTypeTimeWindow     NodeType = "time_window"
)

// Input node types.
const (
	NodeTypePhotoCapture     NodeType = "photo_capture"
	NodeTypeChecklist        NodeType = "checklist"
	NodeTypeMeasurementInput NodeType = "measurement_input"
	NodeTypeSignature        NodeType = "signature"
)

// Action node types.
const (
	NodeTypeSendAlert        NodeType = "send_alert"
	NodeTypeCreateTicket     NodeType = "create_ticket"
	NodeTypeNotifySupervisor NodeType = "notify_supervisor"
	NodeTypeUpdateAsset      NodeType = "update_asset"
	NodeTypeLogEvent         NodeType = "log_event"
)

// Utility node types.
const (
	NodeTypeDelay NodeType = "delay"
	NodeTypeNote  NodeType = "note"
)

var nodeCategories = map[NodeType]CategoryType{
	NodeTypeManualTrigger:    CategoryTrigger,
	NodeTypeScheduleTrigger:  CategoryTrigger,
	NodeTypeSensorThreshold:  CategoryTrigger,
	NodeTypeVoiceCommand:     CategoryTrigger,
	NodeTypeEquipmentAlarm:   CategoryTrigger,
	NodeTypeDecision:         CategoryCondition,
	NodeTypeThresholdCheck:   CategoryCondition,
	NodeTypeTimeWindow:       CategoryCondition,
	NodeTypePhotoCapture:     CategoryInput,
	NodeTypeChecklist:        CategoryInput,
	NodeTypeMeasurementInput: CategoryInput,
	NodeTypeSignature:        CategoryInput,
	NodeTypeSendAlert:        CategoryAction,
	NodeTypeCreateTicket:     CategoryAction,
	NodeTypeNotifySupervisor: CategoryAction,
	NodeTypeUpdateAsset:      CategoryAction,
	NodeTypeLogEvent:         CategoryAction,
	NodeTypeDelay:            CategoryUtility,
	NodeTypeNote:             CategoryUtility,
}

// NodeTypes lists every node type grouped by category, in palette order.
var NodeTypes = []NodeType{
	NodeTypeManualTrigger,
	NodeTypeScheduleTrigger,
	NodeTypeSensorThreshold,
	NodeTypeVoiceCommand,
	NodeTypeEquipmentAlarm,
	NodeTypeDecision,
	NodeTypeThresholdCheck,
	NodeTypeTimeWindow,
	NodeTypePhotoCapture,
	NodeTypeChecklist,
	NodeTypeMeasurementInput,
	NodeTypeSignature,
	NodeTypeSendAlert,
	NodeTypeCreateTicket,
	NodeTypeNotifySupervisor,
	NodeTypeUpdateAsset,
	NodeTypeLogEvent,
	NodeTypeDelay,
	NodeTypeNote,
}

// ParseNodeType converts a raw string into a NodeType.
func ParseNodeType(raw string) (NodeType, error) {
	t := NodeType(strings.TrimSpace(raw))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, raw)
	}

	return t, nil
}

// Valid reports whether t is part of the enumeration.
func (t NodeType) Valid() bool {
	_, ok := nodeCategories[t]

	return ok
}

// Category returns the category of t, or "" for unknown types.
func (t NodeType) Category() CategoryType {
	return nodeCategories[t]
}

// IsTrigger reports whether t starts a workflow.
func (t NodeType) IsTrigger() bool {
	return t.Category() == CategoryTrigger
}

// DefaultLabel derives a display label from the type: "send_alert" becomes "Send Alert".
func (t NodeType) DefaultLabel() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}

		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

// Position is a 2D canvas coordinate. Only the canvas view reads it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowNode represents a node instance in a workflow.
type WorkflowNode struct {
	ID       string         `json:"id"       validate:"required"`
	Type     NodeType       `json:"type"     validate:"required,nodetype"`
	Label    string         `json:"label"    validate:"max=200"`
	Config   map[string]any `json:"config"`
	Position Position       `json:"position"`
}

// IsTrigger reports whether the node starts a workflow.
func (n *WorkflowNode) IsTrigger() bool {
	return n.Type.IsTrigger()
}

// IsDecision reports whether the node exposes true/false output handles.
func (n *WorkflowNode) IsDecision() bool {
	return n.Type == NodeTypeDecision
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	if n == nil {
		return nil
	}

	c := *n
	c.Config = CloneConfig(n.Config)

	return &c
}

// CloneNodes deep-copies a node slice, preserving nil-ness.
func CloneNodes(nodes []*WorkflowNode) []*WorkflowNode {
	if nodes == nil {
		return nil
	}

	out := make([]*WorkflowNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}

	return out
}

// NodeStatus defines the possible states of a simulated node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)
