// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:       uuid.New().String(),
		Type:     models.NodeTypeLogEvent,
		Label:    "Test Node",
		Config:   map[string]any{"message": "test", "level": "info"},
		Position: models.Position{X: 100, Y: 200},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithType sets the node type and its default label.
func WithType(nodeType models.NodeType) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = nodeType
		n.Label = nodeType.DefaultLabel()
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Label = label
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Config = config
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// CreateTestEdge creates an animated edge between two nodes.
func CreateTestEdge(source, target string, overrides ...func(*models.WorkflowEdge)) *models.WorkflowEdge {
	edge := &models.WorkflowEdge{
		ID:       fmt.Sprintf("edge-%s-%s", source, target),
		Source:   source,
		Target:   target,
		Animated: true,
	}

	for _, override := range overrides {
		override(edge)
	}

	return edge
}

// WithHandle routes the edge from a decision handle.
func WithHandle(handle string) func(*models.WorkflowEdge) {
	return func(e *models.WorkflowEdge) {
		e.SourceHandle = handle
		e.ID += "-" + handle
	}
}

// WithEdgeLabel sets the edge label.
func WithEdgeLabel(label string) func(*models.WorkflowEdge) {
	return func(e *models.WorkflowEdge) {
		e.Label = label
	}
}

// CreateTestWorkflow creates an empty draft workflow that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	created := time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Title:       "Test Workflow",
		Description: "A workflow for testing",
		AuthorID:    "test-user",
		CreatedAt:   created,
		UpdatedAt:   created,
		Version:     1,
		Status:      models.WorkflowStatusDraft,
		Nodes:       []*models.WorkflowNode{},
		Edges:       []*models.WorkflowEdge{},
		Tags:        []string{"test"},
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithChain replaces the graph with one node per type, ids n1..nk, each
// connected to the next and laid out top to bottom.
func WithChain(types ...models.NodeType) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes, w.Edges = Chain(types...)
	}
}

// WithGraph replaces the graph with the given nodes and edges.
func WithGraph(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Nodes = nodes
		w.Edges = edges
	}
}

// Chain builds a linear graph with ids n1..nk.
func Chain(types ...models.NodeType) ([]*models.WorkflowNode, []*models.WorkflowEdge) {
	nodes := make([]*models.WorkflowNode, 0, len(types))
	edges := make([]*models.WorkflowEdge, 0, len(types))

	for i, t := range types {
		id := fmt.Sprintf("n%d", i+1)
		nodes = append(nodes, CreateTestNode(
			WithID(id),
			WithType(t),
			WithConfig(map[string]any{}),
			WithPosition(250, float64(50+150*i)),
		))

		if i > 0 {
			edges = append(edges, CreateTestEdge(nodes[i-1].ID, id))
		}
	}

	return nodes, edges
}

// CreateTestIntent creates a small proposal: a voice trigger followed by a
// checklist and an alert.
func CreateTestIntent(overrides ...func(*models.VoiceWorkflowIntent)) *models.VoiceWorkflowIntent {
	intent := &models.VoiceWorkflowIntent{
		Title:       "Compressor overheating",
		Description: "Respond to a compressor temperature alarm",
		TargetAsset: &models.TargetAsset{EquipmentType: "compressor", Brand: "Atlas Copco"},
		Trigger: models.TriggerDescriptor{
			Type:     models.NodeTypeVoiceCommand,
			Keywords: []string{"compressor", "hot"},
		},
		Steps: []models.StepDescriptor{
			{Type: models.NodeTypeChecklist, Label: "Inspect compressor"},
			{Type: models.NodeTypeSendAlert, Label: "Alert maintenance", Config: map[string]any{"channel": "sms"}},
		},
		SafetyCheck: &models.SafetyCheck{RequiresLockout: true, RequiredPPE: []string{"gloves"}},
	}

	for _, override := range overrides {
		override(intent)
	}

	return intent
}

// WithSteps replaces the proposal steps.
func WithSteps(steps ...models.StepDescriptor) func(*models.VoiceWorkflowIntent) {
	return func(i *models.VoiceWorkflowIntent) {
		i.Steps = steps
	}
}

// WithTrigger replaces the proposal trigger.
func WithTrigger(t models.NodeType, keywords ...string) func(*models.VoiceWorkflowIntent) {
	return func(i *models.VoiceWorkflowIntent) {
		i.Trigger = models.TriggerDescriptor{Type: t, Keywords: keywords}
	}
}

// IDs is a deterministic IDGenerator producing node-1, node-2, ... and
// edge-1, edge-2, ...
type IDs struct {
	mu    sync.Mutex
	nodes int
	edges int
}

// NewIDs creates a deterministic id generator.
func NewIDs() *IDs {
	return &IDs{}
}

func (g *IDs) NodeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes++

	return fmt.Sprintf("node-%d", g.nodes)
}

func (g *IDs) EdgeID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges++

	return fmt.Sprintf("edge-%d", g.edges)
}
