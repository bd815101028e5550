// Package compiler turns a parsed workflow proposal into a positioned node/edge graph.
package compiler

import (
	"strings"

	"github.com/dukex/flowedit/pkg/models"
)

// Layout places the i-th compiled node at Origin + i*Step.
type Layout struct {
	Origin models.Position `json:"origin"`
	Step   models.Position `json:"step"`
}

var (
	// LayoutVertical stacks nodes top to bottom.
	LayoutVertical = Layout{
		Origin: models.Position{X: 250, Y: 50},
		Step:   models.Position{X: 0, Y: 150},
	}

	// LayoutHorizontal lines nodes up left to right.
	LayoutHorizontal = Layout{
		Origin: models.Position{X: 100, Y: 200},
		Step:   models.Position{X: 250, Y: 0},
	}
)

// At returns the position of the node at index i.
func (l Layout) At(i int) models.Position {
	return models.Position{
		X: l.Origin.X + float64(i)*l.Step.X,
		Y: l.Origin.Y + float64(i)*l.Step.Y,
	}
}

// ParseLayout resolves a layout preset by name.
func ParseLayout(name string) (Layout, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "vertical":
		return LayoutVertical, true
	case "horizontal":
		return LayoutHorizontal, true
	}

	return Layout{}, false
}

// Options tune compilation. The zero value compiles a vertical chain with
// generated ids.
type Options struct {
	Layout Layout

	// Branching connects steps carrying a ConditionRef to the referenced
	// decision step through its true/false handle instead of chaining them
	// to their predecessor.
	Branching bool

	IDs models.IDGenerator
}

// Graph is a compiled, self-consistent node/edge set.
type Graph struct {
	Nodes []*models.WorkflowNode `json:"nodes"`
	Edges []*models.WorkflowEdge `json:"edges"`
}

// Compiler converts intents into graphs. It holds no state besides its
// options, so one Compiler may be shared.
type Compiler struct {
	layout    Layout
	branching bool
	ids       models.IDGenerator
}

// New creates a compiler.
func New(opts Options) *Compiler {
	c := &Compiler{
		layout:    opts.Layout,
		branching: opts.Branching,
		ids:       opts.IDs,
	}

	if c.layout == (Layout{}) {
		c.layout = LayoutVertical
	}

	if c.ids == nil {
		c.ids = models.NewSequence()
	}

	return c
}

// Branching reports whether the compiler interprets condition references.
func (c *Compiler) Branching() bool {
	return c.branching
}

// Compile builds one trigger node followed by one node per step. Every step
// gets exactly one incoming edge, so k steps always yield k+1 nodes and k
// edges. Without branching the edges form the chain trigger->step1->...->stepk.
func (c *Compiler) Compile(intent *models.VoiceWorkflowIntent) (*Graph, error) {
	if intent == nil {
		return nil, &CompileError{Step: TriggerStep, Err: ErrNilIntent}
	}

	if !intent.Trigger.Type.Valid() {
		return nil, &CompileError{Step: TriggerStep, Type: intent.Trigger.Type, Err: models.ErrUnknownNodeType}
	}

	graph := &Graph{
		Nodes: make([]*models.WorkflowNode, 0, len(intent.Steps)+1),
		Edges: make([]*models.WorkflowEdge, 0, len(intent.Steps)),
	}

	trigger := &models.WorkflowNode{
		ID:       c.ids.NodeID(),
		Type:     intent.Trigger.Type,
		Label:    TriggerLabel(intent.Trigger.Keywords),
		Config:   map[string]any{},
		Position: c.layout.At(0),
	}

	if len(intent.Trigger.Keywords) > 0 {
		trigger.Config["keywords"] = append([]string{}, intent.Trigger.Keywords...)
	}

	graph.Nodes = append(graph.Nodes, trigger)

	// ref -> step index, for resolving condition references
	refs := make(map[string]int, len(intent.Steps))

	for i, step := range intent.Steps {
		if !step.Type.Valid() {
			return nil, &CompileError{Step: i, Ref: step.Ref, Type: step.Type, Err: models.ErrUnknownNodeType}
		}

		if step.Ref != "" {
			if _, exists := refs[step.Ref]; exists {
				return nil, &CompileError{Step: i, Ref: step.Ref, Err: ErrDuplicateRef}
			}
		}

		node := &models.WorkflowNode{
			ID:       c.ids.NodeID(),
			Type:     step.Type,
			Label:    stepLabel(step),
			Config:   models.CloneConfig(step.Config),
			Position: c.layout.At(i + 1),
		}

		if node.Config == nil {
			node.Config = map[string]any{}
		}

		edge, err := c.connect(intent.Steps, refs, graph.Nodes, i, node)
		if err != nil {
			return nil, err
		}

		graph.Nodes = append(graph.Nodes, node)
		graph.Edges = append(graph.Edges, edge)

		if step.Ref != "" {
			refs[step.Ref] = i
		}
	}

	return graph, nil
}

// connect builds the single incoming edge of step i. nodes holds the trigger
// followed by the nodes of steps 0..i-1.
func (c *Compiler) connect(
	steps []models.StepDescriptor,
	refs map[string]int,
	nodes []*models.WorkflowNode,
	i int,
	node *models.WorkflowNode,
) (*models.WorkflowEdge, error) {
	step := steps[i]
	source := nodes[i]

	edge := &models.WorkflowEdge{
		ID:       c.ids.EdgeID(),
		Target:   node.ID,
		Animated: true,
	}

	if !c.branching {
		edge.Source = source.ID

		return edge, nil
	}

	if step.ConditionRef != "" {
		idx, ok := refs[step.ConditionRef]
		if !ok {
			return nil, &CompileError{Step: i, Ref: step.ConditionRef, Err: ErrUnknownConditionRef}
		}

		if steps[idx].Type != models.NodeTypeDecision {
			return nil, &CompileError{Step: i, Ref: step.ConditionRef, Type: steps[idx].Type, Err: ErrNotDecision}
		}

		source = nodes[idx+1]
	} else if step.Branch != "" {
		return nil, &CompileError{Step: i, Ref: step.Ref, Err: ErrBranchWithoutCondition}
	}

	edge.Source = source.ID

	if source.IsDecision() {
		handle := step.Branch
		if handle == "" {
			handle = models.HandleTrue
		}

		if handle != models.HandleTrue && handle != models.HandleFalse {
			return nil, &CompileError{Step: i, Ref: step.Ref, Err: ErrInvalidBranch}
		}

		edge.SourceHandle = handle
		edge.Label = branchLabel(source, handle)
	}

	return edge, nil
}

// TriggerLabel is "On: kw1, kw2" for keyword triggers and "Start" otherwise.
func TriggerLabel(keywords []string) string {
	if len(keywords) == 0 {
		return "Start"
	}

	return "On: " + strings.Join(keywords, ", ")
}

func stepLabel(step models.StepDescriptor) string {
	if label := strings.TrimSpace(step.Label); label != "" {
		return label
	}

	return step.Type.DefaultLabel()
}

// branchLabel uses the decision's own trueLabel/falseLabel when configured;
// an empty label lets readers fall back to Yes/No.
func branchLabel(decision *models.WorkflowNode, handle string) string {
	key := "trueLabel"
	if handle == models.HandleFalse {
		key = "falseLabel"
	}

	label, _ := decision.Config[key].(string)

	return label
}
