package services

import (
	"github.com/dukex/flowedit/pkg/linearize"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/dukex/flowedit/pkg/store"
)

// PaletteEntry is one draggable node type. Locked entries are shown but not
// usable on the session's tier.
type PaletteEntry struct {
	registry.NodeMeta
	Locked bool `json:"locked"`
}

// PaletteGroup is one category of the palette.
type PaletteGroup struct {
	Category models.CategoryType `json:"category"`
	Entries  []PaletteEntry      `json:"entries"`
}

// Palette lists every registered node type grouped by category.
func (e *Editor) Palette() []PaletteGroup {
	groups := make([]PaletteGroup, 0, len(models.Categories))

	for _, category := range models.Categories {
		metas := e.registry.ByCategory(category)
		if len(metas) == 0 {
			continue
		}

		group := PaletteGroup{Category: category, Entries: make([]PaletteEntry, len(metas))}
		for i, meta := range metas {
			group.Entries[i] = PaletteEntry{NodeMeta: meta, Locked: !meta.AvailableIn(e.tier)}
		}

		groups = append(groups, group)
	}

	return groups
}

// CardView is the linearized list view of the current workflow.
type CardView struct {
	WorkflowID string           `json:"workflowId"`
	Streaming  bool             `json:"streaming"`
	Cards      []linearize.Card `json:"cards"`
}

// CardView orders the current graph for the list view.
func (e *Editor) CardView() (*CardView, error) {
	w := e.store.Snapshot()
	if w == nil {
		return nil, errNoWorkflow("CardView")
	}

	return &CardView{
		WorkflowID: w.ID,
		Streaming:  e.store.Streaming(),
		Cards:      linearize.Cards(w.Nodes, w.Edges),
	}, nil
}

// CanvasNode is a stored node joined with its registry metadata.
type CanvasNode struct {
	*models.WorkflowNode
	Category models.CategoryType `json:"category"`
	Icon     string              `json:"icon"`
	Color    string              `json:"color"`
	Locked   bool                `json:"locked"`
	Selected bool                `json:"selected"`
	Status   models.NodeStatus   `json:"status,omitempty"`
}

// CanvasEdge is a stored edge with the label the canvas draws.
type CanvasEdge struct {
	*models.WorkflowEdge
	DisplayLabel string `json:"displayLabel,omitempty"`
}

// Canvas is the freeform view of the current workflow.
type Canvas struct {
	WorkflowID string       `json:"workflowId"`
	Title      string       `json:"title"`
	Streaming  bool         `json:"streaming"`
	Executing  bool         `json:"executing"`
	Nodes      []CanvasNode `json:"nodes"`
	Edges      []CanvasEdge `json:"edges"`
}

// CanvasView projects the current graph for the canvas. Nodes of unregistered
// types are kept with empty metadata. Node status reflects the latest run log.
func (e *Editor) CanvasView() (*Canvas, error) {
	w := e.store.Snapshot()
	if w == nil {
		return nil, errNoWorkflow("CanvasView")
	}

	executing := e.simulator.Executing()

	status := make(map[string]models.NodeStatus)
	for _, entry := range e.simulator.Log() {
		status[entry.NodeID] = entry.Status
	}

	selected := e.store.Selected()

	canvas := &Canvas{
		WorkflowID: w.ID,
		Title:      w.Title,
		Streaming:  e.store.Streaming(),
		Executing:  executing,
		Nodes:      make([]CanvasNode, len(w.Nodes)),
		Edges:      make([]CanvasEdge, len(w.Edges)),
	}

	for i, node := range w.Nodes {
		cn := CanvasNode{WorkflowNode: node, Selected: node.ID == selected}

		if meta, ok := e.registry.Lookup(node.Type); ok {
			cn.Category = meta.Category
			cn.Icon = meta.Icon
			cn.Color = meta.Color
			cn.Locked = !meta.AvailableIn(e.tier)
		}

		switch s, ran := status[node.ID]; {
		case ran:
			cn.Status = s
		case executing:
			cn.Status = models.NodeStatusPending
		}

		canvas.Nodes[i] = cn
	}

	labels := make(map[string]string)

	for _, node := range w.Nodes {
		for _, branch := range linearize.BranchLabels(node, w.Edges) {
			labels[node.ID+"/"+branch.Handle+"/"+branch.Target] = branch.Label
		}
	}

	for i, edge := range w.Edges {
		label := edge.Label
		if branchLabel, ok := labels[edge.Source+"/"+edge.SourceHandle+"/"+edge.Target]; ok {
			label = branchLabel
		}

		canvas.Edges[i] = CanvasEdge{WorkflowEdge: edge, DisplayLabel: label}
	}

	return canvas, nil
}

func errNoWorkflow(op string) error {
	return &ServiceError{Op: op, Message: "no workflow loaded", Err: store.ErrNoWorkflow}
}
