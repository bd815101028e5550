package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dukex/flowedit/pkg/linearize"
	"github.com/dukex/flowedit/pkg/models"
)

// Rules raised by graph checks.
const (
	RuleDuplicateNode = "duplicate_node"
	RuleDuplicateEdge = "duplicate_edge"
	RuleDanglingEdge  = "dangling_edge"
	RuleHandle        = "handle"
	RuleCycle         = "cycle"
	RuleDisconnected  = "disconnected"
	RuleNoTrigger     = "no_trigger"
)

func nodeHash(n *models.WorkflowNode) string {
	return n.ID
}

// BuildGraph loads nodes and edges into a directed graph keyed by node id and
// reports every integrity problem found on the way. Parallel edges between the
// same pair of nodes (the true and false branch of one decision) collapse into
// one graph edge.
func BuildGraph(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) (graph.Graph[string, *models.WorkflowNode], *Report) {
	report := &Report{}
	g := graph.New(nodeHash, graph.Directed())

	for i, node := range nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		if node == nil {
			report.addError(field, "required", "node is nil")

			continue
		}

		err := g.AddVertex(node,
			graph.VertexAttribute("label", node.Label),
			graph.VertexAttribute("shape", vertexShape(node)),
		)
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			report.addError(field+".id", RuleDuplicateNode, "node id %q is used more than once", node.ID)
		}
	}

	edgeIDs := make(map[string]bool, len(edges))
	routes := make(map[[3]string]bool, len(edges))

	for i, edge := range edges {
		field := fmt.Sprintf("edges[%d]", i)

		if edge == nil {
			report.addError(field, "required", "edge is nil")

			continue
		}

		if edgeIDs[edge.ID] {
			report.addError(field+".id", RuleDuplicateEdge, "edge id %q is used more than once", edge.ID)
		}

		edgeIDs[edge.ID] = true

		route := [3]string{edge.Source, edge.Target, edge.SourceHandle}
		if routes[route] {
			report.addError(field, RuleDuplicateEdge, "edge %s repeats %s -> %s", edge.ID, edge.Source, edge.Target)

			continue
		}

		routes[route] = true

		source, srcErr := g.Vertex(edge.Source)
		if srcErr == nil {
			checkHandle(report, field, source, edge)
		}

		err := g.AddEdge(edge.Source, edge.Target, graph.EdgeAttribute("label", edgeLabel(edge)))

		switch {
		case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		case errors.Is(err, graph.ErrVertexNotFound):
			missing := edge.Source
			if srcErr == nil {
				missing = edge.Target
			}

			report.addError(field, RuleDanglingEdge, "edge %s references missing node %q", edge.ID, missing)
		default:
			report.addError(field, RuleDanglingEdge, "edge %s cannot be added: %v", edge.ID, err)
		}
	}

	return g, report
}

func checkHandle(report *Report, field string, source *models.WorkflowNode, edge *models.WorkflowEdge) {
	switch {
	case edge.SourceHandle != "" && !source.IsDecision():
		report.addError(field+".sourceHandle", RuleHandle,
			"only decision nodes have %q handles, %s is a %s", edge.SourceHandle, source.ID, source.Type)
	case edge.SourceHandle == "" && source.IsDecision():
		report.addWarning(field+".sourceHandle", RuleHandle,
			"edge %s leaves decision %s without a true/false handle", edge.ID, source.ID)
	}
}

func edgeLabel(edge *models.WorkflowEdge) string {
	if edge.Label != "" {
		return edge.Label
	}

	switch edge.SourceHandle {
	case models.HandleTrue:
		return linearize.DefaultTrueLabel
	case models.HandleFalse:
		return linearize.DefaultFalseLabel
	}

	return ""
}

func vertexShape(node *models.WorkflowNode) string {
	switch {
	case node.IsDecision():
		return "diamond"
	case node.IsTrigger():
		return "oval"
	}

	return "box"
}

// structureWarnings flags shapes the editor accepts but that rarely make sense.
func structureWarnings(report *Report, g graph.Graph[string, *models.WorkflowNode], w *models.Workflow) {
	components, err := graph.StronglyConnectedComponents(g)
	if err == nil {
		for _, component := range components {
			if len(component) < 2 {
				continue
			}

			sort.Strings(component)
			report.addWarning("edges", RuleCycle, "nodes %s form a cycle", strings.Join(component, ", "))
		}
	}

	connected := make(map[string]bool, len(w.Nodes))

	for _, edge := range w.Edges {
		if edge == nil {
			continue
		}

		if edge.Source == edge.Target {
			report.addWarning("edges", RuleCycle, "edge %s connects node %s to itself", edge.ID, edge.Source)
		}

		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	hasTrigger := false

	for i, node := range w.Nodes {
		if node == nil {
			continue
		}

		if node.IsTrigger() {
			hasTrigger = true
		}

		if len(w.Nodes) > 1 && !connected[node.ID] && node.Type != models.NodeTypeNote {
			report.addWarning(fmt.Sprintf("nodes[%d]", i), RuleDisconnected, "node %s is not connected", node.ID)
		}
	}

	if len(w.Nodes) > 0 && !hasTrigger {
		report.addWarning("nodes", RuleNoTrigger, "workflow has no trigger node")
	}
}
