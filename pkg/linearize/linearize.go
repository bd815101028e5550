// Package linearize orders a workflow graph into the step sequence shown by
// the card view.
package linearize

import (
	"github.com/dukex/flowedit/pkg/models"
)

// Default branch labels for decision edges without an explicit label.
const (
	DefaultTrueLabel  = "Yes"
	DefaultFalseLabel = "No"
)

// Linearize returns a best-effort topological ordering of nodes.
//
// Traversal is breadth-first from the first root (a node that is never an
// edge target), following outgoing edges in edge order and emitting each node
// once. Nodes the traversal never reaches are appended in stored order. When
// every node has an incoming edge the stored order is returned unchanged.
func Linearize(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) []*models.WorkflowNode {
	if len(nodes) == 0 {
		return []*models.WorkflowNode{}
	}

	byID := make(map[string]*models.WorkflowNode, len(nodes))
	for _, node := range nodes {
		if _, seen := byID[node.ID]; !seen {
			byID[node.ID] = node
		}
	}

	targeted := make(map[string]bool, len(edges))
	outgoing := make(map[string][]string, len(nodes))

	for _, edge := range edges {
		targeted[edge.Target] = true
		outgoing[edge.Source] = append(outgoing[edge.Source], edge.Target)
	}

	var root *models.WorkflowNode

	for _, node := range nodes {
		if !targeted[node.ID] {
			root = node

			break
		}
	}

	if root == nil {
		return append([]*models.WorkflowNode{}, nodes...)
	}

	ordered := make([]*models.WorkflowNode, 0, len(nodes))
	visited := make(map[string]bool, len(nodes))

	queue := []string{root.ID}
	visited[root.ID] = true

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		ordered = append(ordered, byID[id])

		for _, next := range outgoing[id] {
			if visited[next] {
				continue
			}

			// edges may name ids outside the node list
			if _, ok := byID[next]; !ok {
				continue
			}

			visited[next] = true
			queue = append(queue, next)
		}
	}

	for _, node := range nodes {
		if !visited[node.ID] {
			visited[node.ID] = true
			ordered = append(ordered, node)
		}
	}

	return ordered
}

// Branch is one outgoing route of a decision node as shown in the card view.
type Branch struct {
	Handle string `json:"handle"`
	Label  string `json:"label"`
	Target string `json:"target"`
}

// BranchLabels lists the outgoing routes of a decision node in edge order.
// Edges without a label are labelled Yes or No by handle. Non-decision nodes
// have no branches.
func BranchLabels(node *models.WorkflowNode, edges []*models.WorkflowEdge) []Branch {
	if node == nil || !node.IsDecision() {
		return nil
	}

	var branches []Branch

	for _, edge := range edges {
		if edge.Source != node.ID {
			continue
		}

		branches = append(branches, Branch{
			Handle: edge.SourceHandle,
			Label:  edgeLabel(edge),
			Target: edge.Target,
		})
	}

	return branches
}

func edgeLabel(edge *models.WorkflowEdge) string {
	if edge.Label != "" {
		return edge.Label
	}

	switch edge.SourceHandle {
	case models.HandleTrue:
		return DefaultTrueLabel
	case models.HandleFalse:
		return DefaultFalseLabel
	}

	return ""
}

// Card is one entry of the card view.
type Card struct {
	Index    int                  `json:"index"`
	Node     *models.WorkflowNode `json:"node"`
	Branches []Branch             `json:"branches,omitempty"`
}

// Cards builds the card view: the linearized nodes numbered from 1, with
// branch labels attached to decision nodes.
func Cards(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) []Card {
	ordered := Linearize(nodes, edges)

	cards := make([]Card, len(ordered))
	for i, node := range ordered {
		cards[i] = Card{
			Index:    i + 1,
			Node:     node,
			Branches: BranchLabels(node, edges),
		}
	}

	return cards
}
