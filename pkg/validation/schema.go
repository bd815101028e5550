package validation

import (
	"github.com/dukex/flowedit/pkg/models"
)

func nodeTypeNames() []string {
	names := make([]string, len(models.NodeTypes))
	for i, t := range models.NodeTypes {
		names[i] = string(t)
	}

	return names
}

// documentSchema describes a workflow export as accepted by LoadWorkflow.
// Config objects are checked separately against the node type's schema.
func documentSchema() map[string]any {
	position := map[string]any{
		"type":     "object",
		"required": []string{"x", "y"},
		"properties": map[string]any{
			"x": map[string]any{"type": "number"},
			"y": map[string]any{"type": "number"},
		},
	}

	node := map[string]any{
		"type":     "object",
		"required": []string{"id", "type"},
		"properties": map[string]any{
			"id":       map[string]any{"type": "string", "minLength": 1},
			"type":     map[string]any{"type": "string", "enum": nodeTypeNames()},
			"label":    map[string]any{"type": "string"},
			"config":   map[string]any{"type": []string{"object", "null"}},
			"position": position,
		},
	}

	edge := map[string]any{
		"type":     "object",
		"required": []string{"id", "source", "target"},
		"properties": map[string]any{
			"id":           map[string]any{"type": "string", "minLength": 1},
			"source":       map[string]any{"type": "string", "minLength": 1},
			"target":       map[string]any{"type": "string", "minLength": 1},
			"sourceHandle": map[string]any{"type": "string", "enum": []string{"", models.HandleTrue, models.HandleFalse}},
			"label":        map[string]any{"type": "string"},
			"animated":     map[string]any{"type": "boolean"},
		},
	}

	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"title":    "Workflow",
		"type":     "object",
		"required": []string{"id", "title", "status", "nodes", "edges"},
		"properties": map[string]any{
			"id":          map[string]any{"type": "string", "minLength": 1},
			"title":       map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
			"description": map[string]any{"type": "string"},
			"version":     map[string]any{"type": "integer", "minimum": 1},
			"status": map[string]any{
				"type": "string",
				"enum": []string{
					string(models.WorkflowStatusDraft),
					string(models.WorkflowStatusActive),
					string(models.WorkflowStatusArchived),
				},
			},
			"nodes":          map[string]any{"type": []string{"array", "null"}, "items": node},
			"edges":          map[string]any{"type": []string{"array", "null"}, "items": edge},
			"tags":           map[string]any{"type": []string{"array", "null"}, "items": map[string]any{"type": "string"}},
			"executionCount": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}
