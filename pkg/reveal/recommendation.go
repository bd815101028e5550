package reveal

import (
	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/models"
)

// RecommendationGraph returns the graph generated for the "high vibration"
// recommendation: an equipment alarm feeding a decision whose true branch
// opens a ticket, notifies the supervisor and logs the event.
func RecommendationGraph(ids models.IDGenerator) ([]*models.WorkflowNode, []*models.WorkflowEdge) {
	if ids == nil {
		ids = models.NewSequence()
	}

	layout := compiler.LayoutVertical

	alarm := &models.WorkflowNode{
		ID:    ids.NodeID(),
		Type:  models.NodeTypeEquipmentAlarm,
		Label: "Vibration Alarm",
		Config: map[string]any{
			"alarmCode": "VIB-HIGH",
			"severity":  "high",
		},
		Position: layout.At(0),
	}

	decision := &models.WorkflowNode{
		ID:    ids.NodeID(),
		Type:  models.NodeTypeDecision,
		Label: "Vibration above 7 mm/s?",
		Config: map[string]any{
			"condition":  "vibration > 7.0",
			"trueLabel":  "Yes",
			"falseLabel": "No",
		},
		Position: layout.At(1),
	}

	ticket := &models.WorkflowNode{
		ID:    ids.NodeID(),
		Type:  models.NodeTypeCreateTicket,
		Label: "Create Maintenance Ticket",
		Config: map[string]any{
			"title":    "Inspect bearing for excessive vibration",
			"priority": "high",
		},
		Position: layout.At(2),
	}

	supervisor := &models.WorkflowNode{
		ID:    ids.NodeID(),
		Type:  models.NodeTypeNotifySupervisor,
		Label: "Notify Supervisor",
		Config: map[string]any{
			"message": "High vibration detected, ticket created",
			"urgent":  true,
		},
		Position: layout.At(3),
	}

	logEvent := &models.WorkflowNode{
		ID:    ids.NodeID(),
		Type:  models.NodeTypeLogEvent,
		Label: "Log Event",
		Config: map[string]any{
			"message": "Vibration response completed",
			"level":   "info",
		},
		Position: layout.At(4),
	}

	nodes := []*models.WorkflowNode{alarm, decision, ticket, supervisor, logEvent}

	edges := []*models.WorkflowEdge{
		{ID: ids.EdgeID(), Source: alarm.ID, Target: decision.ID, Animated: true},
		{ID: ids.EdgeID(), Source: decision.ID, Target: ticket.ID, SourceHandle: models.HandleTrue, Label: "Yes", Animated: true},
		{ID: ids.EdgeID(), Source: ticket.ID, Target: supervisor.ID, Animated: true},
		{ID: ids.EdgeID(), Source: supervisor.ID, Target: logEvent.ID, Animated: true},
	}

	return nodes, edges
}
