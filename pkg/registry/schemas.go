package registry

import "github.com/dukex/flowedit/pkg/models"

// object builds a config schema. No property is required: a freshly dropped
// node carries an empty config and must stay loadable.
func object(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func num(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func strList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

var operators = []string{">", ">=", "<", "<=", "==", "!="}

// configSchemas holds the JSON schema of each node type's configuration.
// Fields are optional unless the node cannot be meaningfully configured without them.
var configSchemas = map[models.NodeType]map[string]any{
	models.NodeTypeManualTrigger: object(map[string]any{
		"buttonLabel": str("Text on the start button"),
	}),
	models.NodeTypeScheduleTrigger: object(map[string]any{
		"cron":     str("Cron expression, e.g. '0 6 * * 1-5'"),
		"timezone": str("IANA timezone name"),
	}),
	models.NodeTypeSensorThreshold: object(map[string]any{
		"sensorId":  str("Sensor identifier"),
		"metric":    str("Measured quantity, e.g. vibration"),
		"operator":  enum("Comparison operator", operators...),
		"threshold": num("Threshold value"),
		"unit":      str("Unit of the threshold"),
	}),
	models.NodeTypeVoiceCommand: object(map[string]any{
		"keywords": strList("Spoken keywords that start the workflow"),
	}),
	models.NodeTypeEquipmentAlarm: object(map[string]any{
		"assetId":   str("Equipment identifier"),
		"alarmCode": str("Alarm code raised by the controller"),
		"severity":  enum("Alarm severity", "low", "medium", "high", "critical"),
	}),
	models.NodeTypeDecision: object(map[string]any{
		"condition":  str("Expression deciding between the yes and no branch"),
		"trueLabel":  str("Label of the yes branch"),
		"falseLabel": str("Label of the no branch"),
	}),
	models.NodeTypeThresholdCheck: object(map[string]any{
		"metric":    str("Measured quantity"),
		"operator":  enum("Comparison operator", operators...),
		"threshold": num("Limit value"),
	}),
	models.NodeTypeTimeWindow: object(map[string]any{
		"start": str("Window start, HH:MM"),
		"end":   str("Window end, HH:MM"),
		"days":  strList("Weekdays the window applies to"),
	}),
	models.NodeTypePhotoCapture: object(map[string]any{
		"prompt":   str("Instruction shown to the technician"),
		"required": boolean("Whether the photo is mandatory"),
	}),
	models.NodeTypeChecklist: object(map[string]any{
		"items":      strList("Checklist items"),
		"requireAll": boolean("Whether every item must be ticked"),
	}),
	models.NodeTypeMeasurementInput: object(map[string]any{
		"prompt": str("Instruction shown to the technician"),
		"unit":   str("Unit of the measurement"),
		"min":    num("Lowest accepted value"),
		"max":    num("Highest accepted value"),
	}),
	models.NodeTypeSignature: object(map[string]any{
		"role":   str("Role of the signer"),
		"prompt": str("Instruction shown to the signer"),
	}),
	models.NodeTypeSendAlert: object(map[string]any{
		"channel":         enum("Delivery channel", "sms", "email", "push"),
		"recipient":       str("Recipient address or group"),
		"messageTemplate": str("Message body; may reference workflow data"),
	}),
	models.NodeTypeCreateTicket: object(map[string]any{
		"title":    str("Ticket title"),
		"priority": enum("Ticket priority", "low", "medium", "high", "urgent"),
		"assignee": str("Assigned technician or team"),
	}),
	models.NodeTypeNotifySupervisor: object(map[string]any{
		"supervisor": str("Supervisor to notify; defaults to the shift supervisor"),
		"message":    str("Notification text"),
		"urgent":     boolean("Escalate as urgent"),
	}),
	models.NodeTypeUpdateAsset: object(map[string]any{
		"assetId": str("Asset to update"),
		"field":   str("Field to update"),
		"value":   str("New value"),
	}),
	models.NodeTypeLogEvent: object(map[string]any{
		"message": str("History entry text"),
		"level":   enum("Entry level", "info", "warning", "error"),
	}),
	models.NodeTypeDelay: object(map[string]any{
		"seconds": map[string]any{"type": "integer", "minimum": 0, "description": "Seconds to wait"},
	}),
	models.NodeTypeNote: object(map[string]any{
		"text": str("Note text"),
	}),
}
