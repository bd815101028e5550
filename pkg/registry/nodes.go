// Package registry provides the built-in node type table.
package registry

import (
	"log/slog"

	"github.com/dukex/flowedit/pkg/models"
)

var (
	allTiers        = []Tier{TierFree, TierPro, TierEnterprise}
	paidTiers       = []Tier{TierPro, TierEnterprise}
	enterpriseTiers = []Tier{TierEnterprise}
)

var defaultNodes = []NodeMeta{
	// Triggers
	{Type: models.NodeTypeManualTrigger, Icon: "hand-pointer", Color: "trigger",
		Description: "Started by a technician from the app.", Tiers: allTiers},
	{Type: models.NodeTypeScheduleTrigger, Icon: "calendar-clock", Color: "trigger",
		Description: "Starts on a recurring schedule.", Tiers: allTiers},
	{Type: models.NodeTypeSensorThreshold, Icon: "gauge", Color: "trigger",
		Description: "Starts when a sensor reading crosses a threshold.", Tiers: paidTiers},
	{Type: models.NodeTypeVoiceCommand, Icon: "mic", Color: "trigger",
		Description: "Starts when a spoken keyword is recognised.", Tiers: paidTiers},
	{Type: models.NodeTypeEquipmentAlarm, Icon: "siren", Color: "trigger",
		Description: "Starts when equipment raises an alarm.", Tiers: enterpriseTiers},

	// Conditions
	{Type: models.NodeTypeDecision, Icon: "git-branch", Color: "condition",
		Description: "Branches into a yes and a no path.", Tiers: allTiers},
	{Type: models.NodeTypeThresholdCheck, Icon: "ruler", Color: "condition",
		Description: "Checks a measured value against a limit.", Tiers: allTiers},
	{Type: models.NodeTypeTimeWindow, Icon: "clock", Color: "condition",
		Description: "Continues only inside a time window.", Tiers: paidTiers},

	// Inputs
	{Type: models.NodeTypePhotoCapture, Icon: "camera", Color: "input",
		Description: "Asks the technician for a photo.", Tiers: allTiers},
	{Type: models.NodeTypeChecklist, Icon: "list-checks", Color: "input",
		Description: "Presents a checklist to complete.", Tiers: allTiers},
	{Type: models.NodeTypeMeasurementInput, Icon: "thermometer", Color: "input",
		Description: "Records a manual measurement.", Tiers: allTiers},
	{Type: models.NodeTypeSignature, Icon: "pen-line", Color: "input",
		Description: "Collects a sign-off signature.", Tiers: paidTiers},

	// Actions
	{Type: models.NodeTypeSendAlert, Icon: "bell", Color: "action",
		Description: "Sends an alert over SMS, email or push.", Tiers: allTiers},
	{Type: models.NodeTypeCreateTicket, Icon: "ticket", Color: "action",
		Description: "Opens a maintenance work order.", Tiers: allTiers},
	{Type: models.NodeTypeNotifySupervisor, Icon: "user-check", Color: "action",
		Description: "Notifies the shift supervisor.", Tiers: allTiers},
	{Type: models.NodeTypeUpdateAsset, Icon: "database", Color: "action",
		Description: "Updates a field on the asset record.", Tiers: enterpriseTiers},
	{Type: models.NodeTypeLogEvent, Icon: "scroll-text", Color: "action",
		Description: "Writes an entry to the maintenance history.", Tiers: allTiers},

	// Utilities
	{Type: models.NodeTypeDelay, Icon: "hourglass", Color: "utility",
		Description: "Waits before continuing.", Tiers: allTiers},
	{Type: models.NodeTypeNote, Icon: "sticky-note", Color: "utility",
		Description: "Free-text annotation, skipped at run time.", Tiers: allTiers},
}

// RegisterDefaultNodes registers all built-in node types with the registry.
func (r *Registry) RegisterDefaultNodes() {
	for _, meta := range defaultNodes {
		meta.ConfigSchema = configSchemas[meta.Type]
		if err := r.Register(meta); err != nil {
			// The table is static: a failure here is a programming error.
			panic(err)
		}
	}
}

// Default returns a registry holding every built-in node type.
func Default() *Registry {
	r := NewRegistry(slog.Default())
	r.RegisterDefaultNodes()

	return r
}
