package models

import "time"

// TriggerDescriptor is the trigger part of a parsed voice/text proposal.
type TriggerDescriptor struct {
	Type     NodeType `json:"type"               validate:"required,nodetype,triggertype"`
	Keywords []string `json:"keywords,omitempty" validate:"dive,required"`
}

// StepDescriptor is one ordered step of a parsed proposal.
//
// Ref is an optional caller-chosen key other steps can point at through
// ConditionRef; Branch selects which decision handle the step hangs from.
type StepDescriptor struct {
	Ref          string         `json:"ref,omitempty"`
	Type         NodeType       `json:"type"                   validate:"required,nodetype"`
	Label        string         `json:"label"                  validate:"max=200"`
	Config       map[string]any `json:"config,omitempty"`
	ConditionRef string         `json:"conditionRef,omitempty"`
	Branch       string         `json:"branch,omitempty"       validate:"omitempty,oneof=true false"`
}

// VoiceWorkflowIntent is a workflow proposal produced from natural language.
// It is never stored directly; it is compiled into nodes and edges.
type VoiceWorkflowIntent struct {
	Title       string            `json:"title"                 validate:"required,max=120"`
	Description string            `json:"description"           validate:"max=2000"`
	TargetAsset *TargetAsset      `json:"targetAsset,omitempty" validate:"omitempty"`
	Trigger     TriggerDescriptor `json:"trigger"`
	Steps       []StepDescriptor  `json:"steps"                 validate:"dive"`
	SafetyCheck *SafetyCheck      `json:"safetyCheck,omitempty" validate:"omitempty"`
}

// Clone returns a deep copy of the intent.
func (i *VoiceWorkflowIntent) Clone() *VoiceWorkflowIntent {
	if i == nil {
		return nil
	}

	c := *i
	c.Trigger.Keywords = cloneStrings(i.Trigger.Keywords)

	if i.TargetAsset != nil {
		asset := *i.TargetAsset
		asset.Tags = cloneStrings(i.TargetAsset.Tags)
		c.TargetAsset = &asset
	}

	if i.SafetyCheck != nil {
		safety := *i.SafetyCheck
		safety.RequiredPPE = cloneStrings(i.SafetyCheck.RequiredPPE)
		c.SafetyCheck = &safety
	}

	if i.Steps != nil {
		c.Steps = make([]StepDescriptor, len(i.Steps))
		for idx, step := range i.Steps {
			step.Config = CloneConfig(step.Config)
			c.Steps[idx] = step
		}
	}

	return &c
}

// CardStatus is the state of a pending proposal.
type CardStatus string

const (
	CardStatusPending   CardStatus = "pending"
	CardStatusConfirmed CardStatus = "confirmed"
	CardStatusEditing   CardStatus = "editing"
	CardStatusRejected  CardStatus = "rejected"
)

// IntentEdits are user corrections merged over a proposal before compilation.
// Nil fields leave the original value untouched.
type IntentEdits struct {
	Title       *string            `json:"title,omitempty"       validate:"omitempty,max=120"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	TargetAsset *TargetAsset       `json:"targetAsset,omitempty" validate:"omitempty"`
	Trigger     *TriggerDescriptor `json:"trigger,omitempty"     validate:"omitempty"`
	Steps       []StepDescriptor   `json:"steps,omitempty"       validate:"omitempty,dive"`
	SafetyCheck *SafetyCheck       `json:"safetyCheck,omitempty" validate:"omitempty"`
}

// ConfirmationCard wraps a proposal between its creation and the user's decision.
type ConfirmationCard struct {
	ID        string               `json:"id"`
	Intent    *VoiceWorkflowIntent `json:"intent"`
	Status    CardStatus           `json:"status"`
	Edits     *IntentEdits         `json:"edits,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Open reports whether the card still awaits a decision.
func (c *ConfirmationCard) Open() bool {
	return c.Status == CardStatusPending || c.Status == CardStatusEditing
}

// Resolved returns the intent with the user's edits applied.
func (c *ConfirmationCard) Resolved() *VoiceWorkflowIntent {
	intent := c.Intent.Clone()
	if intent == nil || c.Edits == nil {
		return intent
	}

	edits := c.Edits
	if edits.Title != nil {
		intent.Title = *edits.Title
	}

	if edits.Description != nil {
		intent.Description = *edits.Description
	}

	if edits.TargetAsset != nil {
		asset := *edits.TargetAsset
		intent.TargetAsset = &asset
	}

	if edits.Trigger != nil {
		intent.Trigger = *edits.Trigger
		intent.Trigger.Keywords = cloneStrings(edits.Trigger.Keywords)
	}

	if edits.Steps != nil {
		intent.Steps = (&VoiceWorkflowIntent{Steps: edits.Steps}).Clone().Steps
	}

	if edits.SafetyCheck != nil {
		safety := *edits.SafetyCheck
		intent.SafetyCheck = &safety
	}

	return intent
}

// Clone returns a deep copy of the edits.
func (e *IntentEdits) Clone() *IntentEdits {
	if e == nil {
		return nil
	}

	c := *e
	c.Title = clonePtr(e.Title)
	c.Description = clonePtr(e.Description)

	if e.TargetAsset != nil {
		asset := *e.TargetAsset
		asset.Tags = cloneStrings(e.TargetAsset.Tags)
		c.TargetAsset = &asset
	}

	if e.Trigger != nil {
		trigger := *e.Trigger
		trigger.Keywords = cloneStrings(e.Trigger.Keywords)
		c.Trigger = &trigger
	}

	if e.Steps != nil {
		c.Steps = (&VoiceWorkflowIntent{Steps: e.Steps}).Clone().Steps
	}

	if e.SafetyCheck != nil {
		safety := *e.SafetyCheck
		safety.RequiredPPE = cloneStrings(e.SafetyCheck.RequiredPPE)
		c.SafetyCheck = &safety
	}

	return &c
}

// Clone returns a deep copy of the card.
func (c *ConfirmationCard) Clone() *ConfirmationCard {
	if c == nil {
		return nil
	}

	out := *c
	out.Intent = c.Intent.Clone()
	out.Edits = c.Edits.Clone()

	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
