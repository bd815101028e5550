// Package validation checks workflows, nodes, edges and proposals before they
// reach the store: struct rules, per-type config schemas and graph integrity.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/google/cel-go/cel"
	"github.com/xeipuuv/gojsonschema"
)

// Rules raised outside graph checks.
const (
	RuleConfig    = "config"
	RuleCondition = "condition"
	RuleDocument  = "document"
	RuleReference = "reference"
)

// NewStructValidator returns a validator/v10 instance that knows the node type
// tags and reports fields by their JSON names.
func NewStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("nodetype", func(fl validator.FieldLevel) bool {
		return models.NodeType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("triggertype", func(fl validator.FieldLevel) bool {
		return models.NodeType(fl.Field().String()).IsTrigger()
	})

	return v
}

// Validator checks editor documents against struct tags, the registry's config
// schemas and graph integrity rules. It is safe for concurrent use.
type Validator struct {
	structs  *validator.Validate
	schemas  map[models.NodeType]*gojsonschema.Schema
	document *gojsonschema.Schema
	cel      *cel.Env
}

// New compiles the config schema of every node type in reg.
func New(reg *registry.Registry) (*Validator, error) {
	v := &Validator{
		structs: NewStructValidator(),
		schemas: make(map[models.NodeType]*gojsonschema.Schema),
	}

	for _, meta := range reg.All() {
		raw := reg.ConfigSchema(meta.Type)
		if raw == nil {
			continue
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid config schema for %s: %w", meta.Type, err)
		}

		v.schemas[meta.Type] = schema
	}

	document, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(documentSchema()))
	if err != nil {
		return nil, fmt.Errorf("invalid workflow document schema: %w", err)
	}

	v.document = document

	env, err := cel.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition environment: %w", err)
	}

	v.cel = env

	return v, nil
}

// Structs exposes the struct validator, for request bodies.
func (v *Validator) Structs() *validator.Validate {
	return v.structs
}

// Check validates a whole workflow and returns every error and warning.
func (v *Validator) Check(w *models.Workflow) *Report {
	report := &Report{}

	if w == nil {
		report.addError("", "required", "workflow is required")

		return report
	}

	v.structIssues(report, "", w)

	for i, node := range w.Nodes {
		if node == nil {
			continue
		}

		field := fmt.Sprintf("nodes[%d]", i)
		v.configIssues(report, field+".config", node.Type, node.Config)
		v.conditionIssues(report, field+".config.condition", node.Type, node.Config)
	}

	g, graphReport := BuildGraph(w.Nodes, w.Edges)
	report.merge(graphReport)
	structureWarnings(report, g, w)

	return report
}

// Workflow returns a *Report error when w has errors. Warnings are ignored.
func (v *Validator) Workflow(w *models.Workflow) error {
	return v.Check(w).Err()
}

// Node validates a single node and its config.
func (v *Validator) Node(n *models.WorkflowNode) error {
	report := &Report{}

	if n == nil {
		report.addError("", "required", "node is required")

		return report.Err()
	}

	v.structIssues(report, "", n)
	v.configIssues(report, "config", n.Type, n.Config)

	return report.Err()
}

// Edge validates a single edge's fields. Endpoints are checked by Workflow.
func (v *Validator) Edge(e *models.WorkflowEdge) error {
	report := &Report{}

	if e == nil {
		report.addError("", "required", "edge is required")

		return report.Err()
	}

	v.structIssues(report, "", e)

	return report.Err()
}

// CheckIntent validates a proposal, including its condition references.
func (v *Validator) CheckIntent(intent *models.VoiceWorkflowIntent) *Report {
	report := &Report{}

	if intent == nil {
		report.addError("", "required", "intent is required")

		return report
	}

	v.structIssues(report, "", intent)

	refs := make(map[string]int, len(intent.Steps))

	for i, step := range intent.Steps {
		field := fmt.Sprintf("steps[%d]", i)

		v.configIssues(report, field+".config", step.Type, step.Config)
		v.conditionIssues(report, field+".config.condition", step.Type, step.Config)

		switch idx, ok := refs[step.ConditionRef]; {
		case step.ConditionRef == "":
		case !ok:
			report.addError(field+".conditionRef", RuleReference,
				"%q does not name an earlier step", step.ConditionRef)
		case intent.Steps[idx].Type != models.NodeTypeDecision:
			report.addError(field+".conditionRef", RuleReference,
				"%q is a %s step, not a decision", step.ConditionRef, intent.Steps[idx].Type)
		}

		if step.Branch != "" && step.ConditionRef == "" {
			report.addWarning(field+".branch", RuleReference, "branch is ignored without a conditionRef")
		}

		if step.Ref == "" {
			continue
		}

		if _, dup := refs[step.Ref]; dup {
			report.addError(field+".ref", RuleReference, "ref %q is used more than once", step.Ref)

			continue
		}

		refs[step.Ref] = i
	}

	return report
}

// Intent returns a *Report error when the proposal has errors.
func (v *Validator) Intent(intent *models.VoiceWorkflowIntent) error {
	return v.CheckIntent(intent).Err()
}

// Document validates a raw JSON workflow export and decodes it. The decoded
// workflow is returned only when the document has no errors.
func (v *Validator) Document(data []byte) (*models.Workflow, error) {
	result, err := v.document.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		report := &Report{}
		report.addError("", RuleDocument, "document is not valid JSON: %v", err)

		return nil, report
	}

	if !result.Valid() {
		report := &Report{}

		for _, re := range result.Errors() {
			report.addError(schemaField("", re.Field()), re.Type(), "%s", re.Description())
		}

		return nil, report
	}

	var w models.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		report := &Report{}
		report.addError("", RuleDocument, "cannot decode workflow: %v", err)

		return nil, report
	}

	if err := v.Workflow(&w); err != nil {
		return nil, err
	}

	return &w, nil
}

func (v *Validator) structIssues(report *Report, prefix string, s any) {
	err := v.structs.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		report.addError(prefix, "struct", "%v", err)

		return
	}

	for _, fe := range fieldErrs {
		report.addError(structField(prefix, fe.Namespace()), fe.Tag(), "%s", describe(fe))
	}
}

// structField drops the root type name from a validator namespace:
// "Workflow.nodes[0].type" becomes "nodes[0].type".
func structField(prefix, namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}

	if prefix == "" {
		return namespace
	}

	return prefix + "." + namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "nodetype":
		return fmt.Sprintf("unknown node type %q", fe.Value())
	case "triggertype":
		return fmt.Sprintf("%q is not a trigger node type", fe.Value())
	}

	return "failed " + fe.Tag() + " validation"
}

func (v *Validator) configIssues(report *Report, field string, t models.NodeType, config map[string]any) {
	schema, ok := v.schemas[t]
	if !ok {
		return
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		report.addError(field, RuleConfig, "cannot validate config: %v", err)

		return
	}

	for _, re := range result.Errors() {
		report.addError(schemaField(field, re.Field()), RuleConfig, "%s", re.Description())
	}
}

// conditionIssues syntax-checks decision conditions. Problems are warnings:
// conditions are never evaluated by the editor.
func (v *Validator) conditionIssues(report *Report, field string, t models.NodeType, config map[string]any) {
	if t != models.NodeTypeDecision {
		return
	}

	condition, _ := config["condition"].(string)
	if strings.TrimSpace(condition) == "" {
		report.addWarning(field, RuleCondition, "decision has no condition")

		return
	}

	if _, issues := v.cel.Parse(condition); issues != nil && issues.Err() != nil {
		report.addWarning(field, RuleCondition, "condition does not parse: %v", issues.Err())
	}
}

// rootField is how gojsonschema names the document root.
const rootField = "(root)"

func schemaField(prefix, field string) string {
	if field == "" || field == rootField {
		return prefix
	}

	if prefix == "" {
		return field
	}

	return prefix + "." + field
}
