package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// NodeConfig is the typed configuration of one node type. Nodes keep their
// configuration as an open map so it round-trips through JSON verbatim;
// DecodeConfig gives the config panel a typed view keyed by node type.
type NodeConfig interface {
	NodeType() NodeType
}

type ManualTriggerConfig struct {
	ButtonLabel string `mapstructure:"buttonLabel,omitempty"`
}

type ScheduleTriggerConfig struct {
	Cron     string `mapstructure:"cron,omitempty"`
	Timezone string `mapstructure:"timezone,omitempty"`
}

type SensorThresholdConfig struct {
	SensorID  string  `mapstructure:"sensorId,omitempty"`
	Metric    string  `mapstructure:"metric,omitempty"`
	Operator  string  `mapstructure:"operator,omitempty"`
	Threshold float64 `mapstructure:"threshold,omitempty"`
	Unit      string  `mapstructure:"unit,omitempty"`
}

type VoiceCommandConfig struct {
	Keywords []string `mapstructure:"keywords,omitempty"`
}

type EquipmentAlarmConfig struct {
	AssetID   string `mapstructure:"assetId,omitempty"`
	AlarmCode string `mapstructure:"alarmCode,omitempty"`
	Severity  string `mapstructure:"severity,omitempty"`
}

type DecisionConfig struct {
	Condition  string `mapstructure:"condition,omitempty"`
	TrueLabel  string `mapstructure:"trueLabel,omitempty"`
	FalseLabel string `mapstructure:"falseLabel,omitempty"`
}

type ThresholdCheckConfig struct {
	Metric    string  `mapstructure:"metric,omitempty"`
	Operator  string  `mapstructure:"operator,omitempty"`
	Threshold float64 `mapstructure:"threshold,omitempty"`
}

type TimeWindowConfig struct {
	Start string   `mapstructure:"start,omitempty"`
	End   string   `mapstructure:"end,omitempty"`
	Days  []string `mapstructure:"days,omitempty"`
}

type PhotoCaptureConfig struct {
	Prompt   string `mapstructure:"prompt,omitempty"`
	Required bool   `mapstructure:"required,omitempty"`
}

type ChecklistConfig struct {
	Items      []string `mapstructure:"items,omitempty"`
	RequireAll bool     `mapstructure:"requireAll,omitempty"`
}

type MeasurementInputConfig struct {
	Prompt string  `mapstructure:"prompt,omitempty"`
	Unit   string  `mapstructure:"unit,omitempty"`
	Min    float64 `mapstructure:"min,omitempty"`
	Max    float64 `mapstructure:"max,omitempty"`
}

type SignatureConfig struct {
	Role   string `mapstructure:"role,omitempty"`
	Prompt string `mapstructure:"prompt,omitempty"`
}

type SendAlertConfig struct {
	Channel         string `mapstructure:"channel,omitempty"`
	Recipient       string `mapstructure:"recipient,omitempty"`
	MessageTemplate string `mapstructure:"messageTemplate,omitempty"`
}

type CreateTicketConfig struct {
	Title    string `mapstructure:"title,omitempty"`
	Priority string `mapstructure:"priority,omitempty"`
	Assignee string `mapstructure:"assignee,omitempty"`
}

type NotifySupervisorConfig struct {
	Supervisor string `mapstructure:"supervisor,omitempty"`
	Message    string `mapstructure:"message,omitempty"`
	Urgent     bool   `mapstructure:"urgent,omitempty"`
}

type UpdateAssetConfig struct {
	AssetID string `mapstructure:"assetId,omitempty"`
	Field   string `mapstructure:"field,omitempty"`
	Value   string `mapstructure:"value,omitempty"`
}

type LogEventConfig struct {
	Message string `mapstructure:"message,omitempty"`
	Level   string `mapstructure:"level,omitempty"`
}

type DelayConfig struct {
	Seconds int `mapstructure:"seconds,omitempty"`
}

type NoteConfig struct {
	Text string `mapstructure:"text,omitempty"`
}

func (ManualTriggerConfig) NodeType() NodeType    { return NodeTypeManualTrigger }
func (ScheduleTriggerConfig) NodeType() NodeType  { return NodeTypeScheduleTrigger }
func (SensorThresholdConfig) NodeType() NodeType  { return NodeTypeSensorThreshold }
func (VoiceCommandConfig) NodeType() NodeType     { return NodeTypeVoiceCommand }
func (EquipmentAlarmConfig) NodeType() NodeType   { return NodeTypeEquipmentAlarm }
func (DecisionConfig) NodeType() NodeType         { return NodeTypeDecision }
func (ThresholdCheckConfig) NodeType() NodeType   { return NodeTypeThresholdCheck }
func (TimeWindowConfig) NodeType() NodeType       { return NodeTypeTimeWindow }
func (PhotoCaptureConfig) NodeType() NodeType     { return NodeTypePhotoCapture }
func (ChecklistConfig) NodeType() NodeType        { return NodeTypeChecklist }
func (MeasurementInputConfig) NodeType() NodeType { return NodeTypeMeasurementInput }
func (SignatureConfig) NodeType() NodeType        { return NodeTypeSignature }
func (SendAlertConfig) NodeType() NodeType        { return NodeTypeSendAlert }
func (CreateTicketConfig) NodeType() NodeType     { return NodeTypeCreateTicket }
func (NotifySupervisorConfig) NodeType() NodeType { return NodeTypeNotifySupervisor }
func (UpdateAssetConfig) NodeType() NodeType      { return NodeTypeUpdateAsset }
func (LogEventConfig) NodeType() NodeType         { return NodeTypeLogEvent }
func (DelayConfig) NodeType() NodeType            { return NodeTypeDelay }
func (NoteConfig) NodeType() NodeType             { return NodeTypeNote }

var configFactories = map[NodeType]func() NodeConfig{
	NodeTypeManualTrigger:    func() NodeConfig { return &ManualTriggerConfig{} },
	NodeTypeScheduleTrigger:  func() NodeConfig { return &ScheduleTriggerConfig{} },
	NodeTypeSensorThreshold:  func() NodeConfig { return &SensorThresholdConfig{} },
	NodeTypeVoiceCommand:     func() NodeConfig { return &VoiceCommandConfig{} },
	NodeTypeEquipmentAlarm:   func() NodeConfig { return &EquipmentAlarmConfig{} },
	NodeTypeDecision:         func() NodeConfig { return &DecisionConfig{} },
	NodeTypeThresholdCheck:   func() NodeConfig { return &ThresholdCheckConfig{} },
	NodeTypeTimeWindow:       func() NodeConfig { return &TimeWindowConfig{} },
	NodeTypePhotoCapture:     func() NodeConfig { return &PhotoCaptureConfig{} },
	NodeTypeChecklist:        func() NodeConfig { return &ChecklistConfig{} },
	NodeTypeMeasurementInput: func() NodeConfig { return &MeasurementInputConfig{} },
	NodeTypeSignature:        func() NodeConfig { return &SignatureConfig{} },
	NodeTypeSendAlert:        func() NodeConfig { return &SendAlertConfig{} },
	NodeTypeCreateTicket:     func() NodeConfig { return &CreateTicketConfig{} },
	NodeTypeNotifySupervisor: func() NodeConfig { return &NotifySupervisorConfig{} },
	NodeTypeUpdateAsset:      func() NodeConfig { return &UpdateAssetConfig{} },
	NodeTypeLogEvent:         func() NodeConfig { return &LogEventConfig{} },
	NodeTypeDelay:            func() NodeConfig { return &DelayConfig{} },
	NodeTypeNote:             func() NodeConfig { return &NoteConfig{} },
}

// NewConfig returns the zero configuration variant for t.
func NewConfig(t NodeType) (NodeConfig, error) {
	factory, ok := configFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}

	return factory(), nil
}

// DecodeConfig converts an open configuration map into the typed variant for t.
// Unknown keys are ignored; scalar types are converted where unambiguous.
func DecodeConfig(t NodeType, raw map[string]any) (NodeConfig, error) {
	cfg, err := NewConfig(t)
	if err != nil {
		return nil, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", t, err)
	}

	return cfg, nil
}

// EncodeConfig converts a typed configuration back into the open map stored on nodes.
// Zero-valued fields are omitted.
func EncodeConfig(cfg NodeConfig) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(cfg, &out); err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", cfg.NodeType(), err)
	}

	return out, nil
}
