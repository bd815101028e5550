package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_EveryNodeType(t *testing.T) {
	for _, nt := range NodeTypes {
		cfg, err := NewConfig(nt)
		require.NoError(t, err, nt)
		assert.Equal(t, nt, cfg.NodeType())
	}

	_, err := NewConfig("teleport")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(NodeTypeThresholdCheck, map[string]any{
		"metric":    "temperature",
		"operator":  ">",
		"threshold": "85.5",
		"ignored":   true,
	})
	require.NoError(t, err)

	check, ok := cfg.(*ThresholdCheckConfig)
	require.True(t, ok)
	assert.Equal(t, "temperature", check.Metric)
	assert.InDelta(t, 85.5, check.Threshold, 0.0001, "numeric strings are converted")

	cfg, err = DecodeConfig(NodeTypeChecklist, map[string]any{"items": []any{"valve", "belt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"valve", "belt"}, cfg.(*ChecklistConfig).Items)

	_, err = DecodeConfig(NodeTypeDelay, map[string]any{"seconds": "soon"})
	assert.Error(t, err)
}

func TestEncodeConfig_OmitsZeroValues(t *testing.T) {
	raw, err := EncodeConfig(&DecisionConfig{Condition: "temperature > 80", TrueLabel: "Hot"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"condition": "temperature > 80",
		"trueLabel": "Hot",
	}, raw)
}
