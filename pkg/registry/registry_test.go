package registry

import (
	"log/slog"
	"testing"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistersEveryNodeType(t *testing.T) {
	r := Default()

	all := r.All()
	require.Len(t, all, len(models.NodeTypes))

	for i, nodeType := range models.NodeTypes {
		assert.Equal(t, nodeType, all[i].Type, "registry order follows the palette order")

		meta, ok := r.Lookup(nodeType)
		require.True(t, ok, "missing %s", nodeType)
		assert.Equal(t, nodeType.Category(), meta.Category)
		assert.Equal(t, nodeType.DefaultLabel(), meta.DefaultLabel)
		assert.NotEmpty(t, meta.Icon)
		assert.NotEmpty(t, meta.Tiers)
		assert.NotNil(t, meta.ConfigSchema)
	}
}

func TestRegistry_ByCategory(t *testing.T) {
	r := Default()

	triggers := r.ByCategory(models.CategoryTrigger)
	require.Len(t, triggers, 5)

	for _, meta := range triggers {
		assert.True(t, meta.Type.IsTrigger())
	}

	assert.Len(t, r.ByCategory(models.CategoryUtility), 2)
	assert.Empty(t, r.ByCategory("unknown"))
}

func TestRegistry_Register_RejectsDuplicatesAndUnknownTypes(t *testing.T) {
	r := NewRegistry(slog.Default())

	require.NoError(t, r.Register(NodeMeta{Type: models.NodeTypeNote, Tiers: []Tier{TierFree}}))

	err := r.Register(NodeMeta{Type: models.NodeTypeNote})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	err = r.Register(NodeMeta{Type: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownNodeType)

	meta, ok := r.Lookup(models.NodeTypeNote)
	require.True(t, ok)
	assert.Equal(t, "Note", meta.DefaultLabel, "label is derived when omitted")
	assert.Equal(t, models.CategoryUtility, meta.Category, "category is derived when omitted")
}

func TestRegistry_ParseDropPayload(t *testing.T) {
	r := Default()

	tests := []struct {
		name    string
		payload string
		want    models.NodeType
		wantErr bool
	}{
		{name: "registered type", payload: "send_alert", want: models.NodeTypeSendAlert},
		{name: "surrounding whitespace", payload: "  decision\n", want: models.NodeTypeDecision},
		{name: "unregistered type", payload: "launch_rocket", wantErr: true},
		{name: "empty payload", payload: "", wantErr: true},
		{name: "json payload", payload: `{"type":"send_alert"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ParseDropPayload(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownNodeType)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ParseDropPayload_OnlyRegisteredTypes(t *testing.T) {
	r := NewRegistry(slog.Default())
	require.NoError(t, r.Register(NodeMeta{Type: models.NodeTypeDecision}))

	_, err := r.ParseDropPayload("send_alert")
	assert.ErrorIs(t, err, ErrUnknownNodeType, "valid enum values are still rejected when not registered")
}

func TestNodeMeta_AvailableIn(t *testing.T) {
	r := Default()

	alarm, ok := r.Lookup(models.NodeTypeEquipmentAlarm)
	require.True(t, ok)
	assert.False(t, alarm.AvailableIn(TierFree))
	assert.True(t, alarm.AvailableIn(TierEnterprise))

	decision, ok := r.Lookup(models.NodeTypeDecision)
	require.True(t, ok)
	assert.True(t, decision.AvailableIn(TierFree))
}

func TestRegistry_HealthCheck(t *testing.T) {
	msg, ok := NewRegistry(nil).HealthCheck()
	assert.False(t, ok)
	assert.Equal(t, "No node types registered", msg)

	msg, ok = Default().HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "19 node types registered", msg)
}

func TestRegistry_MustLookup(t *testing.T) {
	r := Default()

	assert.Equal(t, models.NodeTypeNote, r.MustLookup(models.NodeTypeNote).Type)
	assert.Panics(t, func() {
		NewRegistry(nil).MustLookup(models.NodeTypeNote)
	})
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierEnterprise, tier)

	tier, err = ParseTier(" Free ")
	require.NoError(t, err)
	assert.Equal(t, TierFree, tier)

	_, err = ParseTier("platinum")
	assert.Error(t, err)
}
