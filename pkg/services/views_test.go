package services

import (
	"testing"
	"time"

	"github.com/dukex/flowedit/pkg/linearize"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/dukex/flowedit/pkg/simulator"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/dukex/flowedit/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEntry(groups []PaletteGroup, nodeType models.NodeType) (PaletteEntry, bool) {
	for _, group := range groups {
		for _, entry := range group.Entries {
			if entry.Type == nodeType {
				return entry, true
			}
		}
	}

	return PaletteEntry{}, false
}

func TestEditor_Palette(t *testing.T) {
	h := newHarness(t, Config{Tier: registry.TierFree})

	groups := h.editor.Palette()
	require.Len(t, groups, len(models.Categories))

	for i, group := range groups {
		assert.Equal(t, models.Categories[i], group.Category)
		assert.NotEmpty(t, group.Entries)

		for _, entry := range group.Entries {
			assert.Equal(t, group.Category, entry.Category)
		}
	}

	manual, ok := findEntry(groups, models.NodeTypeManualTrigger)
	require.True(t, ok)
	assert.False(t, manual.Locked)

	voice, ok := findEntry(groups, models.NodeTypeVoiceCommand)
	require.True(t, ok)
	assert.True(t, voice.Locked, "voice triggers need a paid tier")

	enterprise := newHarness(t, Config{})
	voice, ok = findEntry(enterprise.editor.Palette(), models.NodeTypeVoiceCommand)
	require.True(t, ok)
	assert.False(t, voice.Locked)
}

func TestEditor_CardView(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.editor.CardView()
	require.ErrorIs(t, err, store.ErrNoWorkflow)
	assert.True(t, IsNotFoundError(err))

	h.editor.CreateWorkflow("Vibration", "")

	run, err := h.editor.GenerateRecommendation(t.Context())
	require.NoError(t, err)

	view, err := h.editor.CardView()
	require.NoError(t, err)
	assert.True(t, view.Streaming)
	assert.Empty(t, view.Cards)

	h.finishReveal(t, run)

	view, err = h.editor.CardView()
	require.NoError(t, err)
	assert.False(t, view.Streaming)
	require.Len(t, view.Cards, 5)

	assert.Equal(t, 1, view.Cards[0].Index)
	assert.Equal(t, models.NodeTypeEquipmentAlarm, view.Cards[0].Node.Type)

	decision := view.Cards[1]
	assert.Equal(t, models.NodeTypeDecision, decision.Node.Type)
	require.Len(t, decision.Branches, 1)
	assert.Equal(t, models.HandleTrue, decision.Branches[0].Handle)
	assert.Equal(t, "Yes", decision.Branches[0].Label)
	assert.Equal(t, view.Cards[2].Node.ID, decision.Branches[0].Target)
}

func TestEditor_CanvasView(t *testing.T) {
	h := newHarness(t, Config{Tier: registry.TierFree})

	_, err := h.editor.CanvasView()
	require.ErrorIs(t, err, store.ErrNoWorkflow)

	decision := testutil.CreateTestNode(testutil.WithID("d"), testutil.WithType(models.NodeTypeDecision))
	yes := testutil.CreateTestNode(testutil.WithID("yes"), testutil.WithType(models.NodeTypeUpdateAsset),
		testutil.WithConfig(map[string]any{"field": "status"}))
	no := testutil.CreateTestNode(testutil.WithID("no"), testutil.WithType(models.NodeTypeLogEvent))
	ghost := testutil.CreateTestNode(testutil.WithID("ghost"), testutil.WithType(models.NodeTypeNote))
	ghost.Type = "legacy_widget"

	w := testutil.CreateTestWorkflow(testutil.WithGraph(
		[]*models.WorkflowNode{decision, yes, no},
		[]*models.WorkflowEdge{
			testutil.CreateTestEdge("d", "yes", testutil.WithHandle(models.HandleTrue)),
			testutil.CreateTestEdge("d", "no", testutil.WithHandle(models.HandleFalse), testutil.WithEdgeLabel("Skip")),
		},
	))
	require.NoError(t, h.editor.LoadWorkflow(w))
	require.NoError(t, h.editor.SelectNode("no"))

	canvas, err := h.editor.CanvasView()
	require.NoError(t, err)
	assert.Equal(t, w.ID, canvas.WorkflowID)
	assert.Equal(t, w.Title, canvas.Title)
	assert.False(t, canvas.Executing)
	require.Len(t, canvas.Nodes, 3)
	require.Len(t, canvas.Edges, 2)

	assert.Equal(t, models.CategoryCondition, canvas.Nodes[0].Category)
	assert.Equal(t, "git-branch", canvas.Nodes[0].Icon)
	assert.False(t, canvas.Nodes[0].Locked)
	assert.True(t, canvas.Nodes[1].Locked, "asset updates need the enterprise tier")
	assert.False(t, canvas.Nodes[1].Selected)
	assert.True(t, canvas.Nodes[2].Selected)
	assert.Empty(t, canvas.Nodes[2].Status)

	assert.Equal(t, linearize.DefaultTrueLabel, canvas.Edges[0].DisplayLabel)
	assert.Empty(t, canvas.Edges[0].Label)
	assert.Equal(t, "Skip", canvas.Edges[1].DisplayLabel)

	require.NoError(t, h.editor.Store().ReplaceGraph(append(h.editor.Store().Snapshot().Nodes, ghost), nil))

	canvas, err = h.editor.CanvasView()
	require.NoError(t, err)
	require.Len(t, canvas.Nodes, 4)
	assert.Empty(t, canvas.Nodes[3].Category, "unregistered types have no metadata")
	assert.Empty(t, canvas.Edges)
}

func TestEditor_CanvasViewRunStatus(t *testing.T) {
	h := newHarness(t, Config{})
	require.NoError(t, h.editor.LoadWorkflow(testutil.CreateTestWorkflow(
		testutil.WithChain(models.NodeTypeManualTrigger, models.NodeTypeChecklist),
	)))

	exec, err := h.editor.Run(t.Context())
	require.NoError(t, err)

	h.tick(t, simulator.DefaultInterval)

	require.Eventually(t, func() bool {
		return len(h.editor.RunLog()) == 1
	}, waitFor, time.Millisecond)

	canvas, err := h.editor.CanvasView()
	require.NoError(t, err)
	assert.True(t, canvas.Executing)
	assert.Equal(t, models.NodeStatusSuccess, canvas.Nodes[0].Status)
	assert.Equal(t, models.NodeStatusPending, canvas.Nodes[1].Status)

	h.tick(t, simulator.DefaultInterval)
	<-exec.Done()

	canvas, err = h.editor.CanvasView()
	require.NoError(t, err)
	assert.False(t, canvas.Executing)
	assert.Equal(t, models.NodeStatusSuccess, canvas.Nodes[1].Status)
}
