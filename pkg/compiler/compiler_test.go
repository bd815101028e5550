package compiler

import (
	"fmt"
	"testing"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steps(types ...models.NodeType) []models.StepDescriptor {
	out := make([]models.StepDescriptor, len(types))
	for i, t := range types {
		out[i] = models.StepDescriptor{Type: t}
	}

	return out
}

func TestCompile_ChainShape(t *testing.T) {
	pool := []models.NodeType{
		models.NodeTypeChecklist,
		models.NodeTypeDecision,
		models.NodeTypeSendAlert,
		models.NodeTypePhotoCapture,
		models.NodeTypeLogEvent,
	}

	for k := 0; k <= 12; k++ {
		t.Run(fmt.Sprintf("%d steps", k), func(t *testing.T) {
			types := make([]models.NodeType, k)
			for i := range types {
				types[i] = pool[i%len(pool)]
			}

			intent := testutil.CreateTestIntent(testutil.WithSteps(steps(types...)...))

			graph, err := New(Options{}).Compile(intent)
			require.NoError(t, err)

			require.Len(t, graph.Nodes, k+1)
			require.Len(t, graph.Edges, k)

			for i, edge := range graph.Edges {
				assert.Equal(t, graph.Nodes[i].ID, edge.Source, "edge %d source", i)
				assert.Equal(t, graph.Nodes[i+1].ID, edge.Target, "edge %d target", i)
				assert.Empty(t, edge.SourceHandle)
				assert.True(t, edge.Animated)
			}
		})
	}
}

func TestCompile_Nodes(t *testing.T) {
	intent := testutil.CreateTestIntent(testutil.WithSteps(
		models.StepDescriptor{Type: models.NodeTypeChecklist, Label: "Inspect belts", Config: map[string]any{"items": []any{"belt"}}},
		models.StepDescriptor{Type: models.NodeTypeSendAlert},
	))

	graph, err := New(Options{IDs: testutil.NewIDs()}).Compile(intent)
	require.NoError(t, err)

	trigger := graph.Nodes[0]
	assert.Equal(t, "node-1", trigger.ID)
	assert.Equal(t, models.NodeTypeVoiceCommand, trigger.Type)
	assert.Equal(t, "On: compressor, hot", trigger.Label)
	assert.Equal(t, map[string]any{"keywords": []string{"compressor", "hot"}}, trigger.Config)
	assert.Equal(t, models.Position{X: 250, Y: 50}, trigger.Position)

	checklist := graph.Nodes[1]
	assert.Equal(t, "node-2", checklist.ID)
	assert.Equal(t, "Inspect belts", checklist.Label)
	assert.Equal(t, map[string]any{"items": []any{"belt"}}, checklist.Config)
	assert.Equal(t, models.Position{X: 250, Y: 200}, checklist.Position)

	alert := graph.Nodes[2]
	assert.Equal(t, "Send Alert", alert.Label, "empty label falls back to the type label")
	assert.Equal(t, map[string]any{}, alert.Config)
	assert.Equal(t, models.Position{X: 250, Y: 350}, alert.Position)

	assert.Equal(t, "edge-1", graph.Edges[0].ID)
	assert.Equal(t, "edge-2", graph.Edges[1].ID)
}

func TestCompile_DoesNotShareConfig(t *testing.T) {
	intent := testutil.CreateTestIntent()

	graph, err := New(Options{}).Compile(intent)
	require.NoError(t, err)

	intent.Steps[1].Config["channel"] = "email"
	intent.Trigger.Keywords[0] = "changed"

	assert.Equal(t, "sms", graph.Nodes[2].Config["channel"])
	assert.Equal(t, []string{"compressor", "hot"}, graph.Nodes[0].Config["keywords"])
}

func TestCompile_TriggerWithoutKeywords(t *testing.T) {
	intent := testutil.CreateTestIntent(testutil.WithTrigger(models.NodeTypeManualTrigger))

	graph, err := New(Options{}).Compile(intent)
	require.NoError(t, err)

	assert.Equal(t, "Start", graph.Nodes[0].Label)
	assert.Empty(t, graph.Nodes[0].Config)
}

func TestCompile_Layouts(t *testing.T) {
	intent := testutil.CreateTestIntent()

	tests := []struct {
		name   string
		layout Layout
		want   []models.Position
	}{
		{
			name:   "vertical",
			layout: LayoutVertical,
			want:   []models.Position{{X: 250, Y: 50}, {X: 250, Y: 200}, {X: 250, Y: 350}},
		},
		{
			name:   "horizontal",
			layout: LayoutHorizontal,
			want:   []models.Position{{X: 100, Y: 200}, {X: 350, Y: 200}, {X: 600, Y: 200}},
		},
		{
			name:   "custom",
			layout: Layout{Origin: models.Position{X: 10, Y: 10}, Step: models.Position{X: 5, Y: 20}},
			want:   []models.Position{{X: 10, Y: 10}, {X: 15, Y: 30}, {X: 20, Y: 50}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := New(Options{Layout: tt.layout}).Compile(intent)
			require.NoError(t, err)

			got := make([]models.Position, len(graph.Nodes))
			for i, node := range graph.Nodes {
				got[i] = node.Position
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLayout(t *testing.T) {
	layout, ok := ParseLayout("Horizontal")
	assert.True(t, ok)
	assert.Equal(t, LayoutHorizontal, layout)

	layout, ok = ParseLayout("")
	assert.True(t, ok)
	assert.Equal(t, LayoutVertical, layout)

	_, ok = ParseLayout("diagonal")
	assert.False(t, ok)
}

func TestCompile_SameShapeAcrossRuns(t *testing.T) {
	intent := testutil.CreateTestIntent()
	c := New(Options{})

	first, err := c.Compile(intent)
	require.NoError(t, err)

	second, err := c.Compile(intent)
	require.NoError(t, err)

	require.Len(t, second.Nodes, len(first.Nodes))
	require.Len(t, second.Edges, len(first.Edges))

	for i := range first.Nodes {
		assert.NotEqual(t, first.Nodes[i].ID, second.Nodes[i].ID, "ids are fresh per compile")
		assert.Equal(t, first.Nodes[i].Type, second.Nodes[i].Type)
		assert.Equal(t, first.Nodes[i].Label, second.Nodes[i].Label)
		assert.Equal(t, first.Nodes[i].Position, second.Nodes[i].Position)
	}
}

func TestCompile_IgnoresConditionRefWithoutBranching(t *testing.T) {
	intent := testutil.CreateTestIntent(testutil.WithSteps(
		models.StepDescriptor{Ref: "hot", Type: models.NodeTypeDecision},
		models.StepDescriptor{Type: models.NodeTypeSendAlert, ConditionRef: "hot", Branch: "true"},
		models.StepDescriptor{Type: models.NodeTypeLogEvent, ConditionRef: "hot", Branch: "false"},
	))

	graph, err := New(Options{}).Compile(intent)
	require.NoError(t, err)

	for i, edge := range graph.Edges {
		assert.Equal(t, graph.Nodes[i].ID, edge.Source)
		assert.Empty(t, edge.SourceHandle)
	}
}

func TestCompile_Branching(t *testing.T) {
	intent := testutil.CreateTestIntent(testutil.WithSteps(
		models.StepDescriptor{Ref: "hot", Type: models.NodeTypeDecision, Config: map[string]any{"trueLabel": "Overheating"}},
		models.StepDescriptor{Type: models.NodeTypeCreateTicket, ConditionRef: "hot", Branch: models.HandleTrue},
		models.StepDescriptor{Type: models.NodeTypeNotifySupervisor},
		models.StepDescriptor{Type: models.NodeTypeLogEvent, ConditionRef: "hot", Branch: models.HandleFalse},
	))

	graph, err := New(Options{Branching: true, IDs: testutil.NewIDs()}).Compile(intent)
	require.NoError(t, err)

	require.Len(t, graph.Nodes, 5)
	require.Len(t, graph.Edges, 4, "every step still has exactly one incoming edge")

	trigger, decision, ticket, supervisor, logEvent := graph.Nodes[0], graph.Nodes[1], graph.Nodes[2], graph.Nodes[3], graph.Nodes[4]

	assert.Equal(t, trigger.ID, graph.Edges[0].Source)
	assert.Equal(t, decision.ID, graph.Edges[0].Target)
	assert.Empty(t, graph.Edges[0].SourceHandle)

	assert.Equal(t, decision.ID, graph.Edges[1].Source)
	assert.Equal(t, ticket.ID, graph.Edges[1].Target)
	assert.Equal(t, models.HandleTrue, graph.Edges[1].SourceHandle)
	assert.Equal(t, "Overheating", graph.Edges[1].Label)

	assert.Equal(t, ticket.ID, graph.Edges[2].Source, "steps without a reference chain to their predecessor")
	assert.Equal(t, supervisor.ID, graph.Edges[2].Target)

	assert.Equal(t, decision.ID, graph.Edges[3].Source)
	assert.Equal(t, logEvent.ID, graph.Edges[3].Target)
	assert.Equal(t, models.HandleFalse, graph.Edges[3].SourceHandle)
	assert.Empty(t, graph.Edges[3].Label, "unset falseLabel leaves the edge label empty")
}

func TestCompile_BranchingDefaultsToTrueHandle(t *testing.T) {
	intent := testutil.CreateTestIntent(testutil.WithSteps(
		models.StepDescriptor{Type: models.NodeTypeDecision},
		models.StepDescriptor{Type: models.NodeTypeSendAlert},
	))

	graph, err := New(Options{Branching: true}).Compile(intent)
	require.NoError(t, err)

	assert.Equal(t, models.HandleTrue, graph.Edges[1].SourceHandle)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		intent    *models.VoiceWorkflowIntent
		branching bool
		wantErr   error
		wantStep  int
	}{
		{
			name:     "nil intent",
			intent:   nil,
			wantErr:  ErrNilIntent,
			wantStep: TriggerStep,
		},
		{
			name:     "unknown trigger type",
			intent:   testutil.CreateTestIntent(testutil.WithTrigger("carrier_pigeon")),
			wantErr:  models.ErrUnknownNodeType,
			wantStep: TriggerStep,
		},
		{
			name:     "unknown step type",
			intent:   testutil.CreateTestIntent(testutil.WithSteps(steps(models.NodeTypeChecklist, "teleport")...)),
			wantErr:  models.ErrUnknownNodeType,
			wantStep: 1,
		},
		{
			name: "duplicate ref",
			intent: testutil.CreateTestIntent(testutil.WithSteps(
				models.StepDescriptor{Ref: "a", Type: models.NodeTypeDecision},
				models.StepDescriptor{Ref: "a", Type: models.NodeTypeDecision},
			)),
			wantErr:  ErrDuplicateRef,
			wantStep: 1,
		},
		{
			name: "forward condition ref",
			intent: testutil.CreateTestIntent(testutil.WithSteps(
				models.StepDescriptor{Type: models.NodeTypeSendAlert, ConditionRef: "later"},
				models.StepDescriptor{Ref: "later", Type: models.NodeTypeDecision},
			)),
			branching: true,
			wantErr:   ErrUnknownConditionRef,
			wantStep:  0,
		},
		{
			name: "condition ref to a non-decision",
			intent: testutil.CreateTestIntent(testutil.WithSteps(
				models.StepDescriptor{Ref: "check", Type: models.NodeTypeChecklist},
				models.StepDescriptor{Type: models.NodeTypeSendAlert, ConditionRef: "check"},
			)),
			branching: true,
			wantErr:   ErrNotDecision,
			wantStep:  1,
		},
		{
			name: "invalid branch",
			intent: testutil.CreateTestIntent(testutil.WithSteps(
				models.StepDescriptor{Ref: "d", Type: models.NodeTypeDecision},
				models.StepDescriptor{Type: models.NodeTypeSendAlert, ConditionRef: "d", Branch: "maybe"},
			)),
			branching: true,
			wantErr:   ErrInvalidBranch,
			wantStep:  1,
		},
		{
			name: "branch without condition",
			intent: testutil.CreateTestIntent(testutil.WithSteps(
				models.StepDescriptor{Type: models.NodeTypeDecision},
				models.StepDescriptor{Type: models.NodeTypeSendAlert, Branch: models.HandleFalse},
			)),
			branching: true,
			wantErr:   ErrBranchWithoutCondition,
			wantStep:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := New(Options{Branching: tt.branching}).Compile(tt.intent)

			assert.Nil(t, graph)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsCompileError(err))

			var compileErr *CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, tt.wantStep, compileErr.Step)
			assert.NotEmpty(t, compileErr.Error())
		})
	}
}

func TestTriggerLabel(t *testing.T) {
	assert.Equal(t, "Start", TriggerLabel(nil))
	assert.Equal(t, "On: leak", TriggerLabel([]string{"leak"}))
	assert.Equal(t, "On: leak, pressure", TriggerLabel([]string{"leak", "pressure"}))
}
