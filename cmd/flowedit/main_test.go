package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/dukex/flowedit/pkg/testutil"
	"github.com/dukex/flowedit/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intentYAML = `title: Compressor overheating
description: Respond to a compressor temperature alarm
trigger:
  type: voice_command
  keywords: [compressor, hot]
steps:
  - type: checklist
    label: Inspect compressor
  - type: send_alert
    label: Alert maintenance
    config:
      channel: sms
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	err := app.Run(t.Context(), append([]string{"flowedit", "--log-level", "error"}, args...))

	return out.String(), err
}

func writeIntent(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "intent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(intentYAML), 0600))

	return path
}

func compileWorkflow(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flow.json")

	_, err := run(t, "compile", "-f", writeIntent(t), "-o", path)
	require.NoError(t, err)

	return path
}

func TestCompile(t *testing.T) {
	out, err := run(t, "compile", "-f", writeIntent(t))
	require.NoError(t, err)

	var w models.Workflow
	require.NoError(t, json.Unmarshal([]byte(out), &w))

	assert.Equal(t, "Compressor overheating", w.Title)
	require.Len(t, w.Nodes, 3)
	assert.Len(t, w.Edges, 2)
	assert.Equal(t, "On: compressor, hot", w.Nodes[0].Label)
	assert.InDelta(t, 250, w.Nodes[1].Position.X, 0)
}

func TestCompile_HorizontalYAML(t *testing.T) {
	out, err := run(t, "compile", "-f", writeIntent(t), "--layout", "horizontal", "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Compressor overheating")
	assert.Contains(t, out, "voice_command")
}

func TestCompile_DOT(t *testing.T) {
	out, err := run(t, "compile", "-f", writeIntent(t), "--dot", "--layout", "horizontal")
	require.NoError(t, err)

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "rankdir")
	assert.Contains(t, out, "LR")
	assert.Contains(t, out, "Inspect compressor")
}

func TestCompile_Errors(t *testing.T) {
	_, err := run(t, "compile")
	require.Error(t, err, "--file is required")

	_, err = run(t, "compile", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "compile", "-f", writeIntent(t), "--tier", "platinum")
	require.Error(t, err)
}

func TestCards(t *testing.T) {
	out, err := run(t, "cards", "-f", compileWorkflow(t))
	require.NoError(t, err)

	var view services.CardView
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	require.Len(t, view.Cards, 3)
	assert.Equal(t, 1, view.Cards[0].Index)
	assert.Equal(t, "Alert maintenance", view.Cards[2].Node.Label)
	assert.False(t, view.Streaming)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "-f", compileWorkflow(t))
	require.NoError(t, err)

	var report validation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Errors)
}

func TestValidate_Invalid(t *testing.T) {
	w := testutil.CreateTestWorkflow(testutil.WithChain(models.NodeTypeManualTrigger, models.NodeTypeChecklist))
	w.Edges[0].Target = "ghost"

	data, err := json.Marshal(w)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	out, err := run(t, "validate", "-f", path)
	require.ErrorIs(t, err, errInvalidWorkflow)
	assert.Contains(t, out, validation.RuleDanglingEdge)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "-f", compileWorkflow(t), "--run-interval", "1ms")
	require.NoError(t, err)

	var result SimulationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.NotEmpty(t, result.ExecutionID)
	assert.False(t, result.Cancelled)
	require.Len(t, result.Log, 3)
	assert.Equal(t, "Executed On: compressor, hot", result.Log[0].Message)

	for _, entry := range result.Log {
		assert.Equal(t, models.NodeStatusSuccess, entry.Status)
	}
}
