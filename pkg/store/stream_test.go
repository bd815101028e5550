package store

import (
	"testing"

	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertNoDanglingEdges(t *testing.T, w *models.Workflow) {
	t.Helper()

	for _, edge := range w.Edges {
		assert.NotNil(t, w.NodeByID(edge.Source), "edge %s has a missing source", edge.ID)
		assert.NotNil(t, w.NodeByID(edge.Target), "edge %s has a missing target", edge.ID)
	}
}

func TestStream_ClearsGraphAndSelection(t *testing.T) {
	s, recorder := newTestStore(t)
	s.CreateWorkflow("Test", "")

	id, _ := s.AddNode(models.NodeTypeNote, models.Position{}, nil)
	require.NoError(t, s.SelectNode(id))
	before := s.Epoch()

	epoch, err := s.BeginStream()
	require.NoError(t, err)

	assert.Greater(t, epoch, before)
	assert.True(t, s.Streaming())
	assert.Empty(t, s.Selected())
	assert.Empty(t, s.Snapshot().Nodes)
	assert.Empty(t, s.Snapshot().Edges)
	assert.Contains(t, recorder.Types(), events.StreamStarted)
}

func TestStream_GatesEdgesUntilBothEndpointsExist(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateWorkflow("Test", "")

	nodes, edges := testutil.Chain(
		models.NodeTypeEquipmentAlarm,
		models.NodeTypeDecision,
		models.NodeTypeCreateTicket,
	)
	// Decision to ticket via the true handle, plus a back edge that only
	// becomes valid once the alarm arrives.
	edges[1].SourceHandle = models.HandleTrue
	edges = append(edges, testutil.CreateTestEdge("n3", "n1"))

	epoch, err := s.BeginStream()
	require.NoError(t, err)

	// Deliver out of order to exercise gating.
	added, err := s.StreamNode(epoch, nodes[1], edges)
	require.NoError(t, err)
	assert.Zero(t, added)
	assertNoDanglingEdges(t, s.Snapshot())

	added, err = s.StreamNode(epoch, nodes[2], edges)
	require.NoError(t, err)
	assert.Equal(t, 1, added, "n2->n3 becomes visible")
	assertNoDanglingEdges(t, s.Snapshot())

	added, err = s.StreamNode(epoch, nodes[0], edges)
	require.NoError(t, err)
	assert.Equal(t, 2, added, "n1->n2 and n3->n1 become visible")

	w := s.Snapshot()
	assertNoDanglingEdges(t, w)
	assert.Len(t, w.Nodes, 3)
	assert.Len(t, w.Edges, 3)

	require.NoError(t, s.EndStream(epoch))
	assert.False(t, s.Streaming())
}

func TestStream_NodeCopiesAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateWorkflow("Test", "")

	node := testutil.CreateTestNode(testutil.WithID("a"), testutil.WithConfig(map[string]any{"message": "hi"}))

	epoch, err := s.BeginStream()
	require.NoError(t, err)

	_, err = s.StreamNode(epoch, node, nil)
	require.NoError(t, err)

	node.Config["message"] = "changed"
	assert.Equal(t, "hi", s.Snapshot().NodeByID("a").Config["message"])
}

func TestStream_RejectsDuplicateNode(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateWorkflow("Test", "")

	node := testutil.CreateTestNode(testutil.WithID("a"))

	epoch, err := s.BeginStream()
	require.NoError(t, err)

	_, err = s.StreamNode(epoch, node, nil)
	require.NoError(t, err)

	_, err = s.StreamNode(epoch, node, nil)
	assert.ErrorIs(t, err, ErrDuplicateNodeID)
	assert.Len(t, s.Snapshot().Nodes, 1)
}

func TestStream_StaleEpochIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		replace func(t *testing.T, s *Store)
	}{
		{
			name: "new workflow",
			replace: func(t *testing.T, s *Store) {
				s.CreateWorkflow("Replacement", "")
			},
		},
		{
			name: "loaded workflow",
			replace: func(t *testing.T, s *Store) {
				require.NoError(t, s.LoadWorkflow(testutil.CreateTestWorkflow()))
			},
		},
		{
			name: "second stream",
			replace: func(t *testing.T, s *Store) {
				_, err := s.BeginStream()
				require.NoError(t, err)
			},
		},
		{
			name: "replaced graph",
			replace: func(t *testing.T, s *Store) {
				require.NoError(t, s.ReplaceGraph(nil, nil))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			s.CreateWorkflow("Test", "")

			epoch, err := s.BeginStream()
			require.NoError(t, err)

			_, err = s.StreamNode(epoch, testutil.CreateTestNode(testutil.WithID("a")), nil)
			require.NoError(t, err)

			tt.replace(t, s)
			before := s.Snapshot()

			_, err = s.StreamNode(epoch, testutil.CreateTestNode(testutil.WithID("b")), nil)
			assert.ErrorIs(t, err, ErrStaleEpoch)
			assert.ErrorIs(t, s.EndStream(epoch), ErrStaleEpoch)
			assert.Equal(t, before, s.Snapshot(), "stale writes never land")
		})
	}
}

func TestStream_AfterEndIsRejected(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateWorkflow("Test", "")

	epoch, err := s.BeginStream()
	require.NoError(t, err)
	require.NoError(t, s.EndStream(epoch))
	require.NoError(t, s.EndStream(epoch), "ending twice is a no-op")

	_, err = s.StreamNode(epoch, testutil.CreateTestNode(), nil)
	assert.ErrorIs(t, err, ErrStaleEpoch)
}

func TestStream_WithoutWorkflow(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.BeginStream()
	assert.ErrorIs(t, err, ErrNoWorkflow)
}
