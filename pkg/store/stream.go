package store

import (
	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/models"
)

// BeginStream clears the graph, raises the streaming flag and returns the
// epoch that subsequent StreamNode calls must present.
func (s *Store) BeginStream() (Epoch, error) {
	var epoch Epoch

	err := s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		s.advanceEpoch()
		s.workflow.Nodes = []*models.WorkflowNode{}
		s.workflow.Edges = []*models.WorkflowEdge{}
		s.selected = ""
		s.streaming = true
		s.touch()

		epoch = s.epoch

		s.logger.Info("Stream started", "workflow_id", s.workflow.ID, "epoch", epoch)

		return []events.Change{s.change(events.StreamStarted, "", "")}, nil
	})

	return epoch, err
}

// StreamNode inserts one node of an in-flight stream together with every
// candidate edge whose other endpoint is already present. Edges with a
// missing endpoint are held back until that endpoint arrives, so the visible
// graph never contains a dangling edge. It returns the number of edges added.
func (s *Store) StreamNode(epoch Epoch, node *models.WorkflowNode, candidates []*models.WorkflowEdge) (int, error) {
	added := 0

	err := s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if epoch != s.epoch || !s.streaming {
			return nil, ErrStaleEpoch
		}

		if s.workflow.NodeByID(node.ID) != nil {
			return nil, &NodeError{Op: "StreamNode", WorkflowID: s.workflow.ID, NodeID: node.ID, Err: ErrDuplicateNodeID}
		}

		s.workflow.Nodes = append(s.workflow.Nodes, node.Clone())
		changes := []events.Change{s.change(events.StreamTick, node.ID, "")}

		for _, edge := range candidates {
			if !edge.Touches(node.ID) || s.workflow.EdgeByID(edge.ID) != nil {
				continue
			}

			if s.workflow.NodeByID(edge.Source) == nil || s.workflow.NodeByID(edge.Target) == nil {
				continue
			}

			s.workflow.Edges = append(s.workflow.Edges, edge.Clone())
			changes = append(changes, s.change(events.EdgeAdded, "", edge.ID))
			added++
		}

		s.touch()

		return changes, nil
	})

	return added, err
}

// EndStream lowers the streaming flag for the given epoch.
func (s *Store) EndStream(epoch Epoch) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if epoch != s.epoch {
			return nil, ErrStaleEpoch
		}

		if !s.streaming {
			return nil, nil
		}

		s.streaming = false

		s.logger.Info("Stream finished",
			"workflow_id", s.workflow.ID,
			"epoch", epoch,
			"nodes", len(s.workflow.Nodes),
			"edges", len(s.workflow.Edges),
		)

		return []events.Change{s.change(events.StreamFinished, "", "")}, nil
	})
}

// Streaming reports whether a stream is in flight.
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.streaming
}
