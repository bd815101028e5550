// Package store owns the canonical workflow graph and exposes the only
// operations allowed to mutate it.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Epoch identifies one generation of the store's graph. It advances whenever
// the graph is replaced wholesale, so scheduled tasks started against an
// older generation can detect that they are stale.
type Epoch uint64

// MetaPatch is a shallow update of workflow metadata. Nil fields are left untouched.
type MetaPatch struct {
	Title       *string                `json:"title,omitempty"       validate:"omitempty,required,max=120"`
	Description *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	Tags        *[]string              `json:"tags,omitempty"`
	TargetAsset *models.TargetAsset    `json:"targetAsset,omitempty" validate:"omitempty"`
	SafetyCheck *models.SafetyCheck    `json:"safetyCheck,omitempty" validate:"omitempty"`
	IsPublic    *bool                  `json:"isPublic,omitempty"`
	Status      *models.WorkflowStatus `json:"status,omitempty"      validate:"omitempty,oneof=draft active archived"`
}

// NodePatch updates individual node fields. Nil fields are left untouched;
// a non-nil Config replaces the configuration wholesale.
type NodePatch struct {
	Label    *string          `json:"label,omitempty" validate:"omitempty,max=200"`
	Config   map[string]any   `json:"config,omitempty"`
	Position *models.Position `json:"position,omitempty"`
}

// Store is the single writer of one workflow. All operations are atomic with
// respect to each other; readers receive deep copies.
type Store struct {
	mu        sync.Mutex
	workflow  *models.Workflow
	selected  string
	streaming bool
	epoch     Epoch
	replaced  chan struct{}

	clock    clockwork.Clock
	ids      models.IDGenerator
	logger   *slog.Logger
	notifier events.Notifier
}

type Option func(*Store)

// WithClock sets the clock used for timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithIDs sets the generator used for node and edge ids.
func WithIDs(ids models.IDGenerator) Option {
	return func(s *Store) {
		s.ids = ids
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNotifier sets the receiver of change notifications.
func WithNotifier(notifier events.Notifier) Option {
	return func(s *Store) {
		s.notifier = notifier
	}
}

// New creates an empty store with no workflow loaded.
func New(opts ...Option) *Store {
	s := &Store{
		replaced: make(chan struct{}),
		clock:    clockwork.NewRealClock(),
		ids:      models.NewSequence(),
		logger:   slog.Default(),
		notifier: events.Discard,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "store")

	return s
}

// mutate runs fn under the lock and delivers the changes it produced once the
// lock is released, so notifiers may read the store.
func (s *Store) mutate(fn func() ([]events.Change, error)) error {
	s.mu.Lock()
	changes, err := fn()
	s.mu.Unlock()

	for _, change := range changes {
		s.notifier.Notify(change)
	}

	return err
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Store) change(eventType events.EventType, nodeID, edgeID string) events.Change {
	change := events.Change{
		Type:      eventType,
		Timestamp: s.now(),
		NodeID:    nodeID,
		EdgeID:    edgeID,
		Epoch:     uint64(s.epoch),
	}

	if s.workflow != nil {
		change.WorkflowID = s.workflow.ID
	}

	return change
}

func (s *Store) touch() {
	s.workflow.UpdatedAt = s.now()
}

// advanceEpoch invalidates every task scheduled against the current graph.
func (s *Store) advanceEpoch() {
	s.epoch++
	close(s.replaced)
	s.replaced = make(chan struct{})
	s.streaming = false
}

func (s *Store) workflowID() string {
	if s.workflow == nil {
		return ""
	}

	return s.workflow.ID
}

// CreateWorkflow replaces the current workflow with a new empty draft.
func (s *Store) CreateWorkflow(title, description string) *models.Workflow {
	var created *models.Workflow

	_ = s.mutate(func() ([]events.Change, error) {
		now := s.now()
		s.workflow = &models.Workflow{
			ID:          uuid.New().String(),
			Title:       title,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
			Status:      models.WorkflowStatusDraft,
			Nodes:       []*models.WorkflowNode{},
			Edges:       []*models.WorkflowEdge{},
			Tags:        []string{},
		}
		s.selected = ""
		s.advanceEpoch()

		created = s.workflow.Clone()

		s.logger.Info("Created workflow", "workflow_id", created.ID, "epoch", s.epoch)

		return []events.Change{s.change(events.WorkflowCreated, "", "")}, nil
	})

	return created
}

// LoadWorkflow replaces the current workflow wholesale with a copy of w and
// clears the selection. Graphs with dangling edges or duplicate ids are rejected.
func (s *Store) LoadWorkflow(w *models.Workflow) error {
	if w == nil {
		return &IntegrityError{Op: "LoadWorkflow", Problems: []string{"workflow is nil"}, Err: ErrNilWorkflow}
	}

	if err := checkGraph("LoadWorkflow", w.ID, w.Nodes, w.Edges); err != nil {
		return err
	}

	return s.mutate(func() ([]events.Change, error) {
		s.workflow = w.Clone()
		if s.workflow.Nodes == nil {
			s.workflow.Nodes = []*models.WorkflowNode{}
		}

		if s.workflow.Edges == nil {
			s.workflow.Edges = []*models.WorkflowEdge{}
		}

		s.selected = ""
		s.advanceEpoch()

		s.logger.Info("Loaded workflow",
			"workflow_id", s.workflow.ID,
			"nodes", len(s.workflow.Nodes),
			"edges", len(s.workflow.Edges),
			"epoch", s.epoch,
		)

		return []events.Change{s.change(events.WorkflowLoaded, "", "")}, nil
	})
}

// UpdateWorkflowMeta merges the non-nil patch fields into the workflow.
func (s *Store) UpdateWorkflowMeta(patch MetaPatch) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		w := s.workflow
		if patch.Title != nil {
			w.Title = *patch.Title
		}

		if patch.Description != nil {
			w.Description = *patch.Description
		}

		if patch.Tags != nil {
			w.Tags = append([]string{}, (*patch.Tags)...)
		}

		if patch.TargetAsset != nil {
			w.TargetAsset = (&models.Workflow{TargetAsset: patch.TargetAsset}).Clone().TargetAsset
		}

		if patch.SafetyCheck != nil {
			w.SafetyCheck = (&models.Workflow{SafetyCheck: patch.SafetyCheck}).Clone().SafetyCheck
		}

		if patch.IsPublic != nil {
			w.IsPublic = *patch.IsPublic
		}

		if patch.Status != nil {
			w.Status = *patch.Status
		}

		s.touch()

		return []events.Change{s.change(events.WorkflowMetaUpdated, "", "")}, nil
	})
}

// AddNode appends a node of the given type and returns its id. The type is
// not checked against the registry; callers validate drag payloads first.
func (s *Store) AddNode(nodeType models.NodeType, position models.Position, config map[string]any) (string, error) {
	var id string

	err := s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if config == nil {
			config = map[string]any{}
		}

		node := &models.WorkflowNode{
			ID:       s.ids.NodeID(),
			Type:     nodeType,
			Label:    nodeType.DefaultLabel(),
			Config:   models.CloneConfig(config),
			Position: position,
		}
		s.workflow.Nodes = append(s.workflow.Nodes, node)
		s.touch()

		id = node.ID

		s.logger.Debug("Added node", "workflow_id", s.workflow.ID, "node_id", id, "type", nodeType)

		return []events.Change{s.change(events.NodeAdded, id, "")}, nil
	})

	return id, err
}

// UpdateNode merges the non-nil patch fields into the node.
func (s *Store) UpdateNode(id string, patch NodePatch) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		node := s.workflow.NodeByID(id)
		if node == nil {
			return nil, &NodeError{Op: "UpdateNode", WorkflowID: s.workflow.ID, NodeID: id, Err: ErrNodeNotFound}
		}

		if patch.Label != nil {
			node.Label = *patch.Label
		}

		if patch.Config != nil {
			node.Config = models.CloneConfig(patch.Config)
		}

		if patch.Position != nil {
			node.Position = *patch.Position
		}

		s.touch()

		return []events.Change{s.change(events.NodeUpdated, id, "")}, nil
	})
}

// RemoveNode deletes the node together with every edge that references it,
// and clears the selection if the node was selected.
func (s *Store) RemoveNode(id string) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if s.workflow.NodeByID(id) == nil {
			return nil, &NodeError{Op: "RemoveNode", WorkflowID: s.workflow.ID, NodeID: id, Err: ErrNodeNotFound}
		}

		nodes := make([]*models.WorkflowNode, 0, len(s.workflow.Nodes)-1)
		for _, node := range s.workflow.Nodes {
			if node.ID != id {
				nodes = append(nodes, node)
			}
		}

		changes := []events.Change{s.change(events.NodeRemoved, id, "")}
		cascaded := 0

		edges := make([]*models.WorkflowEdge, 0, len(s.workflow.Edges))
		for _, edge := range s.workflow.Edges {
			if edge.Touches(id) {
				changes = append(changes, s.change(events.EdgeRemoved, "", edge.ID))
				cascaded++

				continue
			}

			edges = append(edges, edge)
		}

		s.workflow.Nodes = nodes
		s.workflow.Edges = edges

		if s.selected == id {
			s.selected = ""
			changes = append(changes, s.change(events.NodeSelected, "", ""))
		}

		s.touch()

		s.logger.Debug("Removed node",
			"workflow_id", s.workflow.ID,
			"node_id", id,
			"cascaded_edges", cascaded,
		)

		return changes, nil
	})
}

// SelectNode sets the single selected node. An empty id clears the selection.
func (s *Store) SelectNode(id string) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if id != "" && s.workflow.NodeByID(id) == nil {
			return nil, &NodeError{Op: "SelectNode", WorkflowID: s.workflow.ID, NodeID: id, Err: ErrNodeNotFound}
		}

		s.selected = id

		return []events.Change{s.change(events.NodeSelected, id, "")}, nil
	})
}

// ClearSelection deselects any selected node.
func (s *Store) ClearSelection() {
	_ = s.mutate(func() ([]events.Change, error) {
		if s.selected == "" {
			return nil, nil
		}

		s.selected = ""

		return []events.Change{s.change(events.NodeSelected, "", "")}, nil
	})
}

// Selected returns the selected node id, or "".
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selected
}

// AddEdge connects source to target and returns the edge id. When an edge with
// the same (source, target, handle) already exists its id is returned together
// with ErrDuplicateEdge and nothing changes. Both endpoints must exist.
func (s *Store) AddEdge(source, target, sourceHandle, label string) (string, error) {
	var id string

	err := s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		for _, edge := range s.workflow.Edges {
			if edge.SameRoute(source, target, sourceHandle) {
				id = edge.ID

				return nil, &EdgeError{
					Op: "AddEdge", WorkflowID: s.workflow.ID, EdgeID: edge.ID,
					Source: source, Target: target, Err: ErrDuplicateEdge,
				}
			}
		}

		if s.workflow.NodeByID(source) == nil || s.workflow.NodeByID(target) == nil {
			return nil, &EdgeError{
				Op: "AddEdge", WorkflowID: s.workflow.ID,
				Source: source, Target: target, Err: ErrInvalidReference,
			}
		}

		edge := &models.WorkflowEdge{
			ID:           s.ids.EdgeID(),
			Source:       source,
			Target:       target,
			SourceHandle: sourceHandle,
			Label:        label,
			Animated:     true,
		}
		s.workflow.Edges = append(s.workflow.Edges, edge)
		s.touch()

		id = edge.ID

		return []events.Change{s.change(events.EdgeAdded, "", id)}, nil
	})

	return id, err
}

// RemoveEdge deletes an edge. Nodes are never affected.
func (s *Store) RemoveEdge(id string) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		for i, edge := range s.workflow.Edges {
			if edge.ID == id {
				s.workflow.Edges = append(s.workflow.Edges[:i:i], s.workflow.Edges[i+1:]...)
				s.touch()

				return []events.Change{s.change(events.EdgeRemoved, "", id)}, nil
			}
		}

		return nil, &EdgeError{Op: "RemoveEdge", WorkflowID: s.workflow.ID, EdgeID: id, Err: ErrEdgeNotFound}
	})
}

// ReplaceGraph swaps the node and edge arrays in one step. The graph must be
// self-consistent. Scheduled tasks against the previous graph become stale.
func (s *Store) ReplaceGraph(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if err := checkGraph("ReplaceGraph", s.workflow.ID, nodes, edges); err != nil {
			return nil, err
		}

		s.workflow.Nodes = models.CloneNodes(nodes)
		s.workflow.Edges = models.CloneEdges(edges)

		if s.workflow.Nodes == nil {
			s.workflow.Nodes = []*models.WorkflowNode{}
		}

		if s.workflow.Edges == nil {
			s.workflow.Edges = []*models.WorkflowEdge{}
		}

		if s.selected != "" && s.workflow.NodeByID(s.selected) == nil {
			s.selected = ""
		}

		s.advanceEpoch()
		s.touch()

		return []events.Change{s.change(events.WorkflowGraphReplaced, "", "")}, nil
	})
}

// RecordExecution counts a completed simulated run.
func (s *Store) RecordExecution(epoch Epoch) error {
	return s.mutate(func() ([]events.Change, error) {
		if s.workflow == nil {
			return nil, ErrNoWorkflow
		}

		if epoch != s.epoch {
			return nil, ErrStaleEpoch
		}

		at := s.now()
		s.workflow.ExecutionCount++
		s.workflow.LastExecutedAt = &at
		s.workflow.UpdatedAt = at

		return []events.Change{s.change(events.WorkflowExecuted, "", "")}, nil
	})
}

// ExportJSON serializes the workflow with two-space indentation, or returns
// "{}" when no workflow is loaded.
func (s *Store) ExportJSON() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workflow == nil {
		return "{}", nil
	}

	data, err := json.MarshalIndent(s.workflow, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow %s: %w", s.workflow.ID, err)
	}

	return string(data), nil
}

// Snapshot returns a deep copy of the workflow, or nil when none is loaded.
func (s *Store) Snapshot() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.workflow.Clone()
}

// Epoch returns the current graph generation.
func (s *Store) Epoch() Epoch {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.epoch
}

// Watch returns a channel closed once the given epoch is no longer current.
func (s *Store) Watch(epoch Epoch) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		closed := make(chan struct{})
		close(closed)

		return closed
	}

	return s.replaced
}

// ValidateGraph reports the same integrity problems LoadWorkflow and
// ReplaceGraph reject, without touching any store.
func ValidateGraph(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) error {
	return checkGraph("ValidateGraph", "", nodes, edges)
}

// checkGraph verifies unique ids and that every edge endpoint exists.
func checkGraph(op, workflowID string, nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) error {
	var (
		problems []string
		first    error
	)

	report := func(err error, format string, args ...any) {
		if first == nil {
			first = err
		}

		problems = append(problems, fmt.Sprintf(format, args...))
	}

	nodeIDs := make(map[string]bool, len(nodes))
	for i, node := range nodes {
		if node == nil {
			report(ErrInvalidReference, "node at index %d is nil", i)

			continue
		}

		if nodeIDs[node.ID] {
			report(ErrDuplicateNodeID, "node id %q is used more than once", node.ID)
		}

		nodeIDs[node.ID] = true
	}

	edgeIDs := make(map[string]bool, len(edges))
	for i, edge := range edges {
		if edge == nil {
			report(ErrInvalidReference, "edge at index %d is nil", i)

			continue
		}

		if edgeIDs[edge.ID] {
			report(ErrDuplicateEdgeID, "edge id %q is used more than once", edge.ID)
		}

		edgeIDs[edge.ID] = true

		if !nodeIDs[edge.Source] {
			report(ErrInvalidReference, "edge %s references missing source %q", edge.ID, edge.Source)
		}

		if !nodeIDs[edge.Target] {
			report(ErrInvalidReference, "edge %s references missing target %q", edge.ID, edge.Target)
		}
	}

	if first == nil {
		return nil
	}

	return &IntegrityError{Op: op, WorkflowID: workflowID, Problems: problems, Err: first}
}
