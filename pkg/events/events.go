// Package events defines change notifications emitted while a workflow is edited.
package events

import (
	"sync"
	"time"
)

type EventType string

// Topic is the bus topic every change is published on.
const Topic = "flowedit.changes"

const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreated       EventType = "workflow.created"
	WorkflowLoaded        EventType = "workflow.loaded"
	WorkflowMetaUpdated   EventType = "workflow.meta_updated"
	WorkflowGraphReplaced EventType = "workflow.graph_replaced"
	WorkflowExecuted      EventType = "workflow.executed"

	// Graph mutation events.
	NodeAdded    EventType = "node.added"
	NodeUpdated  EventType = "node.updated"
	NodeRemoved  EventType = "node.removed"
	NodeSelected EventType = "node.selected"
	EdgeAdded    EventType = "edge.added"
	EdgeRemoved  EventType = "edge.removed"

	// Incremental reveal events.
	StreamStarted  EventType = "stream.started"
	StreamTick     EventType = "stream.tick"
	StreamFinished EventType = "stream.finished"

	// Simulated run events.
	RunStarted  EventType = "run.started"
	RunStep     EventType = "run.step"
	RunFinished EventType = "run.finished"
)

// Change describes one state transition. Derived views re-read the store when
// they receive it; the change itself carries only identifiers.
type Change struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflowId,omitempty"`
	NodeID     string    `json:"nodeId,omitempty"`
	EdgeID     string    `json:"edgeId,omitempty"`
	Epoch      uint64    `json:"epoch,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

func (c Change) GetType() EventType {
	return c.Type
}

// Notifier receives changes. Emitters call Notify after releasing their own
// locks, so a notifier may read back from the emitter.
type Notifier interface {
	Notify(change Change)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(change Change)

func (f NotifierFunc) Notify(change Change) {
	f(change)
}

// Discard drops every change.
var Discard Notifier = NotifierFunc(func(Change) {})

// Recorder keeps every change it receives, in arrival order.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *Recorder) Notify(change Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.changes = append(r.changes, change)
}

// Changes returns a copy of the recorded changes.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Change, len(r.changes))
	copy(out, r.changes)

	return out
}

// Types returns the types of the recorded changes.
func (r *Recorder) Types() []EventType {
	changes := r.Changes()

	types := make([]EventType, len(changes))
	for i, c := range changes {
		types[i] = c.Type
	}

	return types
}
