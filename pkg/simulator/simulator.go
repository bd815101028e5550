// Package simulator previews a workflow run by marking nodes done at a fixed
// cadence. Nothing is executed.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/linearize"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the pause before each node is marked done.
const DefaultInterval = 800 * time.Millisecond

// ErrAlreadyRunning indicates a run was requested while another is executing.
var ErrAlreadyRunning = errors.New("a simulated run is already executing")

// Order selects the sequence nodes are visited in.
type Order string

const (
	// OrderStored visits nodes in store order.
	OrderStored Order = "stored"

	// OrderLinearized visits nodes in card-view order.
	OrderLinearized Order = "linearized"
)

// ParseOrder resolves an order by name; "" is OrderStored.
func ParseOrder(name string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(name))) {
	case "", OrderStored:
		return OrderStored, nil
	case OrderLinearized:
		return OrderLinearized, nil
	}

	return "", fmt.Errorf("unknown run order %q", name)
}

// Config tunes the simulated cadence.
type Config struct {
	Interval time.Duration
	Order    Order
}

// Simulator runs one simulated execution at a time against a store.
type Simulator struct {
	store    *store.Store
	interval time.Duration
	order    Order
	clock    clockwork.Clock
	logger   *slog.Logger
	notifier events.Notifier

	mu      sync.Mutex
	log     []models.ExecutionLogEntry
	current *Execution
}

type Option func(*Simulator)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Simulator) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithNotifier sets the receiver of run.* changes.
func WithNotifier(notifier events.Notifier) Option {
	return func(s *Simulator) {
		s.notifier = notifier
	}
}

// New creates a simulator reading from st.
func New(st *store.Store, cfg Config, opts ...Option) *Simulator {
	s := &Simulator{
		store:    st,
		interval: cfg.Interval,
		order:    cfg.Order,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		notifier: events.Discard,
	}

	if s.interval <= 0 {
		s.interval = DefaultInterval
	}

	if s.order == "" {
		s.order = OrderStored
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "simulator")

	return s
}

// Interval returns the pause between steps.
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// Order returns the visiting order.
func (s *Simulator) Order() Order {
	return s.order
}

// Execution is one simulated run.
type Execution struct {
	ID         string
	WorkflowID string
	epoch      store.Epoch
	nodes      []*models.WorkflowNode
	done       chan struct{}
	stopCh     chan struct{}
	once       sync.Once
	err        error
}

// Done is closed once the run has finished or stopped.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Err is nil for a completed run, context.Canceled or the context's error
// when cancelled, and store.ErrStaleEpoch when the workflow was replaced.
// It is only meaningful after Done is closed.
func (e *Execution) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Cancel stops the run before its next step.
func (e *Execution) Cancel() {
	e.once.Do(func() {
		close(e.stopCh)
	})
}

// Wait blocks until the run stops or ctx is done.
func (e *Execution) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Steps returns the ids of the nodes the run visits, in order.
func (e *Execution) Steps() []string {
	ids := make([]string, len(e.nodes))
	for i, node := range e.nodes {
		ids[i] = node.ID
	}

	return ids
}

// Run starts a simulated execution of the current workflow. The node list is
// captured when the run starts; later edits do not affect it.
func (s *Simulator) Run(ctx context.Context) (*Execution, error) {
	s.mu.Lock()

	if s.current != nil {
		select {
		case <-s.current.done:
		default:
			s.mu.Unlock()

			return nil, ErrAlreadyRunning
		}
	}

	epoch := s.store.Epoch()

	w := s.store.Snapshot()
	if w == nil {
		s.mu.Unlock()

		return nil, store.ErrNoWorkflow
	}

	nodes := w.Nodes
	if s.order == OrderLinearized {
		nodes = linearize.Linearize(w.Nodes, w.Edges)
	}

	exec := &Execution{
		ID:         uuid.New().String(),
		WorkflowID: w.ID,
		epoch:      epoch,
		nodes:      nodes,
		done:       make(chan struct{}),
		stopCh:     make(chan struct{}),
	}

	s.current = exec
	s.log = []models.ExecutionLogEntry{}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Starting simulated run",
		"execution_id", exec.ID,
		"workflow_id", exec.WorkflowID,
		"nodes", len(nodes),
		"order", s.order,
	)
	s.notify(exec, events.RunStarted, "", string(s.order))

	go s.execute(ctx, exec)

	return exec, nil
}

func (s *Simulator) execute(ctx context.Context, exec *Execution) {
	defer close(exec.done)

	stale := s.store.Watch(exec.epoch)

	for _, node := range exec.nodes {
		if err := s.wait(ctx, exec, stale); err != nil {
			exec.err = err
			s.logger.InfoContext(ctx, "Simulated run stopped", "execution_id", exec.ID, "reason", err)
			s.notify(exec, events.RunFinished, "", err.Error())

			return
		}

		entry := models.ExecutionLogEntry{
			NodeID:    node.ID,
			Status:    models.NodeStatusSuccess,
			Message:   "Executed " + node.Label,
			Timestamp: s.clock.Now().UTC(),
		}

		s.mu.Lock()
		s.log = append(s.log, entry)
		s.mu.Unlock()

		s.notify(exec, events.RunStep, node.ID, entry.Message)
	}

	if err := s.store.RecordExecution(exec.epoch); err != nil {
		exec.err = err
		s.logger.WarnContext(ctx, "Failed to record simulated run", "execution_id", exec.ID, "error", err)
		s.notify(exec, events.RunFinished, "", err.Error())

		return
	}

	s.logger.InfoContext(ctx, "Simulated run finished", "execution_id", exec.ID, "steps", len(exec.nodes))
	s.notify(exec, events.RunFinished, "", "completed")
}

func (s *Simulator) wait(ctx context.Context, exec *Execution, stale <-chan struct{}) error {
	timer := s.clock.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-exec.stopCh:
		return context.Canceled
	case <-stale:
		return store.ErrStaleEpoch
	case <-timer.Chan():
		return nil
	}
}

func (s *Simulator) notify(exec *Execution, eventType events.EventType, nodeID, detail string) {
	s.notifier.Notify(events.Change{
		Type:       eventType,
		Timestamp:  s.clock.Now().UTC(),
		WorkflowID: exec.WorkflowID,
		NodeID:     nodeID,
		Epoch:      uint64(exec.epoch),
		Detail:     detail,
	})
}

// Log returns a copy of the current execution log.
func (s *Simulator) Log() []models.ExecutionLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ExecutionLogEntry, len(s.log))
	copy(out, s.log)

	return out
}

// Executing reports whether a run is in progress.
func (s *Simulator) Executing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}

	select {
	case <-s.current.done:
		return false
	default:
		return true
	}
}

// Current returns the most recent execution, or nil.
func (s *Simulator) Current() *Execution {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Cancel stops the executing run, if any.
func (s *Simulator) Cancel() {
	if exec := s.Current(); exec != nil {
		exec.Cancel()
	}
}
