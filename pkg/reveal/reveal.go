// Package reveal streams a precomputed graph into the store one node at a time.
package reveal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/jonboulle/clockwork"
)

// DefaultDelay is the pause before each inserted node.
const DefaultDelay = 400 * time.Millisecond

// Config tunes the reveal cadence.
type Config struct {
	Delay time.Duration
}

// Scheduler runs reveals against one store. Starting a reveal stops the
// previous one.
type Scheduler struct {
	store  *store.Store
	delay  time.Duration
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	current *Run
}

type Option func(*Scheduler)

// WithClock sets the clock that drives the cadence.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a scheduler writing into st.
func New(st *store.Store, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  st,
		delay:  cfg.Delay,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}

	if s.delay <= 0 {
		s.delay = DefaultDelay
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "reveal")

	return s
}

// Delay returns the pause between insertions.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Run is one in-flight reveal.
type Run struct {
	epoch  store.Epoch
	total  int
	done   chan struct{}
	stopCh chan struct{}
	once   sync.Once

	mu       sync.Mutex
	inserted int
	err      error
}

// Epoch returns the stream generation this run writes to.
func (r *Run) Epoch() store.Epoch {
	return r.epoch
}

// Done is closed once the run has finished or stopped.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Err reports why the run stopped: nil when every node was inserted,
// context.Canceled or the context's error when cancelled, and
// store.ErrStaleEpoch when the graph was replaced underneath it.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

// Inserted returns how many nodes have been inserted so far.
func (r *Run) Inserted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inserted
}

// Total returns the number of nodes the run will insert.
func (r *Run) Total() int {
	return r.total
}

// Cancel stops the run before its next insertion. Nodes already inserted stay.
func (r *Run) Cancel() {
	r.once.Do(func() {
		close(r.stopCh)
	})
}

// Wait blocks until the run stops or ctx is done.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start clears the store's graph and inserts nodes[i] after (i+1) delays.
// Each insertion also adds the edges whose endpoints are both present, so the
// store never holds a dangling edge. The input graph must be self-consistent.
func (s *Scheduler) Start(ctx context.Context, nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) (*Run, error) {
	if err := store.ValidateGraph(nodes, edges); err != nil {
		return nil, fmt.Errorf("cannot reveal graph: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Cancel()
	}

	epoch, err := s.store.BeginStream()
	if err != nil {
		return nil, fmt.Errorf("failed to begin stream: %w", err)
	}

	run := &Run{
		epoch:  epoch,
		total:  len(nodes),
		done:   make(chan struct{}),
		stopCh: make(chan struct{}),
	}
	s.current = run

	s.logger.InfoContext(ctx, "Starting reveal", "epoch", epoch, "nodes", len(nodes), "edges", len(edges), "delay", s.delay)

	go s.reveal(ctx, run, models.CloneNodes(nodes), models.CloneEdges(edges))

	return run, nil
}

func (s *Scheduler) reveal(ctx context.Context, run *Run, nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) {
	defer close(run.done)

	stale := s.store.Watch(run.epoch)
	logger := s.logger.With("epoch", run.epoch)

	for i, node := range nodes {
		if err := s.wait(ctx, run, stale); err != nil {
			s.stop(ctx, run, err)

			return
		}

		added, err := s.store.StreamNode(run.epoch, node, edges)
		if err != nil {
			logger.WarnContext(ctx, "Reveal stopped", "node_id", node.ID, "error", err)
			s.stop(ctx, run, err)

			return
		}

		run.mu.Lock()
		run.inserted = i + 1
		run.mu.Unlock()

		logger.DebugContext(ctx, "Revealed node", "node_id", node.ID, "index", i, "edges_added", added)
	}

	if err := s.store.EndStream(run.epoch); err != nil {
		s.stop(ctx, run, err)

		return
	}

	logger.InfoContext(ctx, "Reveal finished", "nodes", len(nodes))
}

// wait blocks for one delay, returning early when the run is cancelled or stale.
func (s *Scheduler) wait(ctx context.Context, run *Run, stale <-chan struct{}) error {
	timer := s.clock.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run.stopCh:
		return context.Canceled
	case <-stale:
		return store.ErrStaleEpoch
	case <-timer.Chan():
		return nil
	}
}

// stop records why the run ended and lowers the streaming flag when the
// stream still belongs to this run.
func (s *Scheduler) stop(ctx context.Context, run *Run, reason error) {
	run.mu.Lock()
	run.err = reason
	run.mu.Unlock()

	if err := s.store.EndStream(run.epoch); err == nil {
		s.logger.InfoContext(ctx, "Reveal cancelled", "epoch", run.epoch, "inserted", run.Inserted(), "reason", reason)
	}
}

// Current returns the most recently started run, or nil.
func (s *Scheduler) Current() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}
