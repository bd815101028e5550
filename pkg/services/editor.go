package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/otelhelper"
	"github.com/dukex/flowedit/pkg/registry"
	"github.com/dukex/flowedit/pkg/reveal"
	"github.com/dukex/flowedit/pkg/simulator"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/dukex/flowedit/pkg/validation"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config gathers the editor's runtime knobs. Zero values select the defaults
// of each component.
type Config struct {
	StreamDelay time.Duration
	RunInterval time.Duration
	RunOrder    simulator.Order
	Layout      compiler.Layout
	Branching   bool
	Tier        registry.Tier
}

// Editor is one editing session: a single workflow, its pending proposals and
// the components that build, reveal and simulate it.
type Editor struct {
	store     *store.Store
	registry  *registry.Registry
	validator *validation.Validator
	compiler  *compiler.Compiler
	reveal    *reveal.Scheduler
	simulator *simulator.Simulator

	tier   registry.Tier
	clock  clockwork.Clock
	ids    models.IDGenerator
	logger *slog.Logger
	tracer trace.Tracer

	mu    sync.Mutex
	cards map[string]*models.ConfirmationCard
	order []string
}

type options struct {
	clock    clockwork.Clock
	ids      models.IDGenerator
	logger   *slog.Logger
	notifier events.Notifier
	tracer   trace.Tracer
}

type Option func(*options)

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDs sets the generator used for node and edge ids.
func WithIDs(ids models.IDGenerator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNotifier receives every store and run change.
func WithNotifier(notifier events.Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// NewEditor wires a store, compiler, reveal scheduler, simulator and validator
// around reg.
func NewEditor(cfg Config, reg *registry.Registry, opts ...Option) (*Editor, error) {
	o := options{
		clock:    clockwork.NewRealClock(),
		ids:      models.NewSequence(),
		logger:   slog.Default(),
		notifier: events.Discard,
		tracer:   otel.Tracer("flowedit/services"),
	}

	for _, opt := range opts {
		opt(&o)
	}

	if reg == nil {
		reg = registry.Default()
	}

	v, err := validation.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	tier := cfg.Tier
	if tier == "" {
		tier = registry.TierEnterprise
	}

	st := store.New(
		store.WithClock(o.clock),
		store.WithIDs(o.ids),
		store.WithLogger(o.logger),
		store.WithNotifier(o.notifier),
	)

	return &Editor{
		store:     st,
		registry:  reg,
		validator: v,
		compiler:  compiler.New(compiler.Options{Layout: cfg.Layout, Branching: cfg.Branching, IDs: o.ids}),
		reveal:    reveal.New(st, reveal.Config{Delay: cfg.StreamDelay}, reveal.WithClock(o.clock), reveal.WithLogger(o.logger)),
		simulator: simulator.New(st,
			simulator.Config{Interval: cfg.RunInterval, Order: cfg.RunOrder},
			simulator.WithClock(o.clock),
			simulator.WithLogger(o.logger),
			simulator.WithNotifier(o.notifier),
		),
		tier:   tier,
		clock:  o.clock,
		ids:    o.ids,
		logger: o.logger.With("module", "editor"),
		tracer: o.tracer,
		cards:  make(map[string]*models.ConfirmationCard),
	}, nil
}

// Store exposes the underlying graph store for read access.
func (e *Editor) Store() *store.Store {
	return e.store
}

func (e *Editor) Registry() *registry.Registry {
	return e.registry
}

func (e *Editor) Validator() *validation.Validator {
	return e.validator
}

// HealthCheck reports whether the registry is populated.
func (e *Editor) HealthCheck() (string, bool) {
	return e.registry.HealthCheck()
}

// CreateWorkflow starts a new empty draft. In-flight reveals and runs against
// the previous workflow stop.
func (e *Editor) CreateWorkflow(title, description string) *models.Workflow {
	return e.store.CreateWorkflow(title, description)
}

// LoadWorkflow validates w and replaces the current workflow with it.
func (e *Editor) LoadWorkflow(w *models.Workflow) error {
	if err := e.validator.Workflow(w); err != nil {
		return err
	}

	return e.store.LoadWorkflow(w)
}

// ImportJSON validates a raw workflow export and loads it.
func (e *Editor) ImportJSON(data []byte) (*models.Workflow, error) {
	w, err := e.validator.Document(data)
	if err != nil {
		return nil, err
	}

	if err := e.store.LoadWorkflow(w); err != nil {
		return nil, err
	}

	return e.store.Snapshot(), nil
}

func (e *Editor) UpdateWorkflowMeta(patch store.MetaPatch) error {
	if err := e.validator.Structs().Struct(patch); err != nil {
		return NewValidationError("UpdateWorkflowMeta", CodeInvalidMeta, err.Error(), ErrInvalidRequest)
	}

	return e.store.UpdateWorkflowMeta(patch)
}

// DropNode handles a palette drop: payload must name a registered node type.
func (e *Editor) DropNode(payload string, position models.Position) (string, error) {
	nodeType, err := e.registry.ParseDropPayload(payload)
	if err != nil {
		e.logger.Debug("Ignoring drop", "payload", payload)

		return "", NewValidationError("DropNode", CodeInvalidPayload, "", err)
	}

	return e.store.AddNode(nodeType, position, nil)
}

// AddNode adds a node of a registered type with an optional config, checked
// against the type's schema.
func (e *Editor) AddNode(nodeType models.NodeType, position models.Position, config map[string]any) (string, error) {
	if _, ok := e.registry.Lookup(nodeType); !ok {
		return "", NewValidationError("AddNode", CodeInvalidPayload, "",
			fmt.Errorf("%w: %q", registry.ErrUnknownNodeType, nodeType))
	}

	candidate := &models.WorkflowNode{ID: "candidate", Type: nodeType, Config: config}
	if err := e.validator.Node(candidate); err != nil {
		return "", NewValidationError("AddNode", CodeInvalidConfig, "", err)
	}

	return e.store.AddNode(nodeType, position, config)
}

// UpdateNode applies patch to a node. A new config is checked against the
// node type's schema before it replaces the old one.
func (e *Editor) UpdateNode(id string, patch store.NodePatch) error {
	if err := e.validator.Structs().Struct(patch); err != nil {
		return NewValidationError("UpdateNode", CodeInvalidConfig, err.Error(), ErrInvalidRequest)
	}

	if patch.Config != nil {
		w := e.store.Snapshot()
		if w == nil {
			return store.ErrNoWorkflow
		}

		node := w.NodeByID(id)
		if node == nil {
			return &store.NodeError{Op: "UpdateNode", WorkflowID: w.ID, NodeID: id, Err: store.ErrNodeNotFound}
		}

		node.Config = patch.Config
		if err := e.validator.Node(node); err != nil {
			return NewValidationError("UpdateNode", CodeInvalidConfig, "", err)
		}
	}

	return e.store.UpdateNode(id, patch)
}

func (e *Editor) RemoveNode(id string) error {
	return e.store.RemoveNode(id)
}

func (e *Editor) SelectNode(id string) error {
	return e.store.SelectNode(id)
}

func (e *Editor) ClearSelection() {
	e.store.ClearSelection()
}

// AddEdge connects two nodes. Handles are only accepted on decision sources.
func (e *Editor) AddEdge(source, target, sourceHandle, label string) (string, error) {
	if sourceHandle != "" {
		if sourceHandle != models.HandleTrue && sourceHandle != models.HandleFalse {
			return "", NewValidationError("AddEdge", CodeInvalidHandle,
				fmt.Sprintf("unknown handle %q", sourceHandle), ErrInvalidRequest)
		}

		if w := e.store.Snapshot(); w != nil {
			if node := w.NodeByID(source); node != nil && !node.IsDecision() {
				return "", NewValidationError("AddEdge", CodeInvalidHandle,
					fmt.Sprintf("%s nodes have no %q handle", node.Type, sourceHandle), ErrInvalidRequest)
			}
		}
	}

	return e.store.AddEdge(source, target, sourceHandle, label)
}

func (e *Editor) RemoveEdge(id string) error {
	return e.store.RemoveEdge(id)
}

// Export returns the workflow as two-space indented JSON.
func (e *Editor) Export() (string, error) {
	return e.store.ExportJSON()
}

// Validate checks the current workflow and returns errors and warnings.
func (e *Editor) Validate() *validation.Report {
	return e.validator.Check(e.store.Snapshot())
}

// GenerateRecommendation reveals the fixed recommendation graph into the
// current workflow.
func (e *Editor) GenerateRecommendation(ctx context.Context) (*reveal.Run, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.generate_recommendation")
	defer span.End()

	nodes, edges := reveal.RecommendationGraph(e.ids)

	run, err := e.reveal.Start(context.WithoutCancel(ctx), nodes, edges)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int64(otelhelper.EpochKey, int64(run.Epoch())))
	e.logger.InfoContext(ctx, "Revealing recommendation", "nodes", len(nodes), "epoch", run.Epoch())

	return run, nil
}

// Reveal returns the most recent reveal, or nil.
func (e *Editor) Reveal() *reveal.Run {
	return e.reveal.Current()
}

// Run starts a simulated execution. Runs are refused while a graph is
// being revealed.
func (e *Editor) Run(ctx context.Context) (*simulator.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.run")
	defer span.End()

	if e.store.Streaming() {
		otelhelper.SetError(span, ErrStreaming)

		return nil, &ServiceError{Op: "Run", Err: ErrStreaming}
	}

	exec, err := e.simulator.Run(context.WithoutCancel(ctx))
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.ExecutionIDKey, exec.ID),
		attribute.String(otelhelper.WorkflowIDKey, exec.WorkflowID),
	)

	return exec, nil
}

// RunLog returns the log of the most recent run.
func (e *Editor) RunLog() []models.ExecutionLogEntry {
	return e.simulator.Log()
}

func (e *Editor) Executing() bool {
	return e.simulator.Executing()
}

// CancelRun stops the executing run, if any.
func (e *Editor) CancelRun() {
	e.simulator.Cancel()
}
