package services

import (
	"context"
	"slices"

	"github.com/dukex/flowedit/pkg/compiler"
	"github.com/dukex/flowedit/pkg/models"
	"github.com/dukex/flowedit/pkg/otelhelper"
	"github.com/dukex/flowedit/pkg/reveal"
	"github.com/dukex/flowedit/pkg/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Propose validates a parsed proposal and wraps it in a pending confirmation card.
func (e *Editor) Propose(intent *models.VoiceWorkflowIntent) (*models.ConfirmationCard, error) {
	if intent == nil {
		return nil, &ServiceError{Op: "Propose", Code: CodeInvalidIntent, Err: ErrIntentRequired}
	}

	if err := e.validator.Intent(intent); err != nil {
		return nil, NewValidationError("Propose", CodeInvalidIntent, "", err)
	}

	card := &models.ConfirmationCard{
		ID:        uuid.New().String(),
		Intent:    intent.Clone(),
		Status:    models.CardStatusPending,
		CreatedAt: e.clock.Now().UTC(),
	}

	e.mu.Lock()
	e.cards[card.ID] = card
	e.order = append(e.order, card.ID)
	e.mu.Unlock()

	e.logger.Info("Proposal awaiting confirmation", "card_id", card.ID, "steps", len(intent.Steps))

	return card.Clone(), nil
}

// Card returns a copy of an open card.
func (e *Editor) Card(id string) (*models.ConfirmationCard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	card, ok := e.cards[id]
	if !ok {
		return nil, &ServiceError{Op: "Card", Message: "card " + id + " not found", Err: ErrCardNotFound}
	}

	return card.Clone(), nil
}

// Cards lists the open cards in proposal order.
func (e *Editor) Cards() []*models.ConfirmationCard {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.ConfirmationCard, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.cards[id].Clone())
	}

	return out
}

// openCard returns the card for id when it still awaits a decision. Callers hold e.mu.
func (e *Editor) openCard(op, id string) (*models.ConfirmationCard, error) {
	card, ok := e.cards[id]
	if !ok {
		return nil, &ServiceError{Op: op, Message: "card " + id + " not found", Err: ErrCardNotFound}
	}

	if !card.Open() {
		return nil, &ServiceError{Op: op, Code: CodeCardResolved, Message: "card " + id + " is " + string(card.Status), Err: ErrCardResolved}
	}

	return card, nil
}

func (e *Editor) discard(id string) {
	delete(e.cards, id)
	e.order = slices.DeleteFunc(e.order, func(other string) bool {
		return other == id
	})
}

// EditCard merges edits over the card's earlier edits and moves it to editing.
// The card is left unchanged if the edited proposal does not validate.
func (e *Editor) EditCard(id string, edits models.IntentEdits) (*models.ConfirmationCard, error) {
	if err := e.validator.Structs().Struct(edits); err != nil {
		return nil, NewValidationError("EditCard", CodeInvalidIntent, err.Error(), ErrInvalidRequest)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	card, err := e.openCard("EditCard", id)
	if err != nil {
		return nil, err
	}

	candidate := card.Clone()
	candidate.Edits = mergeEdits(candidate.Edits, edits.Clone())

	if err := e.validator.Intent(candidate.Resolved()); err != nil {
		return nil, NewValidationError("EditCard", CodeInvalidIntent, "", err)
	}

	candidate.Status = models.CardStatusEditing
	e.cards[id] = candidate

	return candidate.Clone(), nil
}

// RejectCard discards a card without touching the workflow.
func (e *Editor) RejectCard(id string) (*models.ConfirmationCard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	card, err := e.openCard("RejectCard", id)
	if err != nil {
		return nil, err
	}

	card.Status = models.CardStatusRejected
	e.discard(id)

	e.logger.Info("Proposal rejected", "card_id", id)

	return card.Clone(), nil
}

// ConfirmCard compiles the card's proposal with its edits applied and reveals
// the result into the current workflow, creating one if none is loaded. The
// card is discarded once the reveal has started.
func (e *Editor) ConfirmCard(ctx context.Context, id string) (*reveal.Run, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "editor.confirm_card", attribute.String(otelhelper.CardIDKey, id))
	defer span.End()

	e.mu.Lock()

	card, err := e.openCard("ConfirmCard", id)
	if err != nil {
		e.mu.Unlock()
		otelhelper.SetError(span, err)

		return nil, err
	}

	previous := card.Status
	card.Status = models.CardStatusConfirmed
	intent := card.Resolved()
	e.mu.Unlock()

	run, err := e.commit(ctx, intent)
	if err != nil {
		e.mu.Lock()
		card.Status = previous
		e.mu.Unlock()

		otelhelper.SetError(span, err)

		return nil, err
	}

	e.mu.Lock()
	e.discard(id)
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Int(otelhelper.NodeCountKey, run.Total()),
		attribute.Int64(otelhelper.EpochKey, int64(run.Epoch())),
	)
	e.logger.InfoContext(ctx, "Proposal confirmed", "card_id", id, "nodes", run.Total(), "epoch", run.Epoch())

	return run, nil
}

func (e *Editor) commit(ctx context.Context, intent *models.VoiceWorkflowIntent) (*reveal.Run, error) {
	graph, err := e.prepare("ConfirmCard", intent)
	if err != nil {
		return nil, err
	}

	return e.reveal.Start(context.WithoutCancel(ctx), graph.Nodes, graph.Edges)
}

// ApplyIntent compiles intent into the current workflow at once, without
// revealing it node by node. A workflow is created when none exists.
func (e *Editor) ApplyIntent(ctx context.Context, intent *models.VoiceWorkflowIntent) (*models.Workflow, error) {
	_, span := otelhelper.StartSpan(ctx, e.tracer, "editor.apply_intent")
	defer span.End()

	graph, err := e.prepare("ApplyIntent", intent)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := e.store.ReplaceGraph(graph.Nodes, graph.Edges); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int(otelhelper.NodeCountKey, len(graph.Nodes)))

	return e.store.Snapshot(), nil
}

// prepare validates and compiles intent, then copies its metadata onto the
// current workflow.
func (e *Editor) prepare(op string, intent *models.VoiceWorkflowIntent) (*compiler.Graph, error) {
	if err := e.validator.Intent(intent); err != nil {
		return nil, NewValidationError(op, CodeInvalidIntent, "", err)
	}

	graph, err := e.compiler.Compile(intent)
	if err != nil {
		return nil, err
	}

	if e.store.Snapshot() == nil {
		e.store.CreateWorkflow(intent.Title, intent.Description)
	}

	err = e.store.UpdateWorkflowMeta(store.MetaPatch{
		Title:       &intent.Title,
		Description: &intent.Description,
		TargetAsset: intent.TargetAsset,
		SafetyCheck: intent.SafetyCheck,
	})
	if err != nil {
		return nil, err
	}

	return graph, nil
}

func mergeEdits(base, next *models.IntentEdits) *models.IntentEdits {
	if base == nil {
		return next
	}

	if next.Title != nil {
		base.Title = next.Title
	}

	if next.Description != nil {
		base.Description = next.Description
	}

	if next.TargetAsset != nil {
		base.TargetAsset = next.TargetAsset
	}

	if next.Trigger != nil {
		base.Trigger = next.Trigger
	}

	if next.Steps != nil {
		base.Steps = next.Steps
	}

	if next.SafetyCheck != nil {
		base.SafetyCheck = next.SafetyCheck
	}

	return base
}
