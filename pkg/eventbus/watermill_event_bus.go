package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/flowedit/pkg/channels/gochannel"
	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/log"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("event bus is closed")

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger

	mu            sync.RWMutex
	subscriptions map[events.EventType][]EventHandler
	closed        bool
}

// New creates a bus backed by an in-process GoChannel.
func New(logger *slog.Logger) *WatermillEventBus {
	pubSub := gochannel.CreateChannel(logger, gochannel.DefaultBuffer)

	return NewWatermillEventBus(pubSub, pubSub, logger)
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		logger:        logger.With("module", "eventbus"),
		subscriptions: make(map[events.EventType][]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, change events.Change) error {
	eb.mu.RLock()
	closed := eb.closed
	eb.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	if change.ID == "" {
		change.ID = eb.GenerateID()
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+change.ID, payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(change.Type))
	msg.SetContext(ctx)

	return eb.publisher.Publish(events.Topic, msg)
}

// Notify publishes change in the background context. Failures are logged.
func (eb *WatermillEventBus) Notify(change events.Change) {
	if err := eb.Publish(context.Background(), change); err != nil && !errors.Is(err, ErrClosed) {
		eb.logger.Error("Failed to publish change", "type", change.Type, "error", err)
	}
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscriptions[eventType] = append(eb.subscriptions[eventType], handler)

	return nil
}

func (eb *WatermillEventBus) handlers(eventType events.EventType) []EventHandler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	out := make([]EventHandler, 0, len(eb.subscriptions[eventType])+len(eb.subscriptions[All]))
	out = append(out, eb.subscriptions[eventType]...)

	if eventType != All {
		out = append(out, eb.subscriptions[All]...)
	}

	return out
}

// Subscribe starts delivering changes to the registered handlers until ctx is
// done or the bus is closed.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	eb.mu.RLock()
	closed := eb.closed
	eb.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handlers := eb.handlers(eventType)
			if len(handlers) == 0 {
				msg.Ack()

				continue
			}

			var change events.Change
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				eb.logger.Error("Dropping undecodable change", "message_id", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			// Changes are hints to re-read the store; a failing handler is
			// logged and the message is not redelivered.
			ctx := log.NewContext(msg.Context(), eb.logger)

			for _, handler := range handlers {
				if err := handler(ctx, change); err != nil {
					eb.logger.Warn("Change handler failed", "type", change.Type, "change_id", change.ID, "error", err)
				}
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()

		return nil
	}

	eb.closed = true
	eb.mu.Unlock()

	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
