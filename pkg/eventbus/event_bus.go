// Package eventbus fans editor changes out to interested consumers.
package eventbus

import (
	"context"

	"github.com/dukex/flowedit/pkg/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, change events.Change) error
}

type EventSubscriber interface {
	// Handle registers a handler for one change type. Registering the empty
	// type receives every change.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, change events.Change) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	events.Notifier
	Close() error
	GenerateID() string
}

// All is the handler key that matches every change type.
const All events.EventType = ""
