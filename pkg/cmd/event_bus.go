package cmd

import (
	"log/slog"

	"github.com/dukex/flowedit/pkg/channels/gochannel"
	"github.com/dukex/flowedit/pkg/eventbus"
)

// NewEventBus creates the change bus for the given provider. Only the
// in-process gochannel provider is available.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "gochannel":
		pubSub := gochannel.CreateChannel(logger, gochannel.DefaultBuffer)

		return eventbus.NewWatermillEventBus(pubSub, pubSub, logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
