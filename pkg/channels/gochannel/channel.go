// Package gochannel provides the in-process pub/sub used to fan out editor changes.
package gochannel

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultBuffer is the per-subscriber output buffer.
const DefaultBuffer = 1000

// CreateChannel creates a GoChannel pub/sub. The same instance serves as
// publisher and subscriber.
func CreateChannel(logger *slog.Logger, buffer int64) *gochannel.GoChannel {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            buffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewSlogLogger(logger),
	)
}

// CreateTestChannel creates a GoChannel whose Publish returns only after every
// subscriber acked, so tests observe deliveries synchronously.
func CreateTestChannel(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)
}
