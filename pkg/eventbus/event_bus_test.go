package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowedit/pkg/channels/gochannel"
	"github.com/dukex/flowedit/pkg/events"
	"github.com/dukex/flowedit/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pubSub := gochannel.CreateTestChannel(logger)
	bus := NewWatermillEventBus(pubSub, pubSub, logger)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

type collector struct {
	mu      sync.Mutex
	changes []events.Change
}

func (c *collector) handle(_ context.Context, change events.Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.changes = append(c.changes, change)

	return nil
}

func (c *collector) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]events.EventType, len(c.changes))
	for i, change := range c.changes {
		out[i] = change.Type
	}

	return out
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	nodes := &collector{}
	all := &collector{}

	require.NoError(t, bus.Handle(events.NodeAdded, nodes.handle))
	require.NoError(t, bus.Handle(All, all.handle))
	require.NoError(t, bus.Subscribe(context.Background()))

	ts := time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, bus.Publish(context.Background(), events.Change{
		Type:       events.NodeAdded,
		Timestamp:  ts,
		WorkflowID: "wf-1",
		NodeID:     "node-1",
	}))
	require.NoError(t, bus.Publish(context.Background(), events.Change{Type: events.EdgeAdded, EdgeID: "edge-1"}))

	require.Eventually(t, func() bool {
		return len(all.types()) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []events.EventType{events.NodeAdded}, nodes.types())
	assert.Equal(t, []events.EventType{events.NodeAdded, events.EdgeAdded}, all.types())

	got := nodes.changes[0]
	assert.NotEmpty(t, got.ID, "publish assigns an id")
	assert.Equal(t, "node-1", got.NodeID)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestWatermillEventBus_Notify(t *testing.T) {
	bus := newTestBus(t)
	feed := NewFeed(10)

	require.NoError(t, bus.Handle(All, feed.Handle))
	require.NoError(t, bus.Subscribe(context.Background()))

	var notifier events.Notifier = bus
	notifier.Notify(events.Change{Type: events.WorkflowCreated})
	notifier.Notify(events.Change{Type: events.NodeAdded, ID: "fixed"})

	require.Eventually(t, func() bool {
		return feed.Last() == 2
	}, time.Second, time.Millisecond)

	entries := feed.Since(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "fixed", entries[1].Change.ID, "existing ids are kept")
}

func TestWatermillEventBus_HandlerErrorDoesNotBlock(t *testing.T) {
	bus := newTestBus(t)
	good := &collector{}

	require.NoError(t, bus.Handle(events.RunStep, func(context.Context, events.Change) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Handle(events.RunStep, good.handle))
	require.NoError(t, bus.Subscribe(context.Background()))

	require.NoError(t, bus.Publish(context.Background(), events.Change{Type: events.RunStep, NodeID: "a"}))
	require.NoError(t, bus.Publish(context.Background(), events.Change{Type: events.RunStep, NodeID: "b"}))

	require.Eventually(t, func() bool {
		return len(good.types()) == 2
	}, time.Second, time.Millisecond)
}

func TestWatermillEventBus_HandlerLogger(t *testing.T) {
	bus := newTestBus(t)
	got := make(chan *slog.Logger, 1)

	require.NoError(t, bus.Handle(All, func(ctx context.Context, _ events.Change) error {
		got <- log.FromContext(ctx)

		return nil
	}))
	require.NoError(t, bus.Subscribe(context.Background()))

	bus.Notify(events.Change{Type: events.NodeAdded})

	select {
	case l := <-got:
		assert.NotSame(t, slog.Default(), l, "handlers get the bus logger")
	case <-time.After(time.Second):
		t.Fatal("change was not delivered")
	}
}

func TestWatermillEventBus_Close(t *testing.T) {
	bus := newTestBus(t)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	assert.ErrorIs(t, bus.Publish(context.Background(), events.Change{Type: events.NodeAdded}), ErrClosed)
	assert.ErrorIs(t, bus.Subscribe(context.Background()), ErrClosed)

	assert.NotPanics(t, func() {
		bus.Notify(events.Change{Type: events.NodeAdded})
	})
}

func TestNew(t *testing.T) {
	bus := New(logger)
	defer bus.Close()

	feed := NewFeed(0)
	require.NoError(t, bus.Handle(All, feed.Handle))
	require.NoError(t, bus.Subscribe(context.Background()))

	bus.Notify(events.Change{Type: events.StreamTick})

	require.Eventually(t, func() bool {
		return feed.Last() == 1
	}, time.Second, time.Millisecond)
}

func TestFeed(t *testing.T) {
	feed := NewFeed(3)
	assert.Equal(t, uint64(0), feed.Last())
	assert.Empty(t, feed.Since(0))

	for _, nodeID := range []string{"a", "b", "c", "d", "e"} {
		feed.Append(events.Change{Type: events.NodeAdded, NodeID: nodeID})
	}

	assert.Equal(t, uint64(5), feed.Last())

	entries := feed.Since(0)
	require.Len(t, entries, 3, "only the newest entries are kept")
	assert.Equal(t, uint64(3), entries[0].Seq)
	assert.Equal(t, "c", entries[0].Change.NodeID)
	assert.Equal(t, "e", entries[2].Change.NodeID)

	entries = feed.Since(4)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(5), entries[0].Seq)

	assert.Empty(t, feed.Since(5))
	assert.Equal(t, DefaultFeedSize, NewFeed(-1).size)
}
