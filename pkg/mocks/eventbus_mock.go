// Package mocks holds testify mocks shared by package tests.
package mocks

import (
	"context"

	"github.com/dukex/flowedit/pkg/eventbus"
	"github.com/dukex/flowedit/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a mock implementation of eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

var _ eventbus.EventBus = (*MockEventBus)(nil)

func (m *MockEventBus) Publish(ctx context.Context, change events.Change) error {
	args := m.Called(ctx, change)

	return args.Error(0)
}

func (m *MockEventBus) Notify(change events.Change) {
	m.Called(change)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}

// ChangeOf matches a change of the given type.
func ChangeOf(eventType events.EventType) any {
	return mock.MatchedBy(func(change events.Change) bool {
		return change.Type == eventType
	})
}
