package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/vaultemu/internal/lifetime"
)

// MockNotifier is a mock implementation of lifetime.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event lifetime.Event) {
	m.Called(ctx, event)
}
