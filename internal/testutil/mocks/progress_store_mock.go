package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProgressStore is a mock implementation of store.ProgressStore
type MockProgressStore struct {
	mock.Mock
}

func (m *MockProgressStore) Load(ctx context.Context, userID string) ([]byte, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProgressStore) Save(ctx context.Context, userID string, blob []byte) error {
	args := m.Called(ctx, userID, blob)
	return args.Error(0)
}

func (m *MockProgressStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockProgressStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProgressStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
