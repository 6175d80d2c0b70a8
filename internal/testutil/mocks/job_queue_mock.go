package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesstactics/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAttempt(attempt models.PuzzleAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueProgressSave(userID string, data []byte) error {
	args := m.Called(userID, data)
	return args.Error(0)
}

func (m *MockJobQueue) ResetProgress(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
