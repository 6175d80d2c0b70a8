package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesstactics/internal/models"
)

// MockAttemptRepository is a mock implementation of repository.AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Insert(ctx context.Context, attempt models.PuzzleAttempt) (int64, error) {
	args := m.Called(ctx, attempt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filter models.AttemptFilter) ([]models.PuzzleAttempt, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PuzzleAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Count(ctx context.Context, filter models.AttemptFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptRepository) SolvedPuzzleIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttemptRepository) ThemeSummary(ctx context.Context, userID string) ([]models.AttemptSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AttemptSummary), args.Error(1)
}

func (m *MockAttemptRepository) DeleteForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
