package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesstactics/internal/models"
)

// MockPuzzleRepository is a mock implementation of repository.PuzzleRepository
type MockPuzzleRepository struct {
	mock.Mock
}

func (m *MockPuzzleRepository) Get(ctx context.Context, id string) (*models.Puzzle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Puzzle), args.Error(1)
}

func (m *MockPuzzleRepository) List(ctx context.Context, filter models.PuzzleFilter) ([]*models.Puzzle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Puzzle), args.Error(1)
}

func (m *MockPuzzleRepository) Count(ctx context.Context, filter models.PuzzleFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockPuzzleRepository) UpsertBatch(ctx context.Context, puzzles []*models.Puzzle) (int, error) {
	args := m.Called(ctx, puzzles)
	return args.Int(0), args.Error(1)
}

func (m *MockPuzzleRepository) Themes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
