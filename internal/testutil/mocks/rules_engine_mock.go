package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesstactics/internal/models"
)

// MockRulesEngine is a mock implementation of evaluator.RulesEngine
type MockRulesEngine struct {
	mock.Mock
}

func (m *MockRulesEngine) Load(fen string) error {
	args := m.Called(fen)
	return args.Error(0)
}

func (m *MockRulesEngine) Move(from, to, promotion string) *models.MoveRecord {
	args := m.Called(from, to, promotion)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.MoveRecord)
}

func (m *MockRulesEngine) FEN() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRulesEngine) Turn() models.Side {
	args := m.Called()
	return args.Get(0).(models.Side)
}

func (m *MockRulesEngine) IsGameOver() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockRulesEngine) Undo() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockRulesEngine) PieceAt(square string) *models.Piece {
	args := m.Called(square)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Piece)
}
