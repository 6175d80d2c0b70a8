package repository

import (
	"context"

	"github.com/vytor/chesstactics/internal/models"
)

// AttemptRepository handles puzzle attempt history
type AttemptRepository interface {
	Insert(ctx context.Context, attempt models.PuzzleAttempt) (int64, error)
	List(ctx context.Context, filter models.AttemptFilter) ([]models.PuzzleAttempt, error)
	Count(ctx context.Context, filter models.AttemptFilter) (int, error)
	SolvedPuzzleIDs(ctx context.Context, userID string) ([]string, error)
	ThemeSummary(ctx context.Context, userID string) ([]models.AttemptSummary, error)
	DeleteForUser(ctx context.Context, userID string) error
}
