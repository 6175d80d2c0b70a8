package repository

import (
	"context"

	"github.com/vytor/chesstactics/internal/models"
)

// PuzzleRepository handles puzzle catalogue access
type PuzzleRepository interface {
	Get(ctx context.Context, id string) (*models.Puzzle, error)
	List(ctx context.Context, filter models.PuzzleFilter) ([]*models.Puzzle, error)
	Count(ctx context.Context, filter models.PuzzleFilter) (int, error)
	UpsertBatch(ctx context.Context, puzzles []*models.Puzzle) (int, error)
	Themes(ctx context.Context) ([]string, error)
}
