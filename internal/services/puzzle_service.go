package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vytor/chesstactics/internal/errors"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/puzzlesource"
)

// MaxPuzzleBatch caps the number of puzzles generated per request.
const MaxPuzzleBatch = 20

// PuzzleService hands out batches of puzzles outside a session
type PuzzleService interface {
	GeneratePuzzles(ctx context.Context, req GeneratePuzzlesRequest) ([]*models.Puzzle, error)
}

type GeneratePuzzlesRequest struct {
	Difficulty string   `json:"difficulty"`
	Count      int      `json:"count"`
	Themes     []string `json:"themes"`
}

type puzzleService struct {
	source puzzlesource.Source
}

// NewPuzzleService creates a new PuzzleService
func NewPuzzleService(source puzzlesource.Source) PuzzleService {
	return &puzzleService{source: source}
}

func (s *puzzleService) GeneratePuzzles(ctx context.Context, req GeneratePuzzlesRequest) ([]*models.Puzzle, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzles")
	log.Debug("generating puzzles: difficulty=%s count=%d themes=%v", req.Difficulty, req.Count, req.Themes)

	difficulty := models.Difficulty(strings.ToLower(req.Difficulty))
	if !difficulty.Valid() {
		return nil, errors.NewValidationError("difficulty", "must be easy, medium, hard or expert")
	}
	if req.Count < 1 || req.Count > MaxPuzzleBatch {
		return nil, errors.NewValidationError("count", "must be between 1 and 20")
	}

	var themes []string
	for _, t := range req.Themes {
		if t = strings.TrimSpace(t); t != "" {
			themes = append(themes, t)
		}
	}

	puzzles, err := s.source.GeneratePuzzlesByThemes(ctx, themes, difficulty, req.Count)
	if err != nil {
		if stderrors.Is(err, puzzlesource.ErrNoPuzzles) {
			return nil, errors.NewNotFoundError("puzzles for difficulty", difficulty)
		}
		log.Error("failed to generate puzzles: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return puzzles, nil
}
