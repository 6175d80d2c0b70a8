// Package puzzlesource selects puzzles from the catalogue table and
// optionally decorates them with a trap.
package puzzlesource

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/repository"
	"github.com/vytor/chesstactics/internal/traps"
)

var ErrNoPuzzles = errors.New("no puzzles available")

// DefaultTrapProbability applies when a request does not say whether to
// include a trap.
const DefaultTrapProbability = 0.3

// Source hands out puzzles for new attempts.
type Source interface {
	GeneratePuzzle(ctx context.Context, theme string, difficulty models.Difficulty, includeTrap *bool) (*models.Puzzle, error)
	GeneratePuzzlesByThemes(ctx context.Context, themes []string, difficulty models.Difficulty, count int) ([]*models.Puzzle, error)
}

type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Query is the full set of selection inputs.
type Query struct {
	Theme       string
	Difficulty  models.Difficulty
	IncludeTrap *bool
	Weaknesses  []string
	ExcludeIDs  []string
}

// DBSource reads puzzles through a PuzzleRepository. It is safe for
// concurrent use as long as the trap engine is not shared elsewhere.
type DBSource struct {
	repo            repository.PuzzleRepository
	traps           *traps.Engine
	trapProbability float64

	mu  sync.Mutex
	rng Rand
}

type Option func(*DBSource)

func WithTrapProbability(p float64) Option {
	return func(s *DBSource) { s.trapProbability = p }
}

func WithRand(rng Rand) Option {
	return func(s *DBSource) { s.rng = rng }
}

func NewDBSource(repo repository.PuzzleRepository, trapEngine *traps.Engine, opts ...Option) *DBSource {
	s := &DBSource{
		repo:            repo,
		traps:           trapEngine,
		trapProbability: DefaultTrapProbability,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DBSource) GeneratePuzzle(ctx context.Context, theme string, difficulty models.Difficulty, includeTrap *bool) (*models.Puzzle, error) {
	return s.Select(ctx, Query{Theme: theme, Difficulty: difficulty, IncludeTrap: includeTrap})
}

// GeneratePuzzlesByThemes cycles through themes, avoiding repeats while the
// catalogue allows it.
func (s *DBSource) GeneratePuzzlesByThemes(ctx context.Context, themes []string, difficulty models.Difficulty, count int) ([]*models.Puzzle, error) {
	if count <= 0 {
		return []*models.Puzzle{}, nil
	}
	out := make([]*models.Puzzle, 0, count)
	var chosen []string
	for i := 0; i < count; i++ {
		theme := ""
		if len(themes) > 0 {
			theme = themes[i%len(themes)]
		}
		p, err := s.Select(ctx, Query{Theme: theme, Difficulty: difficulty, ExcludeIDs: chosen})
		if err != nil {
			return nil, err
		}
		chosen = append(chosen, p.ID)
		out = append(out, p)
	}
	return out, nil
}

// Select picks a random puzzle matching q. Constraints are relaxed in
// order (exclusions, theme, difficulty) until something matches.
func (s *DBSource) Select(ctx context.Context, q Query) (*models.Puzzle, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzlesource")

	var attempts []models.PuzzleFilter
	for _, f := range []models.PuzzleFilter{
		{Theme: q.Theme, Difficulty: q.Difficulty},
		{Difficulty: q.Difficulty},
		{},
	} {
		if len(q.ExcludeIDs) > 0 {
			excl := f
			excl.ExcludeIDs = q.ExcludeIDs
			attempts = append(attempts, excl)
		}
		attempts = append(attempts, f)
	}

	var candidates []*models.Puzzle
	for i, f := range attempts {
		list, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list puzzles: %w", err)
		}
		if len(list) > 0 {
			if i > 0 {
				log.Debug("relaxed puzzle query to step %d (theme=%q difficulty=%q)", i, f.Theme, f.Difficulty)
			}
			candidates = list
			break
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoPuzzles
	}

	s.mu.Lock()
	p := candidates[s.rng.Intn(len(candidates))].Clone()
	include := s.rng.Float64() < s.trapProbability
	if q.IncludeTrap != nil {
		include = *q.IncludeTrap
	}
	if include && s.traps != nil {
		p = s.traps.EnhancePuzzle(p, q.Weaknesses)
	}
	s.mu.Unlock()
	log.Debug("selected puzzle %s (theme=%s difficulty=%s trap=%t)", p.ID, p.Theme, p.Difficulty, p.HasTrap)
	return p, nil
}

// Seed upserts catalogue puzzles into the repository.
func Seed(ctx context.Context, repo repository.PuzzleRepository, puzzles []*models.Puzzle) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzlesource")
	n, err := repo.UpsertBatch(ctx, puzzles)
	if err != nil {
		log.Error("failed to seed puzzles: %v", err)
		return 0, err
	}
	log.Info("seeded %d puzzles", n)
	return n, nil
}
