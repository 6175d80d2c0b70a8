package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var puzzleColumns = []string{
	"id", "fen", "moves", "orientation", "theme", "difficulty", "rating",
	"expected_time", "category", "description", "alternatives",
}

type puzzleRepository struct {
	db *sql.DB
}

// NewPuzzleRepository creates a new PuzzleRepository implementation
func NewPuzzleRepository(db *sql.DB) repository.PuzzleRepository {
	return &puzzleRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(row rowScanner) (*models.Puzzle, error) {
	var (
		p            models.Puzzle
		moves        string
		alternatives string
	)
	if err := row.Scan(&p.ID, &p.StartingPosition, &moves, &p.Orientation, &p.Theme, &p.Difficulty,
		&p.Rating, &p.ExpectedTime, &p.Category, &p.Description, &alternatives); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(moves), &p.SolutionMoves); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(alternatives), &p.AlternativePaths); err != nil {
		return nil, err
	}
	if len(p.AlternativePaths) == 0 {
		p.AlternativePaths = nil
	}
	return &p, nil
}

func (r *puzzleRepository) Get(ctx context.Context, id string) (*models.Puzzle, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzle_repo")
	log.Debug("getting puzzle: id=%s", id)

	query, args, err := sqlBuilder.Select(puzzleColumns...).From("puzzles").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	p, err := scanPuzzle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("puzzle not found: id=%s", id)
		} else {
			log.Error("failed to get puzzle: %v", err)
		}
		return nil, err
	}
	return p, nil
}

func applyPuzzleFilter(q squirrel.SelectBuilder, filter models.PuzzleFilter) squirrel.SelectBuilder {
	if filter.Theme != "" {
		q = q.Where(squirrel.Eq{"theme": filter.Theme})
	}
	if filter.Difficulty != "" {
		q = q.Where(squirrel.Eq{"difficulty": string(filter.Difficulty)})
	}
	if filter.MinRating > 0 {
		q = q.Where(squirrel.GtOrEq{"rating": filter.MinRating})
	}
	if filter.MaxRating > 0 {
		q = q.Where(squirrel.LtOrEq{"rating": filter.MaxRating})
	}
	if len(filter.ExcludeIDs) > 0 {
		q = q.Where(squirrel.NotEq{"id": filter.ExcludeIDs})
	}
	return q
}

func (r *puzzleRepository) List(ctx context.Context, filter models.PuzzleFilter) ([]*models.Puzzle, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzle_repo")
	log.Debug("listing puzzles with filter: theme=%s, difficulty=%s, rating=[%d,%d], excluded=%d",
		filter.Theme, filter.Difficulty, filter.MinRating, filter.MaxRating, len(filter.ExcludeIDs))

	q := applyPuzzleFilter(sqlBuilder.Select(puzzleColumns...).From("puzzles"), filter).
		OrderBy("rating ASC", "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list puzzles: %v", err)
		return nil, err
	}
	defer rows.Close()

	var puzzles []*models.Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			log.Error("failed to scan puzzle row: %v", err)
			return nil, err
		}
		puzzles = append(puzzles, p)
	}
	log.Debug("found %d puzzles", len(puzzles))
	return puzzles, rows.Err()
}

func (r *puzzleRepository) Count(ctx context.Context, filter models.PuzzleFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzle_repo")

	query, args, err := applyPuzzleFilter(sqlBuilder.Select("COUNT(*)").From("puzzles"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count puzzles: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *puzzleRepository) UpsertBatch(ctx context.Context, puzzles []*models.Puzzle) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzle_repo")
	log.Debug("upserting %d puzzles", len(puzzles))

	if len(puzzles) == 0 {
		return 0, nil
	}

	written := 0
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO puzzles (id, fen, moves, orientation, theme, difficulty, rating, expected_time, category, description, alternatives)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    fen = excluded.fen,
    moves = excluded.moves,
    orientation = excluded.orientation,
    theme = excluded.theme,
    difficulty = excluded.difficulty,
    rating = excluded.rating,
    expected_time = excluded.expected_time,
    category = excluded.category,
    description = excluded.description,
    alternatives = excluded.alternatives,
    updated_at = CURRENT_TIMESTAMP
`)
		if err != nil {
			log.Error("failed to prepare puzzle upsert: %v", err)
			return err
		}
		defer stmt.Close()

		for _, p := range puzzles {
			moves, err := json.Marshal(p.SolutionMoves)
			if err != nil {
				return err
			}
			alts := p.AlternativePaths
			if alts == nil {
				alts = []models.AlternativePath{}
			}
			alternatives, err := json.Marshal(alts)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.StartingPosition, string(moves), string(p.Orientation),
				p.Theme, string(p.Difficulty), p.RatingOrDefault(), p.ExpectedTimeOrDefault(), p.CategoryOrDefault(),
				p.Description, string(alternatives)); err != nil {
				log.Error("failed to upsert puzzle id=%s: %v", p.ID, err)
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug("upserted %d puzzles", written)
	return written, nil
}

func (r *puzzleRepository) Themes(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("puzzle_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT theme FROM puzzles WHERE theme != '' ORDER BY theme`)
	if err != nil {
		log.Error("failed to list themes: %v", err)
		return nil, err
	}
	defer rows.Close()

	themes := []string{}
	for rows.Next() {
		var theme string
		if err := rows.Scan(&theme); err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}
	return themes, rows.Err()
}
