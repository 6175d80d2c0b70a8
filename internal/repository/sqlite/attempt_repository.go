package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/repository"
)

type attemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository creates a new AttemptRepository implementation
func NewAttemptRepository(db *sql.DB) repository.AttemptRepository {
	return &attemptRepository{db: db}
}

// Insert stores an attempt. A second insert with the same key is ignored
// and returns 0.
func (r *attemptRepository) Insert(ctx context.Context, a models.PuzzleAttempt) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("inserting attempt: user=%s, puzzle=%s, result=%s", a.UserID, a.PuzzleID, a.Result)

	moves, err := json.Marshal(a.Moves)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO puzzle_attempts (attempt_key, user_id, puzzle_id, theme, result, correct, moves, time_seconds, hints_used, rating_change)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(attempt_key) DO NOTHING
`, a.Key, a.UserID, a.PuzzleID, a.Theme, a.Result, a.Correct, string(moves), a.TimeSeconds, a.HintsUsed, a.RatingChange)
	if err != nil {
		log.Error("failed to insert attempt: %v", err)
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Debug("attempt %s already stored", a.Key)
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Debug("attempt inserted: id=%d", id)
	return id, nil
}

func applyAttemptFilter(q squirrel.SelectBuilder, filter models.AttemptFilter) squirrel.SelectBuilder {
	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Theme != "" {
		q = q.Where(squirrel.Eq{"theme": filter.Theme})
	}
	if filter.Result != "" {
		q = q.Where(squirrel.Eq{"result": filter.Result})
	}
	return q
}

func (r *attemptRepository) List(ctx context.Context, filter models.AttemptFilter) ([]models.PuzzleAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("listing attempts with filter: user=%s, theme=%s, result=%s", filter.UserID, filter.Theme, filter.Result)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query, args, err := applyAttemptFilter(sqlBuilder.Select(
		"id", "attempt_key", "user_id", "puzzle_id", "theme", "result", "correct", "moves",
		"time_seconds", "hints_used", "rating_change", "created_at",
	).From("puzzle_attempts"), filter).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).Offset(uint64(offset)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := []models.PuzzleAttempt{}
	for rows.Next() {
		var (
			a     models.PuzzleAttempt
			moves string
		)
		if err := rows.Scan(&a.ID, &a.Key, &a.UserID, &a.PuzzleID, &a.Theme, &a.Result, &a.Correct, &moves,
			&a.TimeSeconds, &a.HintsUsed, &a.RatingChange, &a.CreatedAt); err != nil {
			log.Error("failed to scan attempt row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(moves), &a.Moves); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	log.Debug("found %d attempts", len(attempts))
	return attempts, rows.Err()
}

func (r *attemptRepository) Count(ctx context.Context, filter models.AttemptFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	query, args, err := applyAttemptFilter(sqlBuilder.Select("COUNT(*)").From("puzzle_attempts"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Error("failed to count attempts: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *attemptRepository) SolvedPuzzleIDs(ctx context.Context, userID string) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	query, args, err := sqlBuilder.Select("DISTINCT puzzle_id").From("puzzle_attempts").
		Where(squirrel.Eq{"user_id": userID, "result": models.AttemptSolved}).
		OrderBy("puzzle_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list solved puzzles: %v", err)
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *attemptRepository) ThemeSummary(ctx context.Context, userID string) ([]models.AttemptSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")

	query, args, err := sqlBuilder.Select(
		"theme",
		"COUNT(*)",
		"SUM(CASE WHEN result = 'solved' THEN 1 ELSE 0 END)",
		"AVG(time_seconds)",
	).From("puzzle_attempts").
		Where(squirrel.Eq{"user_id": userID}).
		GroupBy("theme").
		OrderBy("COUNT(*) DESC", "theme ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to summarize attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.AttemptSummary{}
	for rows.Next() {
		var s models.AttemptSummary
		if err := rows.Scan(&s.Theme, &s.Attempts, &s.Solved, &s.AvgTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *attemptRepository) DeleteForUser(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx).WithPrefix("attempt_repo")
	log.Debug("deleting attempts: user=%s", userID)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM puzzle_attempts WHERE user_id = ?`, userID); err != nil {
		log.Error("failed to delete attempts: %v", err)
		return err
	}
	return nil
}
