package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/repository"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Get(ctx context.Context, userID string) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("getting progress: user=%s", userID)

	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM user_progress WHERE user_id = ?`, userID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no progress stored: user=%s", userID)
		} else {
			log.Error("failed to get progress: %v", err)
		}
		return nil, err
	}
	return data, nil
}

func (r *progressRepository) Upsert(ctx context.Context, userID string, data []byte) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: user=%s, bytes=%d", userID, len(data))

	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_progress (user_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
`, userID, data)
	if err != nil {
		log.Error("failed to save progress: %v", err)
	}
	return err
}

func (r *progressRepository) Delete(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("deleting progress: user=%s", userID)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_progress WHERE user_id = ?`, userID); err != nil {
		log.Error("failed to delete progress: %v", err)
		return err
	}
	return nil
}
