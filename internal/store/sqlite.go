package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/chesstactics/internal/repository"
)

// SQLiteStore keeps progress in the user_progress table.
type SQLiteStore struct {
	db   *sql.DB
	repo repository.ProgressRepository
}

func NewSQLiteStore(db *sql.DB, repo repository.ProgressRepository) *SQLiteStore {
	return &SQLiteStore{db: db, repo: repo}
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.repo.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, blob []byte) error {
	return s.repo.Upsert(ctx, userID, blob)
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the database handle is owned by the caller.
func (s *SQLiteStore) Close() error { return nil }
