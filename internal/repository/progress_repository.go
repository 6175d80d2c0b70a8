package repository

import "context"

// ProgressRepository stores serialized user progress. Get returns
// sql.ErrNoRows when the user has none.
type ProgressRepository interface {
	Get(ctx context.Context, userID string) ([]byte, error)
	Upsert(ctx context.Context, userID string, data []byte) error
	Delete(ctx context.Context, userID string) error
}
