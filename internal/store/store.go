// Package store persists serialized user progress.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when a user has no stored progress.
var ErrNotFound = errors.New("progress not found")

// ProgressStore keeps one opaque blob per user.
type ProgressStore interface {
	Load(ctx context.Context, userID string) ([]byte, error)
	Save(ctx context.Context, userID string, blob []byte) error
	Delete(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}
