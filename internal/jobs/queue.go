package jobs

import (
	"context"
	"errors"

	"github.com/vytor/chesstactics/internal/models"
)

var ErrQueueClosed = errors.New("job queue closed")

// JobQueue provides an abstraction for enqueueing background jobs. Jobs for
// one user run in the order they were enqueued.
type JobQueue interface {
	EnqueueAttempt(attempt models.PuzzleAttempt) error
	EnqueueProgressSave(userID string, data []byte) error
	// ResetProgress queues the deletion of the user's stored progress and
	// attempts behind their pending writes and waits for it to finish.
	ResetProgress(ctx context.Context, userID string) error
}
