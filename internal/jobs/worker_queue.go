package jobs

import (
	"context"

	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/repository"
	"github.com/vytor/chesstactics/internal/store"
	"github.com/vytor/chesstactics/internal/worker"
)

// Submitter accepts jobs for background execution. *worker.Pool satisfies it.
type Submitter interface {
	Submit(job worker.Job) bool
}

// WorkerQueue implements JobQueue on top of a worker pool
type WorkerQueue struct {
	pool     Submitter
	attempts repository.AttemptRepository
	store    store.ProgressStore
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool Submitter, attempts repository.AttemptRepository, progress store.ProgressStore) JobQueue {
	return &WorkerQueue{
		pool:     pool,
		attempts: attempts,
		store:    progress,
	}
}

func (q *WorkerQueue) EnqueueAttempt(attempt models.PuzzleAttempt) error {
	if !q.pool.Submit(&worker.RecordAttemptJob{Attempts: q.attempts, Attempt: attempt}) {
		return ErrQueueClosed
	}
	return nil
}

func (q *WorkerQueue) EnqueueProgressSave(userID string, data []byte) error {
	if !q.pool.Submit(&worker.SaveProgressJob{Store: q.store, UserID: userID, Data: data}) {
		return ErrQueueClosed
	}
	return nil
}

func (q *WorkerQueue) ResetProgress(ctx context.Context, userID string) error {
	done := make(chan error, 1)
	job := &worker.ResetProgressJob{Store: q.store, Attempts: q.attempts, UserID: userID, Done: done}
	if !q.pool.Submit(job) {
		return ErrQueueClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
