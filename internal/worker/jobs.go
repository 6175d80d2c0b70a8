package worker

import (
	"context"
	"fmt"

	"github.com/vytor/chesstactics/internal/logger"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/repository"
	"github.com/vytor/chesstactics/internal/store"
)

// SaveProgressJob writes a user's progress blob to the store.
type SaveProgressJob struct {
	Store  store.ProgressStore
	UserID string
	Data   []byte
}

func (j *SaveProgressJob) Name() string { return "save_progress" }
func (j *SaveProgressJob) Key() string  { return j.UserID }

func (j *SaveProgressJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("user", j.UserID)
	if err := j.Store.Save(ctx, j.UserID, j.Data); err != nil {
		return fmt.Errorf("save progress for %s: %w", j.UserID, err)
	}
	log.Debug("saved %d bytes of progress", len(j.Data))
	return nil
}

// RecordAttemptJob stores a finished attempt. Retries with the same key
// are no-ops.
type RecordAttemptJob struct {
	Attempts repository.AttemptRepository
	Attempt  models.PuzzleAttempt
}

func (j *RecordAttemptJob) Name() string { return "record_attempt" }
func (j *RecordAttemptJob) Key() string  { return j.Attempt.UserID }

func (j *RecordAttemptJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user":   j.Attempt.UserID,
		"puzzle": j.Attempt.PuzzleID,
	})
	id, err := j.Attempts.Insert(ctx, j.Attempt)
	if err != nil {
		return fmt.Errorf("record attempt %s: %w", j.Attempt.Key, err)
	}
	if id == 0 {
		log.Debug("attempt %s already recorded", j.Attempt.Key)
		return nil
	}
	log.Debug("recorded attempt %d (%s)", id, j.Attempt.Result)
	return nil
}

// ResetProgressJob deletes a user's stored progress and attempt history.
// It shares the user's key, so writes queued before it land first and
// cannot resurrect the old progress. The outcome is also sent on Done
// when it is set.
type ResetProgressJob struct {
	Store    store.ProgressStore
	Attempts repository.AttemptRepository
	UserID   string
	Done     chan<- error
}

func (j *ResetProgressJob) Name() string { return "reset_progress" }
func (j *ResetProgressJob) Key() string  { return j.UserID }

func (j *ResetProgressJob) Run(ctx context.Context) error {
	err := j.reset(ctx)
	if j.Done != nil {
		j.Done <- err
	}
	return err
}

func (j *ResetProgressJob) reset(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("user", j.UserID)
	if err := j.Store.Delete(ctx, j.UserID); err != nil {
		return fmt.Errorf("delete progress for %s: %w", j.UserID, err)
	}
	if err := j.Attempts.DeleteForUser(ctx, j.UserID); err != nil {
		return fmt.Errorf("delete attempts for %s: %w", j.UserID, err)
	}
	log.Debug("progress and attempt history deleted")
	return nil
}
