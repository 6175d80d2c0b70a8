package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesstactics/internal/models"
	"github.com/vytor/chesstactics/internal/testutil/mocks"
	"github.com/vytor/chesstactics/internal/worker"
)

type countingJob struct {
	n   *atomic.Int32
	err error
}

func (j countingJob) Name() string { return "count" }

func (j countingJob) Run(context.Context) error {
	j.n.Add(1)
	return j.err
}

func TestPool_StopDrainsQueuedJobs(t *testing.T) {
	var n atomic.Int32
	p := worker.NewPool(2, 16)
	p.Start(context.Background())

	for i := 0; i < 10; i++ {
		err := error(nil)
		if i%2 == 0 {
			err = errors.New("boom")
		}
		require.True(t, p.Submit(countingJob{n: &n, err: err}))
	}
	p.Stop()

	assert.Equal(t, int32(10), n.Load())
	assert.False(t, p.Submit(countingJob{n: &n}))
	assert.Equal(t, int32(10), n.Load())
	p.Stop()
}

func TestPool_JobsSurviveContextCancel(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	p := worker.NewPool(1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	block := make(chan struct{})
	p.Start(ctx)
	p.Submit(blockingJob{started: &wg, release: block})
	wg.Wait()
	p.Submit(countingJob{n: &n})
	cancel()
	close(block)
	p.Stop()

	assert.Equal(t, int32(1), n.Load())
}

type blockingJob struct {
	started *sync.WaitGroup
	release chan struct{}
}

func (j blockingJob) Name() string { return "block" }

func (j blockingJob) Run(context.Context) error {
	j.started.Done()
	<-j.release
	return nil
}

type keyedJob struct {
	key   string
	seq   int
	delay time.Duration
	mu    *sync.Mutex
	order *[]int
}

func (j keyedJob) Name() string { return "keyed" }
func (j keyedJob) Key() string  { return j.key }

func (j keyedJob) Run(context.Context) error {
	time.Sleep(j.delay)
	j.mu.Lock()
	defer j.mu.Unlock()
	*j.order = append(*j.order, j.seq)
	return nil
}

func TestPool_KeyedJobsRunInSubmissionOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	p := worker.NewPool(4, 16)
	p.Start(context.Background())

	for i := 0; i < 8; i++ {
		var delay time.Duration
		if i == 0 {
			delay = 30 * time.Millisecond
		}
		require.True(t, p.Submit(keyedJob{key: "u1", seq: i, delay: delay, mu: &mu, order: &order}))
	}
	p.Stop()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
}

func TestResetProgressJob(t *testing.T) {
	st := new(mocks.MockProgressStore)
	repo := new(mocks.MockAttemptRepository)
	st.On("Delete", mock.Anything, "u1").Return(nil).Once()
	repo.On("DeleteForUser", mock.Anything, "u1").Return(errors.New("locked")).Once()
	done := make(chan error, 1)

	err := (&worker.ResetProgressJob{Store: st, Attempts: repo, UserID: "u1", Done: done}).Run(context.Background())

	assert.ErrorContains(t, err, "locked")
	assert.ErrorContains(t, <-done, "locked")
	st.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSaveProgressJob(t *testing.T) {
	st := new(mocks.MockProgressStore)
	st.On("Save", mock.Anything, "u1", []byte(`{}`)).Return(nil).Once()
	st.On("Save", mock.Anything, "u2", []byte(`{}`)).Return(errors.New("redis down")).Once()

	require.NoError(t, (&worker.SaveProgressJob{Store: st, UserID: "u1", Data: []byte(`{}`)}).Run(context.Background()))
	err := (&worker.SaveProgressJob{Store: st, UserID: "u2", Data: []byte(`{}`)}).Run(context.Background())
	assert.ErrorContains(t, err, "redis down")
	st.AssertExpectations(t)
}

func TestRecordAttemptJob(t *testing.T) {
	repo := new(mocks.MockAttemptRepository)
	attempt := models.PuzzleAttempt{Key: "k1", UserID: "u1", PuzzleID: "fork-001", Result: models.AttemptSolved}
	repo.On("Insert", mock.Anything, attempt).Return(int64(7), nil).Once()
	repo.On("Insert", mock.Anything, attempt).Return(int64(0), nil).Once()

	job := &worker.RecordAttemptJob{Attempts: repo, Attempt: attempt}
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	repo.AssertExpectations(t)
}
