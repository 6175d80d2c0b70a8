package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vytor/chesstactics/internal/logger"
)

type Job interface {
	Run(context.Context) error
	Name() string
}

// Keyed jobs sharing a key run on the same worker in submission order.
type Keyed interface {
	Key() string
}

// Pool runs jobs on a fixed set of goroutines, each with its own queue.
// Jobs submitted after Stop are dropped.
type Pool struct {
	queues  []chan Job
	next    atomic.Uint64
	wg      sync.WaitGroup
	workers int
	queue   int
	cancel  context.CancelFunc
	log     *logger.Logger

	mu      sync.RWMutex
	stopped bool
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	queues := make([]chan Job, workers)
	for i := range queues {
		queues[i] = make(chan Job, queueSize)
	}
	return &Pool{
		queues:  queues,
		workers: workers,
		queue:   queueSize,
		log:     log,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int, jobs <-chan Job) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for job := range jobs {
				jobLog := workerLog.WithField("job", job.Name())
				start := time.Now()

				// Jobs still drain after cancellation so queued writes are not lost.
				jobCtx := logger.NewContext(context.WithoutCancel(ctx), jobLog)

				if err := job.Run(jobCtx); err != nil {
					jobLog.Error("job failed after %v: %v", time.Since(start), err)
				} else {
					jobLog.Debug("job completed in %v", time.Since(start))
				}
			}
			workerLog.Debug("worker shutting down (queue closed)")
		}(i+1, p.queues[i])
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.log.Info("stopping worker pool")
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.log.Info("worker pool stopped")
}

// Submit enqueues job, blocking while its worker's queue is full. Keyed
// jobs go to the worker owning their key, others are spread round-robin.
// It reports false if the pool has been stopped.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		p.log.Warn("dropping job %s: pool stopped", job.Name())
		return false
	}
	p.log.Debug("submitting job: %s", job.Name())
	p.queues[p.queueFor(job)] <- job
	return true
}

func (p *Pool) queueFor(job Job) int {
	n := uint64(len(p.queues))
	if k, ok := job.(Keyed); ok && k.Key() != "" {
		return int(xxhash.Sum64String(k.Key()) % n)
	}
	return int(p.next.Add(1) % n)
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	size := 0
	for _, q := range p.queues {
		size += len(q)
	}
	return size
}
