// Package worker drains queued score write-backs into the CRM.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/leadscore/internal/adapters/mq/queue"
	"github.com/okian/leadscore/pkg/logger"
	"github.com/okian/leadscore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU(); write-backs are IO-bound
	poolShutdownTimeout     = 30 * time.Second
)

// Job aliases the queue's payload type.
type Job = queue.Job

// Updater writes one score into the CRM. Implemented by the Pipedrive
// client; mocked in tests.
type Updater interface {
	UpdateLeadScore(ctx context.Context, dealID int, probability float64) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes write-back jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing write-back jobs.
type InMemoryWorker struct {
	queue   Queue
	updater Updater
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process performs one write-back. Failures are logged and counted, never
// retried, and never affect the webhook response that queued the job.
func (w *InMemoryWorker) process(ctx context.Context, job Job) {
	start := time.Now()

	metrics.RecordWriteback()
	err := w.updater.UpdateLeadScore(ctx, job.DealID, job.Probability)

	latency := float64(time.Since(start).Milliseconds())
	metrics.RecordWorkerProcessingLatency(latency)
	metrics.RecordWritebackLatency(latency)

	if err != nil {
		metrics.RecordWritebackError()
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "score write-back failed",
			logger.Int("dealID", job.DealID),
			logger.String("deliveryID", job.DeliveryID),
			logger.Error(err),
		)
		return
	}

	w.logger.Debug(ctx, "score written back",
		logger.Int("dealID", job.DealID),
		logger.Float64("probability", job.Probability),
		logger.String("deliveryID", job.DeliveryID),
	)
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*InMemoryWorker

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool.
func NewPool(workerCount int, queue Queue, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "write-back workers started", logger.Int("count", len(p.workers)))
}

// Stop gracefully shuts down all workers.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown failed", logger.Error(err))
		}
	}
	metrics.UpdateWorkerCount(0)
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
