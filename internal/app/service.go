// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	jobqueue "github.com/okian/leadscore/internal/adapters/mq/queue"
	workerpool "github.com/okian/leadscore/internal/adapters/mq/worker"
	"github.com/okian/leadscore/internal/domain/dedupe"
	"github.com/okian/leadscore/internal/domain/feature"
	"github.com/okian/leadscore/internal/domain/schema"
	"github.com/okian/leadscore/internal/domain/scoring"
	"github.com/okian/leadscore/internal/domain/types"
	"github.com/okian/leadscore/pkg/logger"
	"github.com/okian/leadscore/pkg/metrics"
)

// Service owns the scoring pipeline and the asynchronous write-back path.
// The registry and scorer are read-only after Start, so Score runs without
// locks on the hot path.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry   *schema.Registry
	aligner    *feature.Aligner
	scorer     scoring.Scorer
	thresholds scoring.Thresholds
	deduper    dedupe.Deduper
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool
	updater    workerpool.Updater

	// Configuration
	targetPipelineID int
	queueSize        int
	workerCount      int
	dedupeSize       int

	// State
	started bool

	// Counters for /stats
	predictions      atomic.Int64
	predictionErrors atomic.Int64
	webhookScored    atomic.Int64
	webhookIgnored   atomic.Int64
	columnsDropped   atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry sets the feature-column registry.
func WithRegistry(registry *schema.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithScorer sets the trained model.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		s.scorer = scorer
	}
}

// WithThresholds sets the classification boundaries.
func WithThresholds(t scoring.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithUpdater sets the CRM client receiving write-backs.
func WithUpdater(u workerpool.Updater) Option {
	return func(s *Service) {
		s.updater = u
	}
}

// WithTargetPipeline sets the single CRM funnel in scope for scoring.
func WithTargetPipeline(id int) Option {
	return func(s *Service) {
		if id > 0 {
			s.targetPipelineID = id
		}
	}
}

// WithQueueSize bounds the write-back job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of write-back workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize bounds the webhook delivery dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New creates a Service with the provided options.
func New(opts ...Option) *Service {
	s := &Service{
		thresholds:       scoring.DefaultThresholds(),
		targetPipelineID: 1,
		queueSize:        1_024,
		dedupeSize:       50_000,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the remaining components and starts the write-back workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.registry == nil || s.registry.Len() == 0 {
		return ErrMissingRegistry
	}
	if s.scorer == nil {
		return ErrMissingScorer
	}

	aligner, err := feature.NewAligner(s.registry)
	if err != nil {
		return err
	}
	s.aligner = aligner

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)

	if s.updater != nil {
		s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.updater)
		s.workerPool.Start(ctx)
	} else {
		s.logger.Warn(ctx, "no CRM updater configured; write-backs disabled")
	}

	s.started = true
	s.logger.Info(ctx, "lead scoring service started",
		logger.Int("featureColumns", s.registry.Len()),
		logger.Int("targetPipelineID", s.targetPipelineID),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping lead scoring service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "lead scoring service stopped")
}

// Score runs the full pipeline for one record: encode, align, predict,
// classify. A record with unknown or missing categorical values never
// fails; only a broken configuration or a dimension mismatch does.
func (s *Service) Score(ctx context.Context, rec feature.Record) (types.Prediction, error) {
	start := time.Now()

	encoded := feature.Encode(rec)
	values, stats, err := s.aligner.Align(ctx, encoded)
	if err != nil {
		s.predictionErrors.Add(1)
		metrics.RecordPredictionError()
		return types.Prediction{}, err
	}

	probability, err := s.scorer.PredictProbability(ctx, values)
	if err != nil {
		s.predictionErrors.Add(1)
		metrics.RecordPredictionError()
		return types.Prediction{}, err
	}

	label := scoring.Classify(probability, s.thresholds)

	s.predictions.Add(1)
	s.columnsDropped.Add(int64(stats.Dropped))
	metrics.RecordPrediction(label)
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordColumnsDropped(stats.Dropped)
	metrics.RecordColumnsZeroFilled(stats.ZeroFilled)

	s.logger.Debug(ctx, "record scored",
		logger.Float64("probability", probability),
		logger.String("label", label),
		logger.Int("droppedColumns", stats.Dropped),
		logger.Int("zeroFilledColumns", stats.ZeroFilled),
	)

	return types.Prediction{
		Probability: probability,
		Label:       label,
		Dropped:     stats.Dropped,
		ZeroFilled:  stats.ZeroFilled,
	}, nil
}

// SeenDelivery atomically checks and records a webhook delivery ID.
// Returns true if the delivery was already processed.
func (s *Service) SeenDelivery(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// UnrecordDelivery forgets a delivery ID so a redelivery can be processed,
// used when the delivery was recorded but produced no side effect.
func (s *Service) UnrecordDelivery(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// EnqueueWriteback queues a score update for asynchronous delivery to the
// CRM. Returns false when the queue is full, closed, or write-backs are
// disabled; the caller treats that as a logged, non-fatal condition.
func (s *Service) EnqueueWriteback(ctx context.Context, dealID int, probability float64, deliveryID string) bool {
	if s.workerPool == nil || s.jobQueue == nil {
		return false
	}
	ok := s.jobQueue.Enqueue(ctx, jobqueue.Job{
		DealID:      dealID,
		Probability: probability,
		DeliveryID:  deliveryID,
	})
	if ok {
		s.webhookScored.Add(1)
	}
	return ok
}

// RecordIgnoredWebhook counts a delivery that was acknowledged but not
// scored (missing id, wrong funnel, duplicate).
func (s *Service) RecordIgnoredWebhook() {
	s.webhookIgnored.Add(1)
}

// TargetPipelineID returns the funnel in scope for webhook scoring.
func (s *Service) TargetPipelineID() int {
	return s.targetPipelineID
}

// GetStats returns service counters for the stats endpoint.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queueLen := 0
	if s.jobQueue != nil {
		queueLen = s.jobQueue.Len(context.Background())
	}
	workers := 0
	if s.workerPool != nil {
		workers = s.workerPool.Size()
	}
	var dedupeSize int64
	if s.deduper != nil {
		dedupeSize = s.deduper.Size()
	}
	columns := 0
	if s.registry != nil {
		columns = s.registry.Len()
	}

	return map[string]interface{}{
		"featureColumns":   columns,
		"predictions":      s.predictions.Load(),
		"predictionErrors": s.predictionErrors.Load(),
		"webhookScored":    s.webhookScored.Load(),
		"webhookIgnored":   s.webhookIgnored.Load(),
		"columnsDropped":   s.columnsDropped.Load(),
		"queueLength":      queueLen,
		"workerCount":      workers,
		"dedupeSize":       dedupeSize,
	}
}
