package sweeper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/metrics"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

const (
	MIN_REPUBLISH_INTERVAL = time.Minute
	REPUBLISH_LOCK_KEY     = "ff-chain-events:republish:lock"
)

// RepublishSweeperConfig holds configuration for the republish sweeper
type RepublishSweeperConfig struct {
	Interval       time.Duration // Time between runs, never below MIN_REPUBLISH_INTERVAL
	BatchSize      int           // Event types selected per run
	WorkerPoolSize int           // Concurrent publishes
	LockTTL        time.Duration // Lease duration when a Redis client is configured
}

// RepublishReport summarizes a single republish run
type RepublishReport struct {
	Selected  int
	Delivered int
	Failed    int
	Skipped   bool // another instance holds the lease
}

// RepublishSweeper re-publishes event type descriptors stuck in the retry range
//
//go:generate mockgen -source=republish.go -destination=../mocks/republish.go -package=mocks -mock_names=RepublishSweeper=MockRepublishSweeper
type RepublishSweeper interface {
	Sweeper

	// RunOnce performs a single republish pass
	RunOnce(ctx context.Context) (*RepublishReport, error)
}

type republishSweeper struct {
	config    RepublishSweeperConfig
	store     store.Store
	publisher messaging.Publisher
	redis     adapter.RedisClient
	clock     adapter.Clock

	// stopChan and stoppedCh belong to the current run, both nil when idle
	mu        sync.Mutex
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewRepublishSweeper creates a new republish sweeper.
// redisClient may be nil, in which case no lease is taken
func NewRepublishSweeper(
	config RepublishSweeperConfig,
	st store.Store,
	publisher messaging.Publisher,
	redisClient adapter.RedisClient,
	clock adapter.Clock,
) RepublishSweeper {
	if config.Interval < MIN_REPUBLISH_INTERVAL {
		config.Interval = MIN_REPUBLISH_INTERVAL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 1
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 2 * config.Interval
	}

	return &republishSweeper{
		config:    config,
		store:     st,
		publisher: publisher,
		redis:     redisClient,
		clock:     clock,
	}
}

// Name returns the sweeper's name
func (s *republishSweeper) Name() string {
	return "republish-sweeper"
}

// Start runs a republish pass on every interval until the context is canceled or Stop is called
func (s *republishSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stoppedCh != nil {
		s.mu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	stop := make(chan struct{})
	stopped := make(chan struct{})
	s.stopChan, s.stoppedCh = stop, stopped
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.stopChan, s.stoppedCh = nil, nil
		s.mu.Unlock()
		close(stopped)
	}()

	logger.InfoCtx(ctx, "Starting republish sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Bool("lease", s.redis != nil),
	)

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorCtx(ctx, err)
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Republish sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-stop:
			logger.InfoCtx(ctx, "Republish sweeper stop requested")
			return nil
		case <-s.clock.After(s.config.Interval):
		}
	}
}

// Stop gracefully stops the sweeper, waiting for the current pass to finish
func (s *republishSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, stopped := s.stopChan, s.stoppedCh
	s.stopChan = nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping republish sweeper")
	close(stop)

	select {
	case <-stopped:
		logger.InfoCtx(ctx, "Republish sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Republish sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// RunOnce selects the event types in the retry range and re-publishes their descriptors
func (s *republishSweeper) RunOnce(ctx context.Context) (*RepublishReport, error) {
	startTime := s.clock.Now()

	if s.redis != nil {
		token := ulid.Make().String()
		acquired, err := s.redis.SetNX(ctx, REPUBLISH_LOCK_KEY, token, s.config.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire republish lease: %w", err)
		}
		if !acquired {
			logger.InfoCtx(ctx, "Republish lease held by another instance, skipping run")
			return &RepublishReport{Skipped: true}, nil
		}
		defer s.releaseLease(ctx, token)
	}

	eventTypes, err := s.store.GetEventTypesForRepublish(ctx, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get event types for republish: %w", err)
	}

	report := &RepublishReport{Selected: len(eventTypes)}
	if len(eventTypes) == 0 {
		logger.DebugCtx(ctx, "No event types need republishing")
		return report, nil
	}

	var delivered, failed atomic.Int32
	pool := pond.NewPool(s.config.WorkerPoolSize, pond.WithContext(ctx))
	for _, eventType := range eventTypes {
		pool.Submit(func() {
			if s.republish(ctx, eventType) {
				delivered.Add(1)
			} else {
				failed.Add(1)
			}
		})
	}
	pool.StopAndWait()

	report.Delivered = int(delivered.Load())
	report.Failed = int(failed.Load())

	logger.InfoCtx(ctx, "Republish run completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("selected", report.Selected),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// republish publishes one descriptor and records the outcome in its queued counter
func (s *republishSweeper) republish(ctx context.Context, eventType schema.EventType) bool {
	if err := s.publisher.PublishEventType(ctx, eventType.Descriptor()); err != nil {
		metrics.RepublishAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()

		queued, incErr := s.store.IncrementEventTypeQueued(ctx, eventType.ID)
		if incErr != nil {
			logger.ErrorCtx(ctx, incErr, zap.String("message", "Failed to increment event type queued"), logger.EventTypeID(eventType.ID))
			return false
		}
		logger.WarnCtx(ctx, "Failed to republish event type",
			zap.Error(err),
			logger.EventTypeID(eventType.ID),
			zap.Int("queued", queued))
		return false
	}

	metrics.RepublishAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	if err := s.store.MarkEventTypeDelivered(ctx, eventType.ID); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to mark event type delivered"), logger.EventTypeID(eventType.ID))
		return false
	}

	return true
}

func (s *republishSweeper) releaseLease(ctx context.Context, token string) {
	released, err := s.redis.CompareAndDelete(context.WithoutCancel(ctx), REPUBLISH_LOCK_KEY, token)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to release republish lease", zap.Error(err))
		return
	}
	if !released {
		logger.WarnCtx(ctx, "Republish lease expired before release")
	}
}
