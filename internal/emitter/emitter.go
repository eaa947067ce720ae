package emitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/metrics"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
	"github.com/feral-file/ff-chain-events/internal/store"
)

// Config holds the configuration for the event emitter
type Config struct {
	Network         domain.Network
	StartBlock      int64         // Configured start block, 0 means resume
	CursorSaveFreq  int64         // Save cursor every N blocks
	CursorSaveDelay time.Duration // Or save cursor every N seconds
	RestartDelay    time.Duration // Wait before re-subscribing after a failure
	MaxErrors       int           // Consecutive failures before giving up, 0 means never
	HealthyPeriod   time.Duration // A subscription running this long resets the error budget

	// Addresses registered on an AddressWatcher subscriber before subscribing
	WatchedAddresses []string
	WatchRetryDelay  time.Duration
	WatchMaxRetries  uint64
}

// Emitter defines the interface for the event emitter
//
//go:generate mockgen -source=emitter.go -destination=../mocks/emitter.go -package=mocks -mock_names=Emitter=MockEmitter
type Emitter interface {
	// Run starts the event emitter
	Run(ctx context.Context) error
	// Close closes the emitter and cleans up resources
	Close()
}

// emitter subscribes to one network, normalizes raw payloads and relays them to the broker
type emitter struct {
	subscriber messaging.Subscriber
	normalizer normalizer.Normalizer
	publisher  messaging.Publisher
	store      store.Store
	config     Config
	clock      adapter.Clock

	lastBlock int64 // highest block seen, -1 before the first event
}

// NewEmitter creates a new event emitter
func NewEmitter(
	sub messaging.Subscriber,
	norm normalizer.Normalizer,
	pub messaging.Publisher,
	st store.Store,
	cfg Config,
	clock adapter.Clock,
) Emitter {
	return &emitter{
		subscriber: sub,
		normalizer: norm,
		publisher:  pub,
		store:      st,
		config:     cfg,
		clock:      clock,
		lastBlock:  -1,
	}
}

// Run resolves the start block then keeps the subscription alive until the context
// is canceled or the error budget is exhausted
func (e *emitter) Run(ctx context.Context) error {
	network := e.config.Network.String()

	startBlock, err := e.resolveStartBlock(ctx)
	if err != nil {
		return err
	}

	if watcher, ok := e.subscriber.(messaging.AddressWatcher); ok {
		for _, address := range e.config.WatchedAddresses {
			if err := watcher.AddWatchedAddress(ctx, address, e.config.WatchRetryDelay, e.config.WatchMaxRetries); err != nil {
				logger.WarnCtx(ctx, "Failed to watch configured address",
					zap.Error(err),
					logger.Network(network),
					zap.String("address", address))
			}
		}
	}

	consecutiveErrors := 0
	fromBlock := startBlock
	for {
		attemptStart := e.clock.Now()
		err := e.stream(ctx, fromBlock)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			logger.InfoCtx(ctx, "Subscription ended", logger.Network(network))
			return nil
		}

		if e.config.HealthyPeriod > 0 && e.clock.Since(attemptStart) >= e.config.HealthyPeriod {
			consecutiveErrors = 0
		}
		consecutiveErrors++
		metrics.SubscriberRestarts.WithLabelValues(network).Inc()

		if e.config.MaxErrors > 0 && consecutiveErrors >= e.config.MaxErrors {
			return fmt.Errorf("giving up on %s after %d consecutive failures: %w", network, consecutiveErrors, err)
		}

		if e.lastBlock >= fromBlock {
			fromBlock = e.lastBlock
		}
		logger.WarnCtx(ctx, "Subscription failed, restarting",
			zap.Error(err),
			logger.Network(network),
			zap.Int("consecutive_errors", consecutiveErrors),
			zap.Duration("restart_delay", e.config.RestartDelay),
			logger.Block(fromBlock))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(e.config.RestartDelay):
		}
	}
}

// resolveStartBlock picks the configured block, else the stored cursor + 1,
// else the highest persisted event block + 1, else the latest head
func (e *emitter) resolveStartBlock(ctx context.Context) (int64, error) {
	network := e.config.Network.String()

	if e.config.StartBlock > 0 {
		logger.InfoCtx(ctx, "Starting from configured block", logger.Network(network), logger.Block(e.config.StartBlock))
		return e.config.StartBlock, nil
	}

	cursor, err := e.store.GetBlockCursor(ctx, e.config.Network)
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}
	if cursor > 0 {
		logger.InfoCtx(ctx, "Resuming from last processed block", logger.Network(network), logger.Block(cursor+1))
		return cursor + 1, nil
	}

	maxBlock, found, err := e.store.GetMaxBlockNumber(ctx, e.config.Network)
	if err != nil {
		return 0, fmt.Errorf("failed to get max persisted block: %w", err)
	}
	if found {
		logger.InfoCtx(ctx, "Resuming after highest persisted block", logger.Network(network), logger.Block(maxBlock+1))
		return maxBlock + 1, nil
	}

	latest, err := e.subscriber.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	logger.InfoCtx(ctx, "Starting from latest block", logger.Network(network), logger.Block(latest))
	return latest, nil
}

// stream runs one subscription until it returns
func (e *emitter) stream(ctx context.Context, fromBlock int64) error {
	network := e.config.Network.String()
	logger.InfoCtx(ctx, "Starting event subscription", logger.Network(network), logger.Block(fromBlock))

	lastSavedBlock := int64(0)
	lastSaveTime := e.clock.Now()

	// a block is complete once an event from a later block arrives,
	// so the cursor never skips events still pending in the current block
	saveCursor := func(completed int64) {
		if completed <= lastSavedBlock {
			return
		}
		if err := e.store.SetBlockCursor(ctx, e.config.Network, completed); err != nil {
			logger.WarnCtx(ctx, "Failed to save block cursor", zap.Error(err), logger.Block(completed))
			return
		}
		lastSavedBlock = completed
		lastSaveTime = e.clock.Now()
	}

	handler := func(raw domain.RawEvent) error {
		env, err := e.normalizer.Normalize(raw)
		if err != nil {
			if !domain.IsFormatError(err) {
				return fmt.Errorf("failed to normalize event: %w", err)
			}
			logger.WarnCtx(ctx, "Malformed payload, dead-lettering", zap.Error(err), logger.Network(network))
			if err := e.publisher.PublishDeadLetter(ctx, raw.Network, raw.Payload, err.Error()); err != nil {
				return fmt.Errorf("failed to dead-letter payload: %w", err)
			}
			return nil
		}

		if err := e.publisher.Publish(ctx, env); err != nil {
			if domain.IsFormatError(err) && !errors.Is(err, domain.ErrTransientBroker) {
				logger.WarnCtx(ctx, "Envelope rejected by relay", zap.Error(err), logger.Network(network))
				return nil
			}
			return fmt.Errorf("failed to publish event at block %d: %w", env.Block(), err)
		}

		block := env.Block()
		if block > e.lastBlock {
			completed := e.lastBlock
			e.lastBlock = block

			if completed > 0 && (completed-lastSavedBlock >= e.config.CursorSaveFreq ||
				e.clock.Since(lastSaveTime) >= e.config.CursorSaveDelay) {
				saveCursor(completed)
			}
		}

		return nil
	}

	return e.subscriber.Subscribe(ctx, fromBlock, handler)
}

// Close closes the emitter and cleans up resources
func (e *emitter) Close() {
	e.subscriber.Unsubscribe()
}
