package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/materializer"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/metrics"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// Config holds the configuration for the persistence consumer
type Config struct {
	ConsumerName  string
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
	MaxInFlight   int
}

// Consumer defines the interface for the persistence writer
type Consumer interface {
	// Run consumes envelopes until the context is cancelled
	Run(ctx context.Context) error
	// HandleMessage processes a single broker message and settles it
	HandleMessage(ctx context.Context, msg adapter.Message)
	// Close closes the broker connection
	Close()
}

type consumer struct {
	nc           adapter.NatsConn
	js           adapter.JetStream
	store        store.Store
	materializer materializer.Materializer
	publisher    messaging.Publisher
	json         adapter.JSON
	config       Config
}

// NewConsumer creates a new persistence consumer
func NewConsumer(
	cfg Config,
	nc adapter.NatsConn,
	js adapter.JetStream,
	st store.Store,
	mat materializer.Materializer,
	publisher messaging.Publisher,
	jsonAdapter adapter.JSON,
) Consumer {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}

	return &consumer{
		nc:           nc,
		js:           js,
		store:        st,
		materializer: mat,
		publisher:    publisher,
		json:         jsonAdapter,
		config:       cfg,
	}
}

// Run starts consuming envelopes from the primary subject
func (c *consumer) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting consumer",
		zap.String("stream", domain.STREAM_CHAIN_EVENTS),
		zap.String("consumer", c.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxDeliver,
		MaxAckPending: c.config.MaxAckPending,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: domain.SUBJECT_CHAIN_EVENTS + ".>",
	}

	jsConsumer, err := c.js.CreateOrUpdateConsumer(ctx, domain.STREAM_CHAIN_EVENTS, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := jsConsumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", consumerInfo.Name),
		zap.Uint64("pending", consumerInfo.NumPending))

	// bounded in-flight: the consume callback blocks while every slot is taken
	slots := make(chan struct{}, c.config.MaxInFlight)
	var wg sync.WaitGroup

	cc, err := jsConsumer.Consume(func(msg adapter.Message) {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-slots
				wg.Done()
			}()
			c.HandleMessage(ctx, msg)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	logger.InfoCtx(ctx, "Started consuming messages")

	<-ctx.Done()
	logger.Info("Shutting down consumer")
	cc.Stop()
	wg.Wait()

	return ctx.Err()
}

// HandleMessage processes a single broker message
func (c *consumer) HandleMessage(ctx context.Context, msg adapter.Message) {
	delivered := uint64(1)
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		delivered = metadata.NumDelivered
	}

	var env domain.Envelope
	if err := c.json.Unmarshal(msg.Data(), &env); err != nil {
		c.reject(ctx, msg, "", domain.NewFormatError("envelope", "is not valid JSON"))
		return
	}
	if err := env.Validate(); err != nil {
		c.reject(ctx, msg, env.NetworkID, err)
		return
	}

	if err := c.persist(ctx, &env); err != nil {
		if domain.IsFormatError(err) {
			c.reject(ctx, msg, env.NetworkID, err)
			return
		}

		if c.config.MaxDeliver > 0 && delivered >= uint64(c.config.MaxDeliver) {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Delivery attempts exhausted, dead-lettering"),
				zap.Uint64("deliveryCount", delivered),
				logger.Subject(msg.Subject()))
			c.reject(ctx, msg, env.NetworkID, fmt.Errorf("delivery attempts exhausted: %w", err))
			return
		}

		logger.WarnCtx(ctx, "Failed to persist envelope, requesting redelivery",
			zap.Error(err),
			zap.Uint64("deliveryCount", delivered),
			logger.Subject(msg.Subject()))
		c.nak(msg)
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
		return
	}
	metrics.MessagesConsumed.WithLabelValues(metrics.OutcomeAck).Inc()
}

// persist writes the entity, event type and event of an envelope, then materializes notifications
func (c *consumer) persist(ctx context.Context, env *domain.Envelope) error {
	kind := env.EventKind()

	eventType, created, err := c.store.EnsureEventType(ctx, env.NetworkID, kind)
	if err != nil {
		return fmt.Errorf("failed to ensure event type: %w", err)
	}
	if created {
		c.publishEventType(ctx, eventType)
	}

	entityID := env.EntityID
	if entityID == nil && env.Entity != nil && env.Entity.TypeID != "" {
		entity, err := c.store.FindOrCreateEntity(ctx, env.NetworkID, env.Entity.Type, env.Entity.TypeID)
		if err != nil {
			return fmt.Errorf("failed to resolve entity: %w", err)
		}
		entityID = &entity.ID
	}

	hash, err := env.EventDataHash()
	if err != nil {
		return domain.NewFormatError("event_data", err.Error())
	}

	result, err := c.store.UpsertEvent(ctx, store.UpsertEventInput{
		EventTypeID:   eventType.ID,
		BlockNumber:   env.Block(),
		EventData:     env.EventData,
		EventDataHash: hash,
		EntityID:      entityID,
	})
	if err != nil {
		return err
	}

	outcome := metrics.OutcomeDuplicate
	if result.Inserted {
		outcome = metrics.OutcomeInserted
	}
	metrics.EventsPersisted.WithLabelValues(env.NetworkID.String(), outcome).Inc()

	logger.DebugCtx(ctx, "Event persisted",
		logger.EventID(result.ID),
		logger.EventTypeID(eventType.ID),
		logger.Block(env.Block()),
		zap.Bool("inserted", result.Inserted))

	notification, err := c.materializer.Materialize(ctx, materializer.PersistedEvent{
		ID:          result.ID,
		EventTypeID: eventType.ID,
		Network:     env.NetworkID,
		Kind:        kind,
		BlockNumber: env.Block(),
		EventData:   env.EventData,
		EntityID:    result.EntityID,
	})
	if err != nil {
		return err
	}

	// the message is redelivered until the push is out; repeats share a broker msg id
	if notification != nil {
		if err := c.publisher.PublishNotification(ctx, notification); err != nil {
			return err
		}
	}

	return nil
}

// publishEventType publishes a new event type descriptor and records the outcome in its queued counter
func (c *consumer) publishEventType(ctx context.Context, eventType *schema.EventType) {
	if err := c.publisher.PublishEventType(ctx, eventType.Descriptor()); err != nil {
		queued, incErr := c.store.IncrementEventTypeQueued(ctx, eventType.ID)
		if incErr != nil {
			logger.ErrorCtx(ctx, incErr, zap.String("message", "Failed to increment event type queued"), logger.EventTypeID(eventType.ID))
			return
		}
		logger.WarnCtx(ctx, "Failed to publish event type, left for republish",
			zap.Error(err),
			logger.EventTypeID(eventType.ID),
			zap.Int("queued", queued))
		return
	}

	if err := c.store.MarkEventTypeDelivered(ctx, eventType.ID); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to mark event type delivered"), logger.EventTypeID(eventType.ID))
	}
}

// reject dead-letters a message and terminates it.
// When the dead-letter publish fails the message is NAKed instead so it is not lost
func (c *consumer) reject(ctx context.Context, msg adapter.Message, network domain.Network, reason error) {
	logger.WarnCtx(ctx, "Rejecting message", zap.Error(reason), logger.Subject(msg.Subject()))

	if err := c.publisher.PublishDeadLetter(ctx, network, msg.Data(), reason.Error()); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to dead-letter message"))
		c.nak(msg)
		return
	}

	if err := msg.Term(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
		return
	}
	metrics.MessagesConsumed.WithLabelValues(metrics.OutcomeTerm).Inc()
}

func (c *consumer) nak(msg adapter.Message) {
	if err := msg.Nak(); err != nil {
		logger.Error(err, zap.String("message", "Failed to NAK message"))
		return
	}
	metrics.MessagesConsumed.WithLabelValues(metrics.OutcomeNak).Inc()
}

// Close closes the broker connection
func (c *consumer) Close() {
	if c.nc == nil {
		return
	}

	c.nc.Close()
}
