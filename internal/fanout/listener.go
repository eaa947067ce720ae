package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
)

const DEFAULT_INACTIVE_THRESHOLD = 5 * time.Minute

// ListenerConfig holds the notification listener settings
type ListenerConfig struct {
	// InactiveThreshold is how long the broker keeps the consumer of a dead instance
	InactiveThreshold time.Duration
}

// Listener feeds the notifications published by the consumers into a namespace.
// Every instance gets its own ephemeral consumer, so each sees every notification
type Listener interface {
	Run(ctx context.Context) error
}

type listener struct {
	cfg  ListenerConfig
	js   adapter.JetStream
	ns   Namespace
	json adapter.JSON
}

// NewListener creates a notification listener
func NewListener(cfg ListenerConfig, js adapter.JetStream, ns Namespace, jsonAdapter adapter.JSON) Listener {
	if cfg.InactiveThreshold <= 0 {
		cfg.InactiveThreshold = DEFAULT_INACTIVE_THRESHOLD
	}
	return &listener{cfg: cfg, js: js, ns: ns, json: jsonAdapter}
}

func (l *listener) Run(ctx context.Context) error {
	name := "fanout-" + ulid.Make().String()

	consumer, err := l.js.CreateOrUpdateConsumer(ctx, domain.STREAM_NOTIFICATIONS, jetstream.ConsumerConfig{
		Name:              name,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckNonePolicy,
		FilterSubject:     domain.SUBJECT_NOTIFICATIONS + ".>",
		InactiveThreshold: l.cfg.InactiveThreshold,
	})
	if err != nil {
		return fmt.Errorf("failed to create notification consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg adapter.Message) {
		var notification domain.NotificationMessage
		if err := l.json.Unmarshal(msg.Data(), &notification); err != nil {
			logger.WarnCtx(ctx, "Failed to decode notification", zap.Error(err), logger.Subject(msg.Subject()))
			return
		}
		l.ns.Dispatch(&notification)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming notifications: %w", err)
	}

	logger.InfoCtx(ctx, "Listening for notifications", zap.String("consumer", name))

	<-ctx.Done()
	cc.Stop()

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.js.DeleteConsumer(cleanupCtx, domain.STREAM_NOTIFICATIONS, name); err != nil {
		logger.Warn("Failed to delete notification consumer", zap.Error(err), zap.String("consumer", name))
	}

	return ctx.Err()
}
