package jetstream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/metrics"
)

// HEADER_NETWORK carries the source network of a dead-lettered payload
const HEADER_NETWORK = "Ff-Network"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ConnectionName  string
	StreamMaxAge    time.Duration
	DuplicateWindow time.Duration
}

type publisher struct {
	nc   adapter.NatsConn
	js   adapter.JetStream
	cfg  Config
	json adapter.JSON
}

// ConnectionOptions returns the NATS options shared by every component that connects to the broker
func ConnectionOptions(cfg Config) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}
}

// NewPublisher connects to NATS and creates the message relay
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	nc, js, err := natsJS.Connect(cfg.URL, ConnectionOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return NewPublisherWithJetStream(cfg, nc, js, jsonAdapter), nil
}

// NewPublisherWithJetStream creates the message relay on an existing connection
func NewPublisherWithJetStream(cfg Config, nc adapter.NatsConn, js adapter.JetStream, jsonAdapter adapter.JSON) messaging.Publisher {
	return &publisher{
		nc:   nc,
		js:   js,
		cfg:  cfg,
		json: jsonAdapter,
	}
}

// EventSubject returns the primary subject of an envelope: chainevents.<network>.<kind>
func EventSubject(env *domain.Envelope) string {
	return fmt.Sprintf("%s.%s.%s",
		domain.SUBJECT_CHAIN_EVENTS,
		env.NetworkID.SubjectToken(),
		domain.SubjectToken(env.EventKind()))
}

// DeadLetterSubject returns the dead-letter subject of a network
func DeadLetterSubject(network domain.Network) string {
	return fmt.Sprintf("%s.%s", domain.SUBJECT_DEAD_LETTER, network.SubjectToken())
}

// EventTypeSubject returns the subject event type descriptors are published on
func EventTypeSubject(descriptor domain.EventTypeDescriptor) string {
	return fmt.Sprintf("%s.%s.%s",
		domain.SUBJECT_EVENT_TYPES,
		descriptor.Network.SubjectToken(),
		domain.SubjectToken(descriptor.Kind))
}

// NotificationSubject returns the subject notifications of an event type are published on
func NotificationSubject(eventTypeID uint64) string {
	return fmt.Sprintf("%s.%d", domain.SUBJECT_NOTIFICATIONS, eventTypeID)
}

// Publish validates the envelope and publishes it on its primary subject.
// The format check runs first: an invalid envelope never reaches the primary subject
func (p *publisher) Publish(ctx context.Context, env *domain.Envelope) error {
	if err := env.Validate(); err != nil {
		var network domain.Network
		if env != nil {
			network = env.NetworkID
		}

		data, mErr := p.json.Marshal(env)
		if mErr != nil {
			data = []byte(fmt.Sprintf("%+v", env))
		}

		logger.WarnCtx(ctx, "Dead-lettering invalid envelope", zap.Error(err), logger.Network(network.String()))
		if dlErr := p.PublishDeadLetter(ctx, network, data, err.Error()); dlErr != nil {
			return errors.Join(err, dlErr)
		}

		return err
	}

	data, err := p.json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	msgID, err := env.DedupKey()
	if err != nil {
		return fmt.Errorf("failed to compute dedup key: %w", err)
	}

	subject := EventSubject(env)
	logger.DebugCtx(ctx, "Publishing envelope", logger.Subject(subject), logger.Block(env.Block()))

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID)); err != nil {
		metrics.PublishFailures.WithLabelValues(domain.SUBJECT_CHAIN_EVENTS).Inc()
		return fmt.Errorf("failed to publish envelope: %w: %w", domain.ErrTransientBroker, err)
	}

	metrics.EnvelopesPublished.WithLabelValues(env.NetworkID.String(), env.EventKind()).Inc()
	return nil
}

// PublishDeadLetter publishes a payload on the dead-letter subject of its network
// with the rejection reason in a header
func (p *publisher) PublishDeadLetter(ctx context.Context, network domain.Network, data []byte, reason string) error {
	msg := nats.NewMsg(DeadLetterSubject(network))
	msg.Data = data
	msg.Header.Set(domain.HEADER_DEAD_LETTER_REASON, reason)
	msg.Header.Set(HEADER_NETWORK, network.String())

	if _, err := p.js.PublishMsg(ctx, msg); err != nil {
		metrics.PublishFailures.WithLabelValues(domain.SUBJECT_DEAD_LETTER).Inc()
		return fmt.Errorf("failed to publish dead letter: %w: %w", domain.ErrTransientBroker, err)
	}

	metrics.EnvelopesDeadLettered.WithLabelValues(network.String()).Inc()
	return nil
}

// PublishEventType publishes an event type descriptor
func (p *publisher) PublishEventType(ctx context.Context, descriptor domain.EventTypeDescriptor) error {
	data, err := p.json.Marshal(descriptor)
	if err != nil {
		return fmt.Errorf("failed to marshal event type: %w", err)
	}

	msgID := "eventtype-" + strconv.FormatUint(descriptor.ID, 10)
	if _, err := p.js.Publish(ctx, EventTypeSubject(descriptor), data, jetstream.WithMsgID(msgID)); err != nil {
		metrics.PublishFailures.WithLabelValues(domain.SUBJECT_EVENT_TYPES).Inc()
		return fmt.Errorf("failed to publish event type: %w: %w", domain.ErrTransientBroker, err)
	}

	return nil
}

// PublishNotification publishes materialized notifications for live fan-out
func (p *publisher) PublishNotification(ctx context.Context, msg *domain.NotificationMessage) error {
	data, err := p.json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msgID := "notification-" + strconv.FormatUint(msg.EventID, 10)
	if _, err := p.js.Publish(ctx, NotificationSubject(msg.EventTypeID), data, jetstream.WithMsgID(msgID)); err != nil {
		metrics.PublishFailures.WithLabelValues(domain.SUBJECT_NOTIFICATIONS).Inc()
		return fmt.Errorf("failed to publish notification: %w: %w", domain.ErrTransientBroker, err)
	}

	return nil
}

// StreamConfigs returns the stream definitions of the pipeline
func StreamConfigs(cfg Config) []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:       domain.STREAM_CHAIN_EVENTS,
			Subjects:   []string{domain.SUBJECT_CHAIN_EVENTS + ".>", domain.SUBJECT_EVENT_TYPES + ".>"},
			Storage:    jetstream.FileStorage,
			Retention:  jetstream.LimitsPolicy,
			MaxAge:     cfg.StreamMaxAge,
			Duplicates: cfg.DuplicateWindow,
		},
		{
			Name:      domain.STREAM_DEAD_LETTER,
			Subjects:  []string{domain.SUBJECT_DEAD_LETTER + ".>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    cfg.StreamMaxAge,
		},
		{
			Name:       domain.STREAM_NOTIFICATIONS,
			Subjects:   []string{domain.SUBJECT_NOTIFICATIONS + ".>"},
			Storage:    jetstream.FileStorage,
			Retention:  jetstream.LimitsPolicy,
			MaxAge:     time.Hour,
			Duplicates: cfg.DuplicateWindow,
		},
	}
}

// EnsureStreams creates or updates the pipeline streams
func (p *publisher) EnsureStreams(ctx context.Context) error {
	for _, streamCfg := range StreamConfigs(p.cfg) {
		if err := p.js.CreateOrUpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("failed to ensure stream %s: %w", streamCfg.Name, err)
		}
		logger.InfoCtx(ctx, "Stream ready", zap.String("stream", streamCfg.Name))
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
