package messaging

import (
	"context"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// Publisher is the message relay between the chain subscribers and the broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish validates the envelope and publishes it on the primary subject.
	// An invalid envelope is dead-lettered and its *domain.FormatError returned
	Publish(ctx context.Context, env *domain.Envelope) error
	// PublishDeadLetter publishes a payload that could not be turned into a valid envelope
	PublishDeadLetter(ctx context.Context, network domain.Network, data []byte, reason string) error
	// PublishEventType publishes an event type descriptor to collaborators
	PublishEventType(ctx context.Context, descriptor domain.EventTypeDescriptor) error
	// PublishNotification publishes materialized notifications for live fan-out
	PublishNotification(ctx context.Context, msg *domain.NotificationMessage) error
	// EnsureStreams provisions the broker streams used by the pipeline
	EnsureStreams(ctx context.Context) error
	// Close closes the connection
	Close()
}
