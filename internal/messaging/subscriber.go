package messaging

import (
	"context"
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// RawEventHandler is called for every raw payload a subscriber receives, unmodified.
// Subscribers call it from one goroutine at a time, in the order payloads are received
type RawEventHandler func(raw domain.RawEvent) error

// Subscriber defines the common interface for per-network chain subscribers
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// Subscribe runs a catch-up fetch from fromBlock, then streams live payloads to onEvent.
	// It blocks until the context is done, Unsubscribe is called or the stream fails
	Subscribe(ctx context.Context, fromBlock int64, onEvent RawEventHandler) error

	// Unsubscribe stops the stream and releases its resources.
	// It is idempotent and safe to call before Subscribe
	Unsubscribe()

	// GetLatestBlock returns the latest block number/level
	GetLatestBlock(ctx context.Context) (int64, error)
}

// AddressWatcher is a subscriber that follows a dynamic set of contract addresses
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=AddressWatcher=MockAddressWatcher
type AddressWatcher interface {
	Subscriber

	// AddWatchedAddress adds an address to the live filter, retrying transient failures
	// up to maxRetries times with retryDelay in between. Adding a watched address is a no-op
	AddWatchedAddress(ctx context.Context, address string, retryDelay time.Duration, maxRetries uint64) error
}
