package store

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// UpsertEventInput describes an event to persist
type UpsertEventInput struct {
	EventTypeID   uint64
	BlockNumber   int64
	EventData     json.RawMessage
	EventDataHash string
	EntityID      *uint64
}

// UpsertEventResult is the outcome of UpsertEvent.
// Inserted is false when a row with the same uniqueness key already existed
type UpsertEventResult struct {
	ID       uint64
	EntityID *uint64
	Inserted bool
}

// NewNotification is a notification row created by CreateNotifications joined with its subscriber
type NewNotification struct {
	ID             uint64
	SubscriptionID uint64
	UserID         string
	CreatedAt      time.Time
}

// NotificationWithEvent is a notification row joined with its event and event type
type NotificationWithEvent struct {
	ID          uint64
	EventID     uint64
	EventTypeID uint64
	Network     domain.Network
	Kind        string
	BlockNumber int64
	EventData   datatypes.JSON
	EntityID    *uint64
	CreatedAt   time.Time
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	CursorStore

	// EnsureEventType returns the event type for (network, kind), creating it with queued -1 when absent.
	// created reports whether this call inserted the row
	EnsureEventType(ctx context.Context, network domain.Network, kind string) (eventType *schema.EventType, created bool, err error)
	// GetEventTypeByID retrieves an event type by id, nil when absent
	GetEventTypeByID(ctx context.Context, id uint64) (*schema.EventType, error)
	// GetEventTypesByIDs retrieves the event types that exist among ids
	GetEventTypesByIDs(ctx context.Context, ids []uint64) ([]schema.EventType, error)
	// ListEventTypes lists event types, optionally filtered by network
	ListEventTypes(ctx context.Context, network domain.Network) ([]schema.EventType, error)
	// GetEventTypesForRepublish selects event types whose descriptor still needs publishing
	GetEventTypesForRepublish(ctx context.Context, limit int) ([]schema.EventType, error)
	// MarkEventTypeDelivered sets queued to the delivered marker
	MarkEventTypeDelivered(ctx context.Context, id uint64) error
	// IncrementEventTypeQueued increments the retry counter and returns the new value
	IncrementEventTypeQueued(ctx context.Context, id uint64) (int, error)

	// FindOrCreateEntity resolves an entity by its natural key, creating it when absent
	FindOrCreateEntity(ctx context.Context, network domain.Network, entityType string, typeID string) (*schema.Entity, error)

	// UpsertEvent inserts an event or returns the existing row with the same uniqueness key
	UpsertEvent(ctx context.Context, input UpsertEventInput) (*UpsertEventResult, error)
	// GetEventByID retrieves an event by id, nil when absent
	GetEventByID(ctx context.Context, id uint64) (*schema.Event, error)
	// CountEventsByKey counts events stored under a uniqueness key
	CountEventsByKey(ctx context.Context, eventTypeID uint64, blockNumber int64, eventDataHash string) (int64, error)
	// GetMaxBlockNumber returns the highest persisted block for a network
	GetMaxBlockNumber(ctx context.Context, network domain.Network) (blockNumber int64, found bool, err error)
	// RemoveDuplicateEvents removes events sharing (event_type_id, block_number, event_data),
	// keeping the row with a non-null entity id and lowest id. Returns the number of deleted rows
	RemoveDuplicateEvents(ctx context.Context) (int64, error)

	// ListSubscriptionsByUser lists a user's subscriptions
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]schema.Subscription, error)
	// ListSubscriptionsByEventType lists the subscriptions on an event type
	ListSubscriptionsByEventType(ctx context.Context, eventTypeID uint64) ([]schema.Subscription, error)
	// CreateSubscriptions subscribes a user to event types; existing subscriptions are kept as is
	CreateSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) ([]schema.Subscription, error)
	// DeleteSubscriptions removes a user's subscriptions on event types, returning the number removed
	DeleteSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) (int64, error)

	// CreateNotifications creates one notification per subscription on the event type
	// and returns only the rows created by this call
	CreateNotifications(ctx context.Context, eventID uint64, eventTypeID uint64) ([]NewNotification, error)
	// ListNotificationRecipients lists the distinct users notified of an event
	ListNotificationRecipients(ctx context.Context, eventID uint64) ([]string, error)
	// ListNotificationsByUser lists a user's notifications, newest first
	ListNotificationsByUser(ctx context.Context, userID string, limit int, offset int) ([]NotificationWithEvent, error)

	// EnsureWatchedAddress marks an address as watched, created reports whether it was newly watched
	EnsureWatchedAddress(ctx context.Context, network domain.Network, address string) (created bool, err error)
	// GetWatchedAddresses lists the addresses currently watched on a network
	GetWatchedAddresses(ctx context.Context, network domain.Network) ([]string, error)
	// UnwatchAddress stops watching an address
	UnwatchAddress(ctx context.Context, network domain.Network, address string) error
}
