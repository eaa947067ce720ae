package materializer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/metrics"
	"github.com/feral-file/ff-chain-events/internal/store"
)

// PersistedEvent is an event row as written by the consumer
type PersistedEvent struct {
	ID          uint64
	EventTypeID uint64
	Network     domain.Network
	Kind        string
	BlockNumber int64
	EventData   json.RawMessage
	EntityID    *uint64
}

// Materializer records one notification per subscription matching a persisted event
//
//go:generate mockgen -source=materializer.go -destination=../mocks/materializer.go -package=mocks -mock_names=Materializer=MockMaterializer
type Materializer interface {
	// Materialize creates the missing notification rows for the event.
	// It returns the message to push to every recipient of the event,
	// or nil when nobody is subscribed to it
	Materialize(ctx context.Context, event PersistedEvent) (*domain.NotificationMessage, error)
}

type materializer struct {
	store store.Store
	clock adapter.Clock
}

// New creates a notification materializer
func New(st store.Store, clock adapter.Clock) Materializer {
	return &materializer{
		store: st,
		clock: clock,
	}
}

func (m *materializer) Materialize(ctx context.Context, event PersistedEvent) (*domain.NotificationMessage, error) {
	created, err := m.store.CreateNotifications(ctx, event.ID, event.EventTypeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotificationDelivery, err)
	}

	if len(created) > 0 {
		metrics.NotificationsMaterialized.Add(float64(len(created)))
		logger.DebugCtx(ctx, "Notifications materialized",
			logger.EventID(event.ID),
			logger.EventTypeID(event.EventTypeID),
			zap.Int("created", len(created)),
		)
	}

	// a redelivered event may have committed its rows without its push going out,
	// so the message always names every recipient
	recipients, err := m.store.ListNotificationRecipients(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotificationDelivery, err)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	return &domain.NotificationMessage{
		EventID:     event.ID,
		EventTypeID: event.EventTypeID,
		Network:     event.Network,
		Kind:        event.Kind,
		BlockNumber: event.BlockNumber,
		EventData:   event.EventData,
		EntityID:    event.EntityID,
		Recipients:  recipients,
		CreatedAt:   m.clock.Now().UTC(),
	}, nil
}
