package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

type pgStore struct {
	CursorStore
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{
		CursorStore: NewCursorStore(db),
		db:          db,
	}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// =============================================================================
// Event types
// =============================================================================

// EnsureEventType returns the event type for (network, kind), creating it when absent
func (s *pgStore) EnsureEventType(ctx context.Context, network domain.Network, kind string) (*schema.EventType, bool, error) {
	eventType := schema.EventType{
		Network: network,
		Kind:    kind,
		Queued:  domain.QueuedNeverAttempted,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "network"}, {Name: "kind"}},
			DoNothing: true,
		}).
		Create(&eventType)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create event type: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		return &eventType, true, nil
	}

	var existing schema.EventType
	err := s.db.WithContext(ctx).
		Where("network = ? AND kind = ?", network, kind).
		First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to get event type: %w", err)
	}

	return &existing, false, nil
}

// GetEventTypeByID retrieves an event type by id
func (s *pgStore) GetEventTypeByID(ctx context.Context, id uint64) (*schema.EventType, error) {
	var eventType schema.EventType
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&eventType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event type: %w", err)
	}

	return &eventType, nil
}

// GetEventTypesByIDs retrieves the event types that exist among ids
func (s *pgStore) GetEventTypesByIDs(ctx context.Context, ids []uint64) ([]schema.EventType, error) {
	if len(ids) == 0 {
		return []schema.EventType{}, nil
	}

	var eventTypes []schema.EventType
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&eventTypes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get event types: %w", err)
	}

	return eventTypes, nil
}

// ListEventTypes lists event types, all networks when network is empty
func (s *pgStore) ListEventTypes(ctx context.Context, network domain.Network) ([]schema.EventType, error) {
	query := s.db.WithContext(ctx).Model(&schema.EventType{})
	if network != "" {
		query = query.Where("network = ?", network)
	}

	var eventTypes []schema.EventType
	if err := query.Order("id").Find(&eventTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to list event types: %w", err)
	}

	return eventTypes, nil
}

// GetEventTypesForRepublish selects event types never published or with retries left
func (s *pgStore) GetEventTypesForRepublish(ctx context.Context, limit int) ([]schema.EventType, error) {
	var eventTypes []schema.EventType
	err := s.db.WithContext(ctx).
		Where("queued BETWEEN ? AND ?", domain.QueuedNeverAttempted, domain.QueuedMaxRetries).
		Order("id").
		Limit(limit).
		Find(&eventTypes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get event types for republish: %w", err)
	}

	return eventTypes, nil
}

// MarkEventTypeDelivered sets queued to the delivered marker
func (s *pgStore) MarkEventTypeDelivered(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).
		Model(&schema.EventType{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"queued":     domain.QueuedDelivered,
			"updated_at": gorm.Expr("now()"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark event type delivered: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event type %d: %w", id, domain.ErrEventTypeNotFound)
	}

	return nil
}

// IncrementEventTypeQueued increments the retry counter and returns the new value
func (s *pgStore) IncrementEventTypeQueued(ctx context.Context, id uint64) (int, error) {
	var row struct {
		Queued int
	}

	result := s.db.WithContext(ctx).Raw(`
		UPDATE event_types
		SET queued = queued + 1, updated_at = now()
		WHERE id = ?
		RETURNING queued`, id).Scan(&row)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment event type queued: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("event type %d: %w", id, domain.ErrEventTypeNotFound)
	}

	return row.Queued, nil
}

// =============================================================================
// Entities
// =============================================================================

// FindOrCreateEntity resolves an entity by its natural key, creating it when absent
func (s *pgStore) FindOrCreateEntity(ctx context.Context, network domain.Network, entityType string, typeID string) (*schema.Entity, error) {
	entity := schema.Entity{
		Network: network,
		Type:    entityType,
		TypeID:  typeID,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "network"}, {Name: "type"}, {Name: "type_id"}},
			DoNothing: true,
		}).
		Create(&entity)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create entity: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		return &entity, nil
	}

	var existing schema.Entity
	err := s.db.WithContext(ctx).
		Where("network = ? AND type = ? AND type_id = ?", network, entityType, typeID).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return &existing, nil
}

// =============================================================================
// Events
// =============================================================================

// UpsertEvent inserts an event or returns the existing row with the same uniqueness key.
// A conflicting row only has its entity id filled in when it had none
func (s *pgStore) UpsertEvent(ctx context.Context, input UpsertEventInput) (*UpsertEventResult, error) {
	if input.BlockNumber < 0 {
		return nil, domain.NewFormatError("block_number", "must be non-negative")
	}
	if len(input.EventData) == 0 {
		return nil, domain.NewFormatError("event_data", "is required")
	}

	var row struct {
		ID       uint64
		EntityID *uint64
		Inserted bool
	}

	err := s.db.WithContext(ctx).Raw(`
		INSERT INTO events (event_type_id, block_number, event_data, event_data_hash, entity_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (event_type_id, block_number, event_data_hash)
		DO UPDATE SET entity_id = COALESCE(events.entity_id, EXCLUDED.entity_id)
		RETURNING id, entity_id, (xmax = 0) AS inserted`,
		input.EventTypeID,
		input.BlockNumber,
		datatypes.JSON(input.EventData),
		input.EventDataHash,
		input.EntityID,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert event: %w", err)
	}

	return &UpsertEventResult{
		ID:       row.ID,
		EntityID: row.EntityID,
		Inserted: row.Inserted,
	}, nil
}

// GetEventByID retrieves an event by id
func (s *pgStore) GetEventByID(ctx context.Context, id uint64) (*schema.Event, error) {
	var event schema.Event
	err := s.db.WithContext(ctx).Preload("EventType").Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

// CountEventsByKey counts events stored under a uniqueness key
func (s *pgStore) CountEventsByKey(ctx context.Context, eventTypeID uint64, blockNumber int64, eventDataHash string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Event{}).
		Where("event_type_id = ? AND block_number = ? AND event_data_hash = ?", eventTypeID, blockNumber, eventDataHash).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

// GetMaxBlockNumber returns the highest persisted block for a network
func (s *pgStore) GetMaxBlockNumber(ctx context.Context, network domain.Network) (int64, bool, error) {
	var row struct {
		MaxBlock *int64
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT MAX(e.block_number) AS max_block
		FROM events e
		JOIN event_types et ON et.id = e.event_type_id
		WHERE et.network = ?`, network).Scan(&row).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to get max block number: %w", err)
	}

	if row.MaxBlock == nil {
		return 0, false, nil
	}

	return *row.MaxBlock, true, nil
}

// duplicateEventsCTE ranks events sharing (event_type_id, block_number, event_data).
// keep_id is the row with a non-null entity id first, then the lowest id
const duplicateEventsCTE = `
	WITH ranked AS (
		SELECT id, FIRST_VALUE(id) OVER (
			PARTITION BY event_type_id, block_number, event_data
			ORDER BY (entity_id IS NULL), id
		) AS keep_id
		FROM events
	)`

// RemoveDuplicateEvents removes duplicated events left by writers that predate the uniqueness key.
// Notifications of removed rows are moved onto the kept row before deletion
func (s *pgStore) RemoveDuplicateEvents(ctx context.Context) (int64, error) {
	var deleted int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(duplicateEventsCTE + `
			INSERT INTO notifications (event_id, subscription_id, created_at)
			SELECT r.keep_id, n.subscription_id, MIN(n.created_at)
			FROM notifications n
			JOIN ranked r ON r.id = n.event_id
			WHERE r.id <> r.keep_id
			GROUP BY r.keep_id, n.subscription_id
			ON CONFLICT (event_id, subscription_id) DO NOTHING`).Error
		if err != nil {
			return fmt.Errorf("failed to move notifications of duplicate events: %w", err)
		}

		result := tx.Exec(duplicateEventsCTE + `
			DELETE FROM events e
			USING ranked r
			WHERE e.id = r.id AND r.id <> r.keep_id`)
		if result.Error != nil {
			return fmt.Errorf("failed to delete duplicate events: %w", result.Error)
		}

		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// =============================================================================
// Subscriptions
// =============================================================================

// ListSubscriptionsByUser lists a user's subscriptions
func (s *pgStore) ListSubscriptionsByUser(ctx context.Context, userID string) ([]schema.Subscription, error) {
	var subscriptions []schema.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("event_type_id").Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

// ListSubscriptionsByEventType lists the subscriptions on an event type
func (s *pgStore) ListSubscriptionsByEventType(ctx context.Context, eventTypeID uint64) ([]schema.Subscription, error) {
	var subscriptions []schema.Subscription
	err := s.db.WithContext(ctx).Where("event_type_id = ?", eventTypeID).Order("id").Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptions, nil
}

// CreateSubscriptions subscribes a user to event types and returns the user's subscriptions on them
func (s *pgStore) CreateSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) ([]schema.Subscription, error) {
	if len(eventTypeIDs) == 0 {
		return []schema.Subscription{}, nil
	}

	subscriptions := make([]schema.Subscription, 0, len(eventTypeIDs))
	for _, id := range eventTypeIDs {
		subscriptions = append(subscriptions, schema.Subscription{
			UserID:      userID,
			EventTypeID: id,
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_type_id"}},
			DoNothing: true,
		}).
		Create(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptions: %w", err)
	}

	var result []schema.Subscription
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND event_type_id IN ?", userID, eventTypeIDs).
		Order("event_type_id").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}

	return result, nil
}

// DeleteSubscriptions removes a user's subscriptions on event types
func (s *pgStore) DeleteSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) (int64, error) {
	if len(eventTypeIDs) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND event_type_id IN ?", userID, eventTypeIDs).
		Delete(&schema.Subscription{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// =============================================================================
// Notifications
// =============================================================================

// CreateNotifications creates one notification per subscription on the event type.
// Rows that already exist are left untouched and are not returned
func (s *pgStore) CreateNotifications(ctx context.Context, eventID uint64, eventTypeID uint64) ([]NewNotification, error) {
	var notifications []NewNotification

	err := s.db.WithContext(ctx).Raw(`
		WITH inserted AS (
			INSERT INTO notifications (event_id, subscription_id)
			SELECT ?, s.id
			FROM subscriptions s
			WHERE s.event_type_id = ?
			ON CONFLICT (event_id, subscription_id) DO NOTHING
			RETURNING id, subscription_id, created_at
		)
		SELECT i.id, i.subscription_id, s.user_id, i.created_at
		FROM inserted i
		JOIN subscriptions s ON s.id = i.subscription_id
		ORDER BY i.id`, eventID, eventTypeID).Scan(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	return notifications, nil
}

// ListNotificationRecipients lists the distinct users notified of an event
func (s *pgStore) ListNotificationRecipients(ctx context.Context, eventID uint64) ([]string, error) {
	var recipients []string

	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT s.user_id
		FROM notifications n
		JOIN subscriptions s ON s.id = n.subscription_id
		WHERE n.event_id = ?
		ORDER BY s.user_id`, eventID).Scan(&recipients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notification recipients: %w", err)
	}

	return recipients, nil
}

// ListNotificationsByUser lists a user's notifications, newest first
func (s *pgStore) ListNotificationsByUser(ctx context.Context, userID string, limit int, offset int) ([]NotificationWithEvent, error) {
	var notifications []NotificationWithEvent

	err := s.db.WithContext(ctx).Raw(`
		SELECT n.id, n.event_id, e.event_type_id, et.network, et.kind,
			e.block_number, e.event_data, e.entity_id, n.created_at
		FROM notifications n
		JOIN subscriptions s ON s.id = n.subscription_id
		JOIN events e ON e.id = n.event_id
		JOIN event_types et ON et.id = e.event_type_id
		WHERE s.user_id = ?
		ORDER BY n.id DESC
		LIMIT ? OFFSET ?`, userID, limit, offset).Scan(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// =============================================================================
// Watched addresses
// =============================================================================

// EnsureWatchedAddress marks an address as watched.
// created is false when the address was already being watched
func (s *pgStore) EnsureWatchedAddress(ctx context.Context, network domain.Network, address string) (bool, error) {
	watched := schema.WatchedAddresses{
		Network:  network,
		Address:  strings.ToLower(address),
		Watching: true,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "network"}, {Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"watching":   true,
				"updated_at": gorm.Expr("now()"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "watched_addresses", Name: "watching"}, Value: false},
			}},
		}).
		Create(&watched)
	if result.Error != nil {
		return false, fmt.Errorf("failed to ensure watched address: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetWatchedAddresses lists the addresses currently watched on a network
func (s *pgStore) GetWatchedAddresses(ctx context.Context, network domain.Network) ([]string, error) {
	var addresses []string
	err := s.db.WithContext(ctx).
		Model(&schema.WatchedAddresses{}).
		Where("network = ? AND watching = ?", network, true).
		Order("address").
		Pluck("address", &addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get watched addresses: %w", err)
	}

	return addresses, nil
}

// UnwatchAddress stops watching an address
func (s *pgStore) UnwatchAddress(ctx context.Context, network domain.Network, address string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.WatchedAddresses{}).
		Where("network = ? AND address = ?", network, strings.ToLower(address)).
		Updates(map[string]interface{}{
			"watching":   false,
			"updated_at": gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to unwatch address: %w", err)
	}

	return nil
}
