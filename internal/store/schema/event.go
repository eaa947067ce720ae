package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Event represents the events table - persisted chain events.
// At most one row exists per (event_type_id, block_number, event_data_hash)
type Event struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventTypeID references the event type descriptor
	EventTypeID uint64 `gorm:"column:event_type_id;not null;uniqueIndex:idx_events_dedup_key"`
	// BlockNumber is the block (or level) the event belongs to
	BlockNumber int64 `gorm:"column:block_number;not null;uniqueIndex:idx_events_dedup_key"`
	// EventData is the structured event payload
	EventData datatypes.JSON `gorm:"column:event_data;not null;type:jsonb"`
	// EventDataHash is the SHA-256 of the canonical JSON form of EventData
	EventDataHash string `gorm:"column:event_data_hash;not null;type:text;uniqueIndex:idx_events_dedup_key"`
	// EntityID references the entity this event is about, it may be filled in later
	EntityID *uint64 `gorm:"column:entity_id"`
	// CreatedAt is the timestamp when this record was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	EventType EventType `gorm:"foreignKey:EventTypeID"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}
