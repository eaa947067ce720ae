package schema

import (
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// EventType represents the event_types table - one row per distinct (network, kind)
type EventType struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Network identifies the source network
	Network domain.Network `gorm:"column:network;not null;type:text;uniqueIndex:idx_event_types_network_kind"`
	// Kind is the event kind (e.g. new-block, vote-cast)
	Kind string `gorm:"column:kind;not null;type:text;uniqueIndex:idx_event_types_network_kind"`
	// Queued is the retry bookkeeping counter:
	// -2 delivered, -1 never attempted, 0..5 failed retries, >5 terminal
	Queued int `gorm:"column:queued;not null;default:-1"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the EventType model
func (EventType) TableName() string {
	return "event_types"
}

// Descriptor converts the row into its domain representation
func (e EventType) Descriptor() domain.EventTypeDescriptor {
	return domain.EventTypeDescriptor{
		ID:      e.ID,
		Network: e.Network,
		Kind:    e.Kind,
		Queued:  e.Queued,
	}
}
