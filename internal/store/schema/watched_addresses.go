package schema

import (
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// WatchedAddresses represents the watched_addresses table - contract addresses
// whose logs are streamed by the log subscriber
type WatchedAddresses struct {
	// Network identifies the source network
	Network domain.Network `gorm:"column:network;not null;primaryKey;type:text"`
	// Address is the lower-cased contract address being watched
	Address string `gorm:"column:address;not null;primaryKey;type:text"`
	// Watching indicates whether this address is currently being monitored
	Watching bool `gorm:"column:watching;not null;default:true"`
	// CreatedAt is when this watch entry was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is when this watch entry was last modified
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WatchedAddresses model
func (WatchedAddresses) TableName() string {
	return "watched_addresses"
}
