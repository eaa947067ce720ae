package schema

import "time"

// Notification represents the notifications table.
// (event_id, subscription_id) is the idempotency key
type Notification struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	EventID        uint64    `gorm:"column:event_id;not null;uniqueIndex:idx_notifications_event_subscription"`
	SubscriptionID uint64    `gorm:"column:subscription_id;not null;uniqueIndex:idx_notifications_event_subscription"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
