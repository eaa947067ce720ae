package schema

import "time"

// Subscription represents the subscriptions table - a user's durable interest in an event type
type Subscription struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;not null;type:text;uniqueIndex:idx_subscriptions_user_event_type"`
	EventTypeID uint64    `gorm:"column:event_type_id;not null;uniqueIndex:idx_subscriptions_user_event_type"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}
