package dto

import (
	"fmt"
	"time"

	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

const MAX_EVENT_TYPES_PER_REQUEST = 100

// Subscription is a user's subscription on an event type
type Subscription struct {
	ID          uint64    `json:"id"`
	EventTypeID uint64    `json:"event_type_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubscriptionListResponse represents the response for listing a user's subscriptions
type SubscriptionListResponse struct {
	UserID        string         `json:"user_id"`
	Subscriptions []Subscription `json:"subscriptions"`
}

// SubscriptionsRequest is the body of POST and DELETE /api/v1/subscriptions
type SubscriptionsRequest struct {
	EventTypeIDs []uint64 `json:"event_type_ids" binding:"required"`
}

// Validate validates the request
func (r *SubscriptionsRequest) Validate() error {
	if len(r.EventTypeIDs) == 0 {
		return fmt.Errorf("event_type_ids must not be empty")
	}
	if len(r.EventTypeIDs) > MAX_EVENT_TYPES_PER_REQUEST {
		return fmt.Errorf("at most %d event types per request", MAX_EVENT_TYPES_PER_REQUEST)
	}
	for _, id := range r.EventTypeIDs {
		if id == 0 {
			return fmt.Errorf("event type id must be positive")
		}
	}
	return nil
}

// MapSubscriptionsToDTO maps schema subscriptions to their DTOs
func MapSubscriptionsToDTO(userID string, subs []schema.Subscription) SubscriptionListResponse {
	resp := SubscriptionListResponse{
		UserID:        userID,
		Subscriptions: make([]Subscription, 0, len(subs)),
	}
	for _, s := range subs {
		resp.Subscriptions = append(resp.Subscriptions, Subscription{
			ID:          s.ID,
			EventTypeID: s.EventTypeID,
			CreatedAt:   s.CreatedAt,
		})
	}
	return resp
}
