package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store"
)

// Notification is a persisted notification joined with its event
type Notification struct {
	ID          uint64          `json:"id"`
	EventID     uint64          `json:"event_id"`
	EventTypeID uint64          `json:"event_type_id"`
	Network     domain.Network  `json:"network"`
	Kind        string          `json:"kind"`
	BlockNumber int64           `json:"block_number"`
	EventData   json.RawMessage `json:"event_data"`
	EntityID    *uint64         `json:"entity_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NotificationListResponse represents a page of a user's notifications
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Offset        int            `json:"offset"`
	NextOffset    *int           `json:"next_offset,omitempty"`
}

// MapNotificationsToDTO maps a page of notifications. A full page yields a next offset
func MapNotificationsToDTO(rows []store.NotificationWithEvent, limit, offset int) NotificationListResponse {
	resp := NotificationListResponse{
		Notifications: make([]Notification, 0, len(rows)),
		Offset:        offset,
	}
	for _, n := range rows {
		resp.Notifications = append(resp.Notifications, Notification{
			ID:          n.ID,
			EventID:     n.EventID,
			EventTypeID: n.EventTypeID,
			Network:     n.Network,
			Kind:        n.Kind,
			BlockNumber: n.BlockNumber,
			EventData:   json.RawMessage(n.EventData),
			EntityID:    n.EntityID,
			CreatedAt:   n.CreatedAt,
		})
	}
	if limit > 0 && len(rows) == limit {
		next := offset + limit
		resp.NextOffset = &next
	}
	return resp
}
