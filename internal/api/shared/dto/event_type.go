package dto

import (
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// EventType is an event type descriptor as returned by the API
type EventType struct {
	ID        uint64         `json:"id"`
	Network   domain.Network `json:"network"`
	Kind      string         `json:"kind"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventTypeListResponse represents the response for listing event types
type EventTypeListResponse struct {
	EventTypes []EventType `json:"event_types"`
}

// MapEventTypeToDTO maps a schema.EventType to its DTO
func MapEventTypeToDTO(et schema.EventType) EventType {
	return EventType{
		ID:        et.ID,
		Network:   et.Network,
		Kind:      et.Kind,
		CreatedAt: et.CreatedAt,
	}
}
