package fanout

import "github.com/feral-file/ff-chain-events/internal/domain"

// FrameType is the type of a fan-out protocol frame
type FrameType string

const (
	FrameNewSubscriptions    FrameType = "NewSubscriptions"
	FrameDeleteSubscriptions FrameType = "DeleteSubscriptions"
	FrameEventNotification   FrameType = "EventNotification"
	FrameSyncAck             FrameType = "SyncAck"
	FrameError               FrameType = "Error"
)

// Frame is a single message on the fan-out channel, in either direction
type Frame struct {
	Type         FrameType                   `json:"type"`
	EventTypeIDs []uint64                    `json:"event_type_ids,omitempty"`
	Notification *domain.NotificationMessage `json:"notification,omitempty"`
	Error        string                      `json:"error,omitempty"`
}

// Peer is one live connection of a user
//
//go:generate mockgen -source=frame.go -destination=../mocks/fanout_peer.go -package=mocks -mock_names=Peer=MockPeer
type Peer interface {
	// ID returns the connection id
	ID() string
	// Send queues a frame without blocking. It fails once the peer is closed or its buffer is full
	Send(frame Frame) error
	// Close closes the underlying connection. It is idempotent
	Close()
}
