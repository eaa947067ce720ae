package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrSubscriberDisconnect is returned when a subscriber loses its connection to the network
	ErrSubscriberDisconnect = errors.New("subscriber disconnected")

	// ErrTransientBroker is returned when the broker rejects or cannot accept a message
	ErrTransientBroker = errors.New("transient broker error")

	// ErrNotificationDelivery is returned when notification records cannot be written
	ErrNotificationDelivery = errors.New("notification delivery failed")

	// ErrEventTypeNotFound is returned when an event type descriptor does not exist
	ErrEventTypeNotFound = errors.New("event type not found")

	// ErrConnectionClosed is returned when sending to a closed fan-out connection
	ErrConnectionClosed = errors.New("connection closed")

	// ErrConnectionNotFound is returned when a fan-out connection is unknown
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")
)

// FormatError reports a malformed payload. It is never retried, only dead-lettered
type FormatError struct {
	Field  string
	Reason string
}

// NewFormatError creates a new FormatError
func NewFormatError(field, reason string) *FormatError {
	return &FormatError{Field: field, Reason: reason}
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("format error: %s", e.Reason)
	}
	return fmt.Sprintf("format error: %s %s", e.Field, e.Reason)
}

// IsFormatError reports whether err is or wraps a FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
