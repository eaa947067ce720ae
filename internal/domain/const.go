package domain

const (
	// Broker subject prefixes
	SUBJECT_CHAIN_EVENTS  = "chainevents"
	SUBJECT_EVENT_TYPES   = "eventtypes"
	SUBJECT_DEAD_LETTER   = "deadletter"
	SUBJECT_NOTIFICATIONS = "notifications"

	// Broker streams
	STREAM_CHAIN_EVENTS  = "CHAIN_EVENTS"
	STREAM_DEAD_LETTER   = "CHAIN_EVENTS_DLQ"
	STREAM_NOTIFICATIONS = "CHAIN_NOTIFICATIONS"

	// Header carrying the reason a message was dead-lettered
	HEADER_DEAD_LETTER_REASON = "Ff-Error"
)
