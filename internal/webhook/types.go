package webhook

// Request headers of a signed webhook
const (
	// HeaderSignature carries "sha256=<hex>"
	HeaderSignature = "X-Webhook-Signature"
	// HeaderTimestamp carries the unix timestamp in seconds the request was signed at
	HeaderTimestamp = "X-Webhook-Timestamp"
	// HeaderEventID carries the sender's unique id for the event
	HeaderEventID = "X-Webhook-Id"
)

// Response is the body of a webhook response
type Response struct {
	EventID string `json:"event_id,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
