package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
)

// Network represents the identifier of a source network.
// EVM and Tezos networks use the CAIP-2 format (e.g. "eip155:1", "tezos:mainnet"),
// other networks may use a plain name (e.g. "substrate")
type Network string

const (
	NetworkEthereumMainnet Network = "eip155:1"
	NetworkEthereumSepolia Network = "eip155:11155111"
	NetworkTezosMainnet    Network = "tezos:mainnet"
	NetworkTezosGhostnet   Network = "tezos:ghostnet"
)

// String returns the network identifier
func (n Network) String() string {
	return string(n)
}

// SubjectToken returns the network identifier in a form that is safe to use
// as a single token of a broker subject
func (n Network) SubjectToken() string {
	return SubjectToken(string(n))
}

// SubjectToken replaces the characters that are not allowed inside a single
// subject token ('.', '*', '>', ':' and whitespace) with '_'
func SubjectToken(s string) string {
	if s == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', '*', '>', ':', ' ', '\t', '\n', '\r':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Event kinds produced by the normalizer
const (
	KindUnknown          = "unknown"
	KindNewBlock         = "new-block"
	KindContractLog      = "contract-log"
	KindProposalCreated  = "proposal-created"
	KindVoteCast         = "vote-cast"
	KindProposalQueued   = "proposal-queued"
	KindProposalExecuted = "proposal-executed"
	KindProposalCanceled = "proposal-canceled"
	KindProposalSubmit   = "proposal-submitted"
	KindBallotCast       = "ballot-cast"
)

// EntityTypeProposal is the entity type used for governance proposals
const EntityTypeProposal = "proposal"

// EntityRef identifies an entity by its natural key within a network.
// The consumer resolves it to a persisted entity id (find or create)
type EntityRef struct {
	Type   string `json:"type"`
	TypeID string `json:"type_id"`
}

// Envelope is the canonical, network-agnostic representation of a chain event.
// This is the format published to the broker
type Envelope struct {
	NetworkID   Network         `json:"network_id"`          // source network
	Kind        string          `json:"kind,omitempty"`      // event kind, falls back to event_data.kind
	BlockNumber *int64          `json:"block_number"`        // block (or level) the event belongs to
	EventData   json.RawMessage `json:"event_data"`          // structured event payload
	EntityID    *uint64         `json:"entity_id,omitempty"` // persisted entity reference
	Entity      *EntityRef      `json:"entity,omitempty"`    // entity natural key, resolved by the consumer
	ReceivedAt  time.Time       `json:"received_at"`         // when the event was observed
	Source      string          `json:"source,omitempty"`    // optional origin hint (e.g. "webhook")
}

// Validate checks that the envelope is well-formed:
// block number is a non-negative integer, event data is present and
// network id is a non-empty identifier
func (e *Envelope) Validate() error {
	if e == nil {
		return NewFormatError("envelope", "is missing")
	}
	if strings.TrimSpace(string(e.NetworkID)) == "" {
		return NewFormatError("network_id", "must be a non-empty identifier")
	}
	if e.BlockNumber == nil {
		return NewFormatError("block_number", "is missing")
	}
	if *e.BlockNumber < 0 {
		return NewFormatError("block_number", "must be a non-negative integer")
	}
	trimmed := bytes.TrimSpace(e.EventData)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NewFormatError("event_data", "is missing")
	}
	if !json.Valid(trimmed) {
		return NewFormatError("event_data", "is not valid JSON")
	}

	return nil
}

// EventKind returns the kind of the event. If the envelope does not carry an
// explicit kind, the "kind" field of the event data is used
func (e *Envelope) EventKind() string {
	if e.Kind != "" {
		return e.Kind
	}

	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(e.EventData, &head); err == nil && head.Kind != "" {
		return head.Kind
	}

	return KindUnknown
}

// Block returns the block number or 0 when it is not set
func (e *Envelope) Block() int64 {
	if e.BlockNumber == nil {
		return 0
	}
	return *e.BlockNumber
}

// CanonicalEventData returns the RFC 8785 canonical form of the event data
func (e *Envelope) CanonicalEventData() ([]byte, error) {
	return CanonicalJSON(e.EventData)
}

// EventDataHash returns the hex encoded SHA-256 of the canonical event data.
// Semantically equal payloads produce the same hash regardless of key order
func (e *Envelope) EventDataHash() (string, error) {
	return HashEventData(e.EventData)
}

// DedupKey returns a stable identifier for the envelope, used as the broker
// message id so that re-publishing the same event is de-duplicated
func (e *Envelope) DedupKey() (string, error) {
	canonical, err := e.CanonicalEventData()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(e.NetworkID))
	h.Write([]byte("|"))
	h.Write([]byte(e.EventKind()))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatInt(e.Block(), 10)))
	h.Write([]byte("|"))
	h.Write(canonical)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanonicalJSON transforms a JSON document into its canonical form (JCS)
func CanonicalJSON(data []byte) ([]byte, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize json: %w", err)
	}
	return canonical, nil
}

// HashEventData returns the hex encoded SHA-256 of the canonical JSON form of data
func HashEventData(data []byte) (string, error) {
	canonical, err := CanonicalJSON(data)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// RawEventVariant identifies the shape of a network-specific payload
type RawEventVariant string

const (
	VariantBlockHeader       RawEventVariant = "block_header"
	VariantContractLog       RawEventVariant = "contract_log"
	VariantProposalOperation RawEventVariant = "proposal_operation"
	VariantWebhook           RawEventVariant = "webhook"
)

// RawEvent is a network-specific payload as received by a chain subscriber.
// The payload is forwarded to the normalizer unmodified
type RawEvent struct {
	Network    Network         `json:"network"`
	Variant    RawEventVariant `json:"variant"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// RawBlock is the payload of a block header event
type RawBlock struct {
	Number     *int64 `json:"number"`
	Hash       string `json:"hash,omitempty"`
	ParentHash string `json:"parent_hash,omitempty"`
	Timestamp  uint64 `json:"timestamp,omitempty"`
}

// RawLog is the payload of a contract log event
type RawLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber *int64   `json:"block_number"`
	BlockHash   string   `json:"block_hash,omitempty"`
	TxHash      string   `json:"tx_hash,omitempty"`
	TxIndex     uint     `json:"tx_index"`
	LogIndex    uint     `json:"log_index"`
	Removed     bool     `json:"removed,omitempty"`
}

// EventTypeDescriptor identifies one kind of event on one network
// and carries the retry bookkeeping counter used for re-publishing
type EventTypeDescriptor struct {
	ID      uint64  `json:"id"`
	Network Network `json:"network"`
	Kind    string  `json:"kind"`
	Queued  int     `json:"queued"`
}

// Queued counter states of an event type descriptor
const (
	// QueuedDelivered marks a descriptor that was delivered successfully.
	// It is outside the retry range so the republish worker ignores it
	QueuedDelivered = -2
	// QueuedNeverAttempted marks a descriptor that was never published
	QueuedNeverAttempted = -1
	// QueuedMaxRetries is the last retry count still eligible for re-publishing.
	// Any value above it is terminal and requires manual intervention
	QueuedMaxRetries = 5
)

// IsRetryableQueued reports whether a queued counter is inside the re-publish range
func IsRetryableQueued(queued int) bool {
	return queued >= QueuedNeverAttempted && queued <= QueuedMaxRetries
}

// NotificationMessage is published for every persisted event that produced new
// notification records; the fan-out tier pushes it to the listed recipients
type NotificationMessage struct {
	EventID     uint64          `json:"event_id"`
	EventTypeID uint64          `json:"event_type_id"`
	Network     Network         `json:"network"`
	Kind        string          `json:"kind"`
	BlockNumber int64           `json:"block_number"`
	EventData   json.RawMessage `json:"event_data"`
	EntityID    *uint64         `json:"entity_id,omitempty"`
	Recipients  []string        `json:"recipients"`
	CreatedAt   time.Time       `json:"created_at"`
}
