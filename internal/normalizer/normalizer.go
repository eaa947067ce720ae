package normalizer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
)

// Governor event topics (OpenZeppelin Governor)
var (
	ProposalCreatedTopic  = crypto.Keccak256Hash([]byte("ProposalCreated(uint256,address,address[],uint256[],string[],bytes[],uint256,uint256,string)"))
	VoteCastTopic         = crypto.Keccak256Hash([]byte("VoteCast(address,uint256,uint8,uint256,string)"))
	ProposalQueuedTopic   = crypto.Keccak256Hash([]byte("ProposalQueued(uint256,uint256)"))
	ProposalExecutedTopic = crypto.Keccak256Hash([]byte("ProposalExecuted(uint256)"))
	ProposalCanceledTopic = crypto.Keccak256Hash([]byte("ProposalCanceled(uint256)"))
)

var governorKinds = map[common.Hash]string{
	ProposalCreatedTopic:  domain.KindProposalCreated,
	VoteCastTopic:         domain.KindVoteCast,
	ProposalQueuedTopic:   domain.KindProposalQueued,
	ProposalExecutedTopic: domain.KindProposalExecuted,
	ProposalCanceledTopic: domain.KindProposalCanceled,
}

// GovernorTopics returns the topic0 values the log subscriber should filter on
// to receive governance events only
func GovernorTopics() []common.Hash {
	return []common.Hash{
		ProposalCreatedTopic,
		VoteCastTopic,
		ProposalQueuedTopic,
		ProposalExecutedTopic,
		ProposalCanceledTopic,
	}
}

// Normalizer transforms network-specific payloads into canonical envelopes
//
//go:generate mockgen -source=normalizer.go -destination=../mocks/normalizer.go -package=mocks -mock_names=Normalizer=MockNormalizer
type Normalizer interface {
	// Normalize converts a raw event into a validated envelope.
	// Malformed payloads return a *domain.FormatError
	Normalize(raw domain.RawEvent) (*domain.Envelope, error)
}

type normalizer struct {
	clock adapter.Clock
}

// New creates a new normalizer
func New(clock adapter.Clock) Normalizer {
	return &normalizer{clock: clock}
}

func (n *normalizer) Normalize(raw domain.RawEvent) (*domain.Envelope, error) {
	receivedAt := raw.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = n.clock.Now().UTC()
	}

	var (
		env *domain.Envelope
		err error
	)
	switch raw.Variant {
	case domain.VariantBlockHeader:
		env, err = normalizeBlock(raw)
	case domain.VariantContractLog:
		env, err = normalizeLog(raw)
	case domain.VariantProposalOperation:
		env, err = normalizeTezosOperation(raw)
	case domain.VariantWebhook:
		env, err = normalizeWebhook(raw)
	default:
		return nil, domain.NewFormatError("variant", fmt.Sprintf("unsupported variant %q", raw.Variant))
	}
	if err != nil {
		return nil, err
	}

	env.ReceivedAt = receivedAt
	if err := env.Validate(); err != nil {
		return nil, err
	}

	return env, nil
}

func normalizeBlock(raw domain.RawEvent) (*domain.Envelope, error) {
	var block domain.RawBlock
	if err := json.Unmarshal(raw.Payload, &block); err != nil {
		return nil, domain.NewFormatError("payload", "is not a valid block header")
	}
	if block.Number == nil {
		return nil, domain.NewFormatError("block_number", "is missing")
	}

	data, err := json.Marshal(map[string]interface{}{
		"kind":        domain.KindNewBlock,
		"number":      *block.Number,
		"hash":        block.Hash,
		"parent_hash": block.ParentHash,
		"timestamp":   block.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal block event data: %w", err)
	}

	return &domain.Envelope{
		NetworkID:   raw.Network,
		Kind:        domain.KindNewBlock,
		BlockNumber: block.Number,
		EventData:   data,
	}, nil
}

func normalizeLog(raw domain.RawEvent) (*domain.Envelope, error) {
	var log domain.RawLog
	if err := json.Unmarshal(raw.Payload, &log); err != nil {
		return nil, domain.NewFormatError("payload", "is not a valid contract log")
	}
	if log.Removed {
		return nil, domain.NewFormatError("payload", "log was removed by a chain reorganization")
	}
	if log.BlockNumber == nil {
		return nil, domain.NewFormatError("block_number", "is missing")
	}
	if len(log.Topics) == 0 {
		return nil, domain.NewFormatError("topics", "is empty")
	}

	kind := domain.KindContractLog
	if k, ok := governorKinds[common.HexToHash(log.Topics[0])]; ok {
		kind = k
	}

	topics := make([]string, len(log.Topics))
	for i, t := range log.Topics {
		topics[i] = common.HexToHash(t).Hex()
	}

	data, err := json.Marshal(map[string]interface{}{
		"kind":       kind,
		"address":    strings.ToLower(common.HexToAddress(log.Address).Hex()),
		"topics":     topics,
		"data":       log.Data,
		"tx_hash":    log.TxHash,
		"log_index":  log.LogIndex,
		"block_hash": log.BlockHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log event data: %w", err)
	}

	env := &domain.Envelope{
		NetworkID:   raw.Network,
		Kind:        kind,
		BlockNumber: log.BlockNumber,
		EventData:   data,
	}

	if kind != domain.KindContractLog {
		proposalID, err := firstDataWord(log.Data)
		if err != nil {
			return nil, err
		}
		env.Entity = &domain.EntityRef{
			Type:   domain.EntityTypeProposal,
			TypeID: proposalID,
		}
	}

	return env, nil
}

// firstDataWord decodes the first 32-byte word of ABI encoded log data as an
// unsigned integer. Governor events carry the proposal id there
func firstDataWord(data string) (string, error) {
	b, err := hexutil.Decode(data)
	if err != nil {
		return "", domain.NewFormatError("data", "is not valid hex")
	}
	if len(b) < common.HashLength {
		return "", domain.NewFormatError("data", "is too short to carry a proposal id")
	}

	return new(big.Int).SetBytes(b[:common.HashLength]).String(), nil
}

// TzKTOperation is the subset of a TzKT proposal or ballot operation used by the normalizer
type TzKTOperation struct {
	Type      string `json:"type"`
	ID        uint64 `json:"id"`
	Level     *int64 `json:"level"`
	Timestamp string `json:"timestamp"`
	Block     string `json:"block"`
	Hash      string `json:"hash"`
	Period    *struct {
		Index int    `json:"index"`
		Epoch int    `json:"epoch"`
		Kind  string `json:"kind"`
	} `json:"period,omitempty"`
	Proposal *struct {
		Hash  string `json:"hash"`
		Alias string `json:"alias,omitempty"`
	} `json:"proposal"`
	Delegate *struct {
		Address string `json:"address"`
		Alias   string `json:"alias,omitempty"`
	} `json:"delegate"`
	VotingPower int64  `json:"votingPower"`
	Vote        string `json:"vote,omitempty"`
}

func normalizeTezosOperation(raw domain.RawEvent) (*domain.Envelope, error) {
	var op TzKTOperation
	if err := json.Unmarshal(raw.Payload, &op); err != nil {
		return nil, domain.NewFormatError("payload", "is not a valid tzkt operation")
	}
	if op.Level == nil {
		return nil, domain.NewFormatError("block_number", "is missing")
	}
	if op.Proposal == nil || op.Proposal.Hash == "" {
		return nil, domain.NewFormatError("proposal", "is missing")
	}

	var kind string
	switch op.Type {
	case "proposal":
		kind = domain.KindProposalSubmit
	case "ballot":
		kind = domain.KindBallotCast
	default:
		return nil, domain.NewFormatError("type", fmt.Sprintf("unsupported operation type %q", op.Type))
	}

	fields := map[string]interface{}{
		"kind":         kind,
		"operation_id": op.ID,
		"hash":         op.Hash,
		"block":        op.Block,
		"timestamp":    op.Timestamp,
		"proposal":     op.Proposal.Hash,
		"voting_power": op.VotingPower,
	}
	if op.Delegate != nil {
		fields["delegate"] = op.Delegate.Address
	}
	if op.Vote != "" {
		fields["vote"] = op.Vote
	}
	if op.Period != nil {
		fields["period"] = op.Period.Index
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tezos event data: %w", err)
	}

	return &domain.Envelope{
		NetworkID:   raw.Network,
		Kind:        kind,
		BlockNumber: op.Level,
		EventData:   data,
		Entity: &domain.EntityRef{
			Type:   domain.EntityTypeProposal,
			TypeID: op.Proposal.Hash,
		},
	}, nil
}

// normalizeWebhook accepts payloads that already have the envelope shape.
// The network of the raw event is used when the payload omits it
func normalizeWebhook(raw domain.RawEvent) (*domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(raw.Payload, &env); err != nil {
		return nil, domain.NewFormatError("payload", "is not a valid envelope")
	}
	// the network has to come from the signed payload
	env.Source = "webhook"

	return &env, nil
}
