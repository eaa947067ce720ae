package normalizer_test

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
)

func setupNormalizer(t *testing.T) (normalizer.Normalizer, *mocks.MockClock, time.Time) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	return normalizer.New(clock), clock, now
}

func proposalData(id int64) string {
	word := common.LeftPadBytes(big.NewInt(id).Bytes(), 32)
	extra := common.LeftPadBytes(big.NewInt(1).Bytes(), 32)
	return hexutil.Encode(append(word, extra...))
}

func TestNormalize_BlockHeader(t *testing.T) {
	n, _, now := setupNormalizer(t)

	env, err := n.Normalize(domain.RawEvent{
		Network: "substrate",
		Variant: domain.VariantBlockHeader,
		Payload: json.RawMessage(`{"number":100,"hash":"0xabc","parent_hash":"0xabb","timestamp":1700000000}`),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Network("substrate"), env.NetworkID)
	assert.Equal(t, domain.KindNewBlock, env.EventKind())
	require.NotNil(t, env.BlockNumber)
	assert.Equal(t, int64(100), *env.BlockNumber)
	assert.Equal(t, now, env.ReceivedAt)
	assert.Nil(t, env.Entity)
	assert.NoError(t, env.Validate())

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.EventData, &data))
	assert.Equal(t, "0xabc", data["hash"])
	assert.Equal(t, float64(100), data["number"])
}

func TestNormalize_BlockHeaderKeepsReceivedAt(t *testing.T) {
	n, _, _ := setupNormalizer(t)
	receivedAt := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)

	env, err := n.Normalize(domain.RawEvent{
		Network:    domain.NetworkEthereumMainnet,
		Variant:    domain.VariantBlockHeader,
		Payload:    json.RawMessage(`{"number":1}`),
		ReceivedAt: receivedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, receivedAt, env.ReceivedAt)
}

func TestNormalize_BlockHeaderMissingNumber(t *testing.T) {
	n, _, _ := setupNormalizer(t)

	_, err := n.Normalize(domain.RawEvent{
		Network: "substrate",
		Variant: domain.VariantBlockHeader,
		Payload: json.RawMessage(`{"hash":"0xabc"}`),
	})
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))
}

func TestNormalize_ContractLog(t *testing.T) {
	n, _, _ := setupNormalizer(t)

	tests := []struct {
		name       string
		topic      common.Hash
		wantKind   string
		wantEntity bool
	}{
		{"proposal created", normalizer.ProposalCreatedTopic, domain.KindProposalCreated, true},
		{"vote cast", normalizer.VoteCastTopic, domain.KindVoteCast, true},
		{"proposal queued", normalizer.ProposalQueuedTopic, domain.KindProposalQueued, true},
		{"proposal executed", normalizer.ProposalExecutedTopic, domain.KindProposalExecuted, true},
		{"proposal canceled", normalizer.ProposalCanceledTopic, domain.KindProposalCanceled, true},
		{"other log", common.HexToHash("0x1234"), domain.KindContractLog, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(domain.RawLog{
				Address:     "0x00000000000000000000000000000000000000AA",
				Topics:      []string{tt.topic.Hex()},
				Data:        proposalData(77),
				BlockNumber: int64Ptr(12),
				TxHash:      "0xtx",
				LogIndex:    3,
			})
			require.NoError(t, err)

			env, err := n.Normalize(domain.RawEvent{
				Network: domain.NetworkEthereumMainnet,
				Variant: domain.VariantContractLog,
				Payload: payload,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, env.Kind)
			assert.Equal(t, int64(12), *env.BlockNumber)

			if tt.wantEntity {
				require.NotNil(t, env.Entity)
				assert.Equal(t, domain.EntityTypeProposal, env.Entity.Type)
				assert.Equal(t, "77", env.Entity.TypeID)
			} else {
				assert.Nil(t, env.Entity)
			}
		})
	}
}

func TestNormalize_ContractLogErrors(t *testing.T) {
	n, _, _ := setupNormalizer(t)

	tests := []struct {
		name string
		log  domain.RawLog
	}{
		{
			name: "removed log",
			log: domain.RawLog{
				Topics:      []string{normalizer.VoteCastTopic.Hex()},
				Data:        proposalData(1),
				BlockNumber: int64Ptr(1),
				Removed:     true,
			},
		},
		{
			name: "missing block number",
			log: domain.RawLog{
				Topics: []string{normalizer.VoteCastTopic.Hex()},
				Data:   proposalData(1),
			},
		},
		{
			name: "no topics",
			log: domain.RawLog{
				Data:        proposalData(1),
				BlockNumber: int64Ptr(1),
			},
		},
		{
			name: "governor log with short data",
			log: domain.RawLog{
				Topics:      []string{normalizer.ProposalExecutedTopic.Hex()},
				Data:        "0x01",
				BlockNumber: int64Ptr(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.log)
			require.NoError(t, err)

			_, err = n.Normalize(domain.RawEvent{
				Network: domain.NetworkEthereumMainnet,
				Variant: domain.VariantContractLog,
				Payload: payload,
			})
			require.Error(t, err)
			assert.True(t, domain.IsFormatError(err))
		})
	}
}

func TestNormalize_TezosOperation(t *testing.T) {
	n, _, _ := setupNormalizer(t)

	env, err := n.Normalize(domain.RawEvent{
		Network: domain.NetworkTezosMainnet,
		Variant: domain.VariantProposalOperation,
		Payload: json.RawMessage(`{
			"type": "ballot",
			"id": 123,
			"level": 5000,
			"hash": "ooHash",
			"proposal": {"hash": "PtParis"},
			"delegate": {"address": "tz1abc"},
			"votingPower": 42,
			"vote": "yay"
		}`),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindBallotCast, env.Kind)
	assert.Equal(t, int64(5000), *env.BlockNumber)
	require.NotNil(t, env.Entity)
	assert.Equal(t, "PtParis", env.Entity.TypeID)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.EventData, &data))
	assert.Equal(t, "yay", data["vote"])
	assert.Equal(t, "tz1abc", data["delegate"])

	_, err = n.Normalize(domain.RawEvent{
		Network: domain.NetworkTezosMainnet,
		Variant: domain.VariantProposalOperation,
		Payload: json.RawMessage(`{"type":"transaction","level":1,"proposal":{"hash":"Pt"}}`),
	})
	assert.True(t, domain.IsFormatError(err))
}

func TestNormalize_Webhook(t *testing.T) {
	n, _, now := setupNormalizer(t)

	env, err := n.Normalize(domain.RawEvent{
		Variant: domain.VariantWebhook,
		Payload: json.RawMessage(`{"network_id":"substrate","block_number":9,"event_data":{"kind":"proposal-created","id":1},"entity_id":7}`),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Network("substrate"), env.NetworkID)
	assert.Equal(t, domain.KindProposalCreated, env.EventKind())
	require.NotNil(t, env.EntityID)
	assert.Equal(t, uint64(7), *env.EntityID)
	assert.Equal(t, now, env.ReceivedAt)
	assert.Equal(t, "webhook", env.Source)

	_, err = n.Normalize(domain.RawEvent{
		Variant: domain.VariantWebhook,
		Payload: json.RawMessage(`{"network_id":"substrate","event_data":{"kind":"x"}}`),
	})
	assert.True(t, domain.IsFormatError(err))

	// the raw network is not a fallback for the payload's own
	_, err = n.Normalize(domain.RawEvent{
		Network: "substrate",
		Variant: domain.VariantWebhook,
		Payload: json.RawMessage(`{"block_number":9,"event_data":{"kind":"x"}}`),
	})
	var formatErr *domain.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "network_id", formatErr.Field)
}

func TestNormalize_UnknownVariant(t *testing.T) {
	n, _, _ := setupNormalizer(t)

	_, err := n.Normalize(domain.RawEvent{Network: "substrate", Variant: "weird"})
	assert.True(t, domain.IsFormatError(err))
}

func int64Ptr(v int64) *int64 {
	return &v
}
