package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testPublisherMocks struct {
	ctrl      *gomock.Controller
	nc        *mocks.MockNatsConn
	js        *mocks.MockJetStream
	publisher messaging.Publisher
}

func setupTestPublisher(t *testing.T) *testPublisherMocks {
	ctrl := gomock.NewController(t)

	tm := &testPublisherMocks{
		ctrl: ctrl,
		nc:   mocks.NewMockNatsConn(ctrl),
		js:   mocks.NewMockJetStream(ctrl),
	}

	tm.publisher = jetstream.NewPublisherWithJetStream(jetstream.Config{
		StreamMaxAge:    24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
	}, tm.nc, tm.js, adapter.NewJSON())

	return tm
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestPublisher_Publish_Valid(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	env := &domain.Envelope{
		NetworkID:   domain.Network("substrate"),
		BlockNumber: int64Ptr(100),
		EventData:   json.RawMessage(`{"kind":"new-block","number":100}`),
	}

	tm.js.EXPECT().
		Publish(gomock.Any(), "chainevents.substrate.new-block", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, subject string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			var got domain.Envelope
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, int64(100), *got.BlockNumber)
			assert.Len(t, opts, 1)
			return &natsjs.PubAck{Stream: domain.STREAM_CHAIN_EVENTS, Sequence: 1}, nil
		})

	require.NoError(t, tm.publisher.Publish(context.Background(), env))
}

func TestPublisher_Publish_InvalidGoesToDeadLetter(t *testing.T) {
	tests := []struct {
		name string
		env  *domain.Envelope
	}{
		{
			name: "missing event data",
			env: &domain.Envelope{
				NetworkID:   domain.NetworkEthereumMainnet,
				BlockNumber: int64Ptr(1),
			},
		},
		{
			name: "missing block number",
			env: &domain.Envelope{
				NetworkID: domain.NetworkEthereumMainnet,
				EventData: json.RawMessage(`{"a":1}`),
			},
		},
		{
			name: "negative block number",
			env: &domain.Envelope{
				NetworkID:   domain.NetworkEthereumMainnet,
				BlockNumber: int64Ptr(-3),
				EventData:   json.RawMessage(`{"a":1}`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestPublisher(t)
			defer tm.ctrl.Finish()

			// the primary subject is never touched
			tm.js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			tm.js.EXPECT().
				PublishMsg(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, msg *nats.Msg, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
					assert.Equal(t, "deadletter.eip155_1", msg.Subject)
					assert.NotEmpty(t, msg.Header.Get(domain.HEADER_DEAD_LETTER_REASON))
					assert.Equal(t, "eip155:1", msg.Header.Get(jetstream.HEADER_NETWORK))
					return &natsjs.PubAck{Stream: domain.STREAM_DEAD_LETTER}, nil
				})

			err := tm.publisher.Publish(context.Background(), tt.env)
			assert.True(t, domain.IsFormatError(err))
		})
	}
}

func TestPublisher_Publish_DeadLetterFailure(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.js.EXPECT().
		PublishMsg(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no responders"))

	err := tm.publisher.Publish(context.Background(), &domain.Envelope{NetworkID: "substrate"})
	assert.True(t, domain.IsFormatError(err))
	assert.ErrorIs(t, err, domain.ErrTransientBroker)
}

func TestPublisher_Publish_BrokerUnavailable(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.js.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nats.ErrNoResponders)

	err := tm.publisher.Publish(context.Background(), &domain.Envelope{
		NetworkID:   domain.NetworkTezosMainnet,
		Kind:        domain.KindBallotCast,
		BlockNumber: int64Ptr(5),
		EventData:   json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, domain.ErrTransientBroker)
	assert.False(t, domain.IsFormatError(err))
}

func TestPublisher_PublishEventType(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.js.EXPECT().
		Publish(gomock.Any(), "eventtypes.tezos_mainnet.ballot-cast", gomock.Any(), gomock.Any()).
		Return(&natsjs.PubAck{}, nil)

	err := tm.publisher.PublishEventType(context.Background(), domain.EventTypeDescriptor{
		ID:      3,
		Network: domain.NetworkTezosMainnet,
		Kind:    domain.KindBallotCast,
		Queued:  domain.QueuedNeverAttempted,
	})
	require.NoError(t, err)
}

func TestPublisher_PublishNotification(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.js.EXPECT().
		Publish(gomock.Any(), "notifications.9", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, subject string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			// the event id is the broker msg id, so a redelivered push is dropped within the window
			assert.Len(t, opts, 1)
			return &natsjs.PubAck{}, nil
		})

	err := tm.publisher.PublishNotification(context.Background(), &domain.NotificationMessage{
		EventID:     1,
		EventTypeID: 9,
		Recipients:  []string{"alice"},
	})
	require.NoError(t, err)
}

func TestPublisher_EnsureStreams(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	var names []string
	tm.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cfg natsjs.StreamConfig) error {
			names = append(names, cfg.Name)
			return nil
		}).
		Times(3)

	require.NoError(t, tm.publisher.EnsureStreams(context.Background()))
	assert.Equal(t, []string{domain.STREAM_CHAIN_EVENTS, domain.STREAM_DEAD_LETTER, domain.STREAM_NOTIFICATIONS}, names)

	configs := jetstream.StreamConfigs(jetstream.Config{DuplicateWindow: time.Minute})
	assert.Equal(t, time.Minute, configs[0].Duplicates)
	assert.Contains(t, configs[0].Subjects, "eventtypes.>")
	assert.Equal(t, time.Minute, configs[2].Duplicates)
}

func TestPublisher_Close(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.nc.EXPECT().Close()
	tm.publisher.Close()
}
