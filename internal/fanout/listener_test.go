package fanout_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/fanout"
	"github.com/feral-file/ff-chain-events/internal/mocks"
)

// ephemeralConsumer matches the per-instance notification consumer config
type ephemeralConsumer struct {
	inactiveThreshold time.Duration
}

func (m ephemeralConsumer) Matches(x interface{}) bool {
	cfg, ok := x.(jetstream.ConsumerConfig)
	return ok &&
		strings.HasPrefix(cfg.Name, "fanout-") &&
		cfg.Durable == "" &&
		cfg.DeliverPolicy == jetstream.DeliverNewPolicy &&
		cfg.AckPolicy == jetstream.AckNonePolicy &&
		cfg.FilterSubject == "notifications.>" &&
		cfg.InactiveThreshold == m.inactiveThreshold
}

func (m ephemeralConsumer) String() string {
	return fmt.Sprintf("ephemeral notification consumer with inactive threshold %s", m.inactiveThreshold)
}

// dispatched matches a notification by event id
type dispatched uint64

func (m dispatched) Matches(x interface{}) bool {
	msg, ok := x.(*domain.NotificationMessage)
	return ok && msg.EventID == uint64(m)
}

func (m dispatched) String() string {
	return fmt.Sprintf("notification for event %d", uint64(m))
}

func TestListener_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	js := mocks.NewMockJetStream(ctrl)
	ns := mocks.NewMockNamespace(ctrl)
	jsConsumer := mocks.NewMockConsumer(ctrl)
	consumeCtx := mocks.NewMockConsumeContext(ctrl)

	valid := mocks.NewMockJetStreamMessage(ctrl)
	valid.EXPECT().Data().Return([]byte(`{"event_id":42,"event_type_id":9,"network":"eip155:1","kind":"vote-cast","recipients":["alice"]}`))
	invalid := mocks.NewMockJetStreamMessage(ctrl)
	invalid.EXPECT().Data().Return([]byte(`not json`))
	invalid.EXPECT().Subject().Return("notifications.9")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var consumerName string
	js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), domain.STREAM_NOTIFICATIONS, ephemeralConsumer{inactiveThreshold: time.Minute}).
		DoAndReturn(func(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			consumerName = cfg.Name
			return jsConsumer, nil
		})
	jsConsumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, opts ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			handler(invalid)
			handler(valid)
			cancel()
			return consumeCtx, nil
		})
	ns.EXPECT().Dispatch(dispatched(42)).Return(1)
	consumeCtx.EXPECT().Stop()
	js.EXPECT().
		DeleteConsumer(gomock.Any(), domain.STREAM_NOTIFICATIONS, gomock.Any()).
		DoAndReturn(func(ctx context.Context, stream string, name string) error {
			assert.Equal(t, consumerName, name)
			assert.NoError(t, ctx.Err())
			return nil
		})

	listener := fanout.NewListener(fanout.ListenerConfig{InactiveThreshold: time.Minute}, js, ns, adapter.NewJSON())
	assert.ErrorIs(t, listener.Run(ctx), context.Canceled)
}

func TestListener_Run_CreateConsumerFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	js := mocks.NewMockJetStream(ctrl)
	js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), domain.STREAM_NOTIFICATIONS, ephemeralConsumer{inactiveThreshold: fanout.DEFAULT_INACTIVE_THRESHOLD}).
		Return(nil, errors.New("stream not found"))

	listener := fanout.NewListener(fanout.ListenerConfig{}, js, mocks.NewMockNamespace(ctrl), adapter.NewJSON())
	assert.ErrorContains(t, listener.Run(context.Background()), "failed to create notification consumer")
}
