package ethereum_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/providers/ethereum"
)

// blockNumber matches a *big.Int argument by value
type blockNumber int64

func (m blockNumber) Matches(x interface{}) bool {
	n, ok := x.(*big.Int)
	return ok && n != nil && n.Int64() == int64(m)
}

func (m blockNumber) String() string {
	return fmt.Sprintf("block %d", int64(m))
}

type testSubscriberMocks struct {
	ctrl      *gomock.Controller
	ethClient *mocks.MockEthClient
	heads     *mocks.MockBlockHeadProvider
	clock     *mocks.MockClock
	store     *mocks.MockStore
}

func setupTestSubscriber(t *testing.T) *testSubscriberMocks {
	ctrl := gomock.NewController(t)

	tm := &testSubscriberMocks{
		ctrl:      ctrl,
		ethClient: mocks.NewMockEthClient(ctrl),
		heads:     mocks.NewMockBlockHeadProvider(ctrl),
		clock:     mocks.NewMockClock(ctrl),
		store:     mocks.NewMockStore(ctrl),
	}
	tm.clock.EXPECT().Now().Return(time.Unix(1700000000, 0)).AnyTimes()
	tm.heads.EXPECT().Observe(gomock.Any()).AnyTimes()

	return tm
}

var testConfig = ethereum.Config{ChainID: domain.NetworkEthereumMainnet}

func decodeBlockNumber(t *testing.T, raw domain.RawEvent) int64 {
	var b domain.RawBlock
	require.NoError(t, json.Unmarshal(raw.Payload, &b))
	require.NotNil(t, b.Number)
	return *b.Number
}

func TestHeaderSubscriber_CatchUpThenLive(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)
	fake := newFakeSubscription()

	tm.ethClient.EXPECT().
		SubscribeNewHead(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, ch chan<- *types.Header) (*fakeSubscription, error) {
			// 100 repeats the catch-up, 102 arrives after a gap
			ch <- header(100)
			ch <- header(102)
			return fake, nil
		})
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(100), nil)
	for _, n := range []int64{98, 99, 100, 101} {
		tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), blockNumber(n)).Return(header(n), nil)
	}

	var seen []int64
	err := sub.Subscribe(context.Background(), 98, func(raw domain.RawEvent) error {
		assert.Equal(t, domain.VariantBlockHeader, raw.Variant)
		assert.Equal(t, domain.NetworkEthereumMainnet, raw.Network)
		seen = append(seen, decodeBlockNumber(t, raw))
		if len(seen) == 5 {
			sub.Unsubscribe()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{98, 99, 100, 101, 102}, seen)
	<-fake.unsubscribed
}

func TestHeaderSubscriber_StreamError(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)
	fake := newFakeSubscription()
	fake.errCh <- errors.New("websocket: close 1006")

	tm.ethClient.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).Return(fake, nil)
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(99), nil)

	err := sub.Subscribe(context.Background(), 100, func(raw domain.RawEvent) error {
		t.Fatal("no event expected")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSubscriberDisconnect)
}

func TestHeaderSubscriber_HandlerErrorStopsStream(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)

	tm.ethClient.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).Return(newFakeSubscription(), nil)
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(10), nil)
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), blockNumber(10)).Return(header(10), nil)

	err := sub.Subscribe(context.Background(), 10, func(raw domain.RawEvent) error {
		return domain.ErrTransientBroker
	})
	assert.ErrorIs(t, err, domain.ErrTransientBroker)
}

func TestHeaderSubscriber_SubscribeFails(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)
	tm.ethClient.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial failed"))

	err := sub.Subscribe(context.Background(), 1, func(domain.RawEvent) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSubscriptionFailed)
}

func TestHeaderSubscriber_UnsubscribeIsIdempotent(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	var sub messaging.Subscriber = ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)

	// safe before Subscribe, and a stopped subscriber never attaches
	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.NoError(t, sub.Subscribe(context.Background(), 1, func(domain.RawEvent) error { return nil }))
}

func TestHeaderSubscriber_GetLatestBlock(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewHeaderSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.heads, tm.clock)
	tm.heads.EXPECT().GetLatestBlock(gomock.Any()).Return(int64(123), nil)

	latest, err := sub.GetLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123), latest)
}
