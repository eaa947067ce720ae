package ethereum_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/providers/ethereum"
)

const (
	watchedA = "0x00000000000000000000000000000000000000aa"
	watchedB = "0x00000000000000000000000000000000000000bb"
)

// watching matches a filter query by its address set
type watching []string

func (m watching) Matches(x interface{}) bool {
	q, ok := x.(geth.FilterQuery)
	if !ok || len(q.Addresses) != len(m) {
		return false
	}
	for i, addr := range m {
		if q.Addresses[i] != common.HexToAddress(addr) {
			return false
		}
	}
	return true
}

func (m watching) String() string {
	return fmt.Sprintf("filter query watching %v", []string(m))
}

func decodeLog(t *testing.T, raw domain.RawEvent) domain.RawLog {
	var l domain.RawLog
	require.NoError(t, json.Unmarshal(raw.Payload, &l))
	return l
}

func TestLogSubscriber_CatchUpThenLive(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 1000), tm.store, tm.heads, tm.clock)
	fake := newFakeSubscription()

	tm.store.EXPECT().GetWatchedAddresses(gomock.Any(), domain.NetworkEthereumMainnet).Return([]string{watchedA}, nil)
	tm.ethClient.EXPECT().
		SubscribeFilterLogs(gomock.Any(), watching{watchedA}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, q geth.FilterQuery, ch chan<- types.Log) (*fakeSubscription, error) {
			ch <- logAt(104, 0) // already covered by the catch-up
			ch <- logAt(105, 1)
			return fake, nil
		})
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(104), nil)
	tm.ethClient.EXPECT().FilterLogs(gomock.Any(), rangeMatcher(100, 104)).Return([]types.Log{logAt(101, 0), logAt(104, 0)}, nil)

	var seen []int64
	err := sub.Subscribe(context.Background(), 100, func(raw domain.RawEvent) error {
		assert.Equal(t, domain.VariantContractLog, raw.Variant)
		l := decodeLog(t, raw)
		assert.Equal(t, watchedA, l.Address)
		seen = append(seen, *l.BlockNumber)
		if len(seen) == 3 {
			sub.Unsubscribe()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{101, 104, 105}, seen)
}

func TestLogSubscriber_AddWatchedAddressReattaches(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 1000), tm.store, tm.heads, tm.clock)

	tm.store.EXPECT().GetWatchedAddresses(gomock.Any(), domain.NetworkEthereumMainnet).Return(nil, nil)
	tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), domain.NetworkEthereumMainnet, watchedB).Return(true, nil)
	tm.ethClient.EXPECT().
		SubscribeFilterLogs(gomock.Any(), watching{watchedB}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, q geth.FilterQuery, ch chan<- types.Log) (*fakeSubscription, error) {
			l := logAt(100, 0)
			l.Address = common.HexToAddress(watchedB)
			ch <- l
			return newFakeSubscription(), nil
		})
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(99), nil)

	done := make(chan error, 1)
	var seen []string
	go func() {
		done <- sub.Subscribe(context.Background(), 100, func(raw domain.RawEvent) error {
			seen = append(seen, decodeLog(t, raw).Address)
			sub.Unsubscribe()
			return nil
		})
	}()

	// the subscriber idles with an empty watched set until an address is added
	require.NoError(t, sub.AddWatchedAddress(context.Background(), watchedB, time.Millisecond, 3))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not re-attach")
	}
	assert.Equal(t, []string{watchedB}, seen)
}

func TestLogSubscriber_ReattachCatchesUpPartialBlock(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 1000), tm.store, tm.heads, tm.clock)

	tm.store.EXPECT().GetWatchedAddresses(gomock.Any(), domain.NetworkEthereumMainnet).Return([]string{watchedA}, nil)
	tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), domain.NetworkEthereumMainnet, watchedB).Return(true, nil)

	// block 105 carries two logs; the address is added while the first one is handled,
	// so the second may still be buffered when the filter is re-attached
	tm.ethClient.EXPECT().
		SubscribeFilterLogs(gomock.Any(), watching{watchedA}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, q geth.FilterQuery, ch chan<- types.Log) (*fakeSubscription, error) {
			ch <- logAt(105, 0)
			ch <- logAt(105, 1)
			return newFakeSubscription(), nil
		})
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(104), nil)
	tm.ethClient.EXPECT().FilterLogs(gomock.Any(), rangeMatcher(100, 104)).Return(nil, nil)

	caughtUp := make(chan struct{})
	tm.ethClient.EXPECT().
		SubscribeFilterLogs(gomock.Any(), watching{watchedA, watchedB}, gomock.Any()).
		Return(newFakeSubscription(), nil)
	tm.ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(header(105), nil)
	tm.ethClient.EXPECT().
		FilterLogs(gomock.Any(), rangeMatcher(105, 105)).
		DoAndReturn(func(ctx context.Context, q geth.FilterQuery) ([]types.Log, error) {
			close(caughtUp)
			return []types.Log{logAt(105, 0), logAt(105, 1)}, nil
		})

	done := make(chan error, 1)
	var seen []string
	go func() {
		done <- sub.Subscribe(context.Background(), 100, func(raw domain.RawEvent) error {
			l := decodeLog(t, raw)
			seen = append(seen, fmt.Sprintf("%d/%d", *l.BlockNumber, l.LogIndex))
			if len(seen) == 1 {
				return sub.AddWatchedAddress(context.Background(), watchedB, time.Millisecond, 3)
			}
			select {
			case <-caughtUp:
				if l.LogIndex == 1 {
					sub.Unsubscribe()
				}
			default:
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("block 105 was not caught up after re-attaching")
	}
	assert.Equal(t, "105/0", seen[0])
	assert.Equal(t, "105/1", seen[len(seen)-1])
	assert.Contains(t, seen[1:], "105/0")
}

func TestLogSubscriber_AddWatchedAddress(t *testing.T) {
	t.Run("invalid address", func(t *testing.T) {
		tm := setupTestSubscriber(t)
		defer tm.ctrl.Finish()

		sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.store, tm.heads, tm.clock)
		err := sub.AddWatchedAddress(context.Background(), "not-an-address", time.Millisecond, 1)
		assert.True(t, domain.IsFormatError(err))
	})

	t.Run("already watched is a no-op", func(t *testing.T) {
		tm := setupTestSubscriber(t)
		defer tm.ctrl.Finish()

		sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.store, tm.heads, tm.clock)
		tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), domain.NetworkEthereumMainnet, watchedA).Return(true, nil).Times(1)

		ctx := context.Background()
		require.NoError(t, sub.AddWatchedAddress(ctx, watchedA, time.Millisecond, 1))
		// mixed case resolves to the same address
		require.NoError(t, sub.AddWatchedAddress(ctx, "0x00000000000000000000000000000000000000AA", time.Millisecond, 1))
	})

	t.Run("retries then drops", func(t *testing.T) {
		tm := setupTestSubscriber(t)
		defer tm.ctrl.Finish()

		sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.store, tm.heads, tm.clock)
		// one attempt plus two retries
		tm.store.EXPECT().
			EnsureWatchedAddress(gomock.Any(), domain.NetworkEthereumMainnet, watchedA).
			Return(false, errors.New("connection refused")).
			Times(3)

		ctx := context.Background()
		assert.NoError(t, sub.AddWatchedAddress(ctx, watchedA, time.Millisecond, 2))

		// the dropped address is not considered watched
		tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), domain.NetworkEthereumMainnet, watchedA).Return(true, nil)
		assert.NoError(t, sub.AddWatchedAddress(ctx, watchedA, time.Millisecond, 2))
	})

	t.Run("recovers within retries", func(t *testing.T) {
		tm := setupTestSubscriber(t)
		defer tm.ctrl.Finish()

		sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.store, tm.heads, tm.clock)
		gomock.InOrder(
			tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), gomock.Any(), watchedA).Return(false, errors.New("timeout")),
			tm.store.EXPECT().EnsureWatchedAddress(gomock.Any(), gomock.Any(), watchedA).Return(true, nil),
		)

		assert.NoError(t, sub.AddWatchedAddress(context.Background(), watchedA, time.Millisecond, 5))
	})
}

func TestLogSubscriber_LoadWatchedAddressesFails(t *testing.T) {
	tm := setupTestSubscriber(t)
	defer tm.ctrl.Finish()

	sub := ethereum.NewLogSubscriber(testConfig, ethereum.NewClient(tm.ethClient, 0), tm.store, tm.heads, tm.clock)
	tm.store.EXPECT().GetWatchedAddresses(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	err := sub.Subscribe(context.Background(), 1, func(domain.RawEvent) error { return nil })
	assert.ErrorContains(t, err, "failed to load watched addresses")
}
