package block_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-chain-events/internal/block"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/mocks"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testBlockHeadProviderMocks struct {
	ctrl     *gomock.Controller
	fetcher  *mocks.MockBlockFetcher
	clock    *mocks.MockClock
	provider block.BlockHeadProvider
}

func setupTest(t *testing.T) *testBlockHeadProviderMocks {
	ctrl := gomock.NewController(t)

	tm := &testBlockHeadProviderMocks{
		ctrl:    ctrl,
		fetcher: mocks.NewMockBlockFetcher(ctrl),
		clock:   mocks.NewMockClock(ctrl),
	}
	tm.provider = block.NewBlockHeadProvider(tm.fetcher, block.Config{
		TTL:         10 * time.Second,
		StaleWindow: 2 * time.Minute,
	}, tm.clock)

	return tm
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBlockHeadProvider_GetLatestBlock(t *testing.T) {
	tests := []struct {
		name        string
		secondAt    time.Duration
		secondFetch func(tm *testBlockHeadProviderMocks)
		expected    int64
		expectError bool
	}{
		{
			name:     "within ttl uses cache",
			secondAt: 5 * time.Second,
			expected: 1000,
		},
		{
			name:     "after ttl refetches",
			secondAt: 15 * time.Second,
			secondFetch: func(tm *testBlockHeadProviderMocks) {
				tm.fetcher.EXPECT().FetchLatestBlock(gomock.Any()).Return(int64(1100), nil)
			},
			expected: 1100,
		},
		{
			name:     "fetch failure within stale window serves stale head",
			secondAt: 30 * time.Second,
			secondFetch: func(tm *testBlockHeadProviderMocks) {
				tm.fetcher.EXPECT().FetchLatestBlock(gomock.Any()).Return(int64(0), errors.New("network error"))
			},
			expected: 1000,
		},
		{
			name:     "fetch failure beyond stale window",
			secondAt: 5 * time.Minute,
			secondFetch: func(tm *testBlockHeadProviderMocks) {
				tm.fetcher.EXPECT().FetchLatestBlock(gomock.Any()).Return(int64(0), errors.New("network error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTest(t)
			defer tm.ctrl.Finish()

			ctx := context.Background()

			gomock.InOrder(
				tm.clock.EXPECT().Now().Return(epoch),
				tm.clock.EXPECT().Now().Return(epoch.Add(tt.secondAt)),
			)
			tm.fetcher.EXPECT().FetchLatestBlock(gomock.Any()).Return(int64(1000), nil)

			first, err := tm.provider.GetLatestBlock(ctx)
			assert.NoError(t, err)
			assert.Equal(t, int64(1000), first)

			if tt.secondFetch != nil {
				tt.secondFetch(tm)
			}

			second, err := tm.provider.GetLatestBlock(ctx)
			if tt.expectError {
				assert.ErrorContains(t, err, "failed to fetch latest block and no valid cache available")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, second)
		})
	}
}

func TestBlockHeadProvider_NoCacheAndFetchFails(t *testing.T) {
	tm := setupTest(t)
	defer tm.ctrl.Finish()

	tm.clock.EXPECT().Now().Return(epoch)
	tm.fetcher.EXPECT().FetchLatestBlock(gomock.Any()).Return(int64(0), errors.New("network error"))

	number, err := tm.provider.GetLatestBlock(context.Background())
	assert.Error(t, err)
	assert.Zero(t, number)
}

func TestBlockHeadProvider_Observe(t *testing.T) {
	tm := setupTest(t)
	defer tm.ctrl.Finish()

	tm.clock.EXPECT().Now().Return(epoch).AnyTimes()

	tm.provider.Observe(500)
	// lower heads from a lagging stream never move the cache backwards
	tm.provider.Observe(499)

	number, err := tm.provider.GetLatestBlock(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(500), number)
}

func TestBlockHeadProvider_ConcurrentAccessSharesOneFetch(t *testing.T) {
	tm := setupTest(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.clock.EXPECT().Now().Return(epoch).AnyTimes()
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(int64(1000), nil).Times(1)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := tm.provider.GetLatestBlock(ctx)
			assert.NoError(t, err)
			assert.Equal(t, int64(1000), number)
		}()
	}
	wg.Wait()
}
