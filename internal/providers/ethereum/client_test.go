package ethereum_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"testing"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/mocks"
	"github.com/feral-file/ff-chain-events/internal/providers/ethereum"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeSubscription is a controllable ethereum.Subscription
type fakeSubscription struct {
	errCh        chan error
	unsubscribed chan struct{}
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{
		errCh:        make(chan error, 1),
		unsubscribed: make(chan struct{}),
	}
}

func (s *fakeSubscription) Unsubscribe() {
	select {
	case <-s.unsubscribed:
	default:
		close(s.unsubscribed)
	}
}

func (s *fakeSubscription) Err() <-chan error {
	return s.errCh
}

// blockRange matches a filter query by its block window
type blockRange struct {
	from, to int64
}

func rangeMatcher(from, to int64) gomock.Matcher {
	return blockRange{from: from, to: to}
}

func (m blockRange) Matches(x interface{}) bool {
	q, ok := x.(geth.FilterQuery)
	return ok && q.FromBlock != nil && q.ToBlock != nil &&
		q.FromBlock.Int64() == m.from && q.ToBlock.Int64() == m.to
}

func (m blockRange) String() string {
	return fmt.Sprintf("filter query for blocks %d-%d", m.from, m.to)
}

func logAt(number uint64, index uint) types.Log {
	return types.Log{
		Address:     common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		BlockNumber: number,
		Index:       index,
		Topics:      []common.Hash{common.HexToHash("0x01")},
	}
}

func TestFilterLogsInRange_Windows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ethClient := mocks.NewMockEthClient(ctrl)
	client := ethereum.NewClient(ethClient, 10)

	ctx := context.Background()
	gomock.InOrder(
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(100, 109)).Return([]types.Log{logAt(101, 0)}, nil),
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(110, 119)).Return(nil, nil),
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(120, 125)).Return([]types.Log{logAt(125, 3)}, nil),
	)

	logs, err := client.FilterLogsInRange(ctx, geth.FilterQuery{}, 100, 125)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, uint64(101), logs[0].BlockNumber)
	assert.Equal(t, uint64(125), logs[1].BlockNumber)
}

func TestFilterLogsInRange_ShrinksWindowOnTooManyResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ethClient := mocks.NewMockEthClient(ctrl)
	client := ethereum.NewClient(ethClient, 10)

	ctx := context.Background()
	gomock.InOrder(
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(0, 9)).Return(nil, errors.New("query returned more than 10000 results")),
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(0, 4)).Return([]types.Log{logAt(3, 0)}, nil),
		ethClient.EXPECT().FilterLogs(ctx, rangeMatcher(5, 9)).Return([]types.Log{logAt(7, 0)}, nil),
	)

	logs, err := client.FilterLogsInRange(ctx, geth.FilterQuery{}, 0, 9)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestFilterLogsInRange_OtherErrorsFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ethClient := mocks.NewMockEthClient(ctrl)
	client := ethereum.NewClient(ethClient, 10)

	ethClient.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := client.FilterLogsInRange(context.Background(), geth.FilterQuery{}, 0, 9)
	assert.ErrorContains(t, err, "failed to filter logs for range 0-9")
}

func TestEthereumBlockFetcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ethClient := mocks.NewMockEthClient(ctrl)
	ethClient.EXPECT().BlockNumber(gomock.Any()).Return(uint64(19000000), nil)

	number, err := ethereum.NewEthereumBlockFetcher(ethClient).FetchLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(19000000), number)
}

func header(number int64) *types.Header {
	return &types.Header{Number: big.NewInt(number), Time: uint64(1700000000 + number)} //nolint:gosec,G115
}
