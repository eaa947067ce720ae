package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/logger"
)

const DEFAULT_LOG_RANGE_SIZE = 2000

// EthereumClient is the subset of RPC operations the subscribers rely on
type EthereumClient interface {
	// SubscribeNewHead subscribes to new chain heads
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)

	// SubscribeFilterLogs subscribes to logs matching the query
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// HeaderByNumber returns a header by number, nil returns the latest header
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// FilterLogsInRange fetches logs for [fromBlock, toBlock] in bounded windows,
	// shrinking the window when the provider rejects a range as too large
	FilterLogsInRange(ctx context.Context, query ethereum.FilterQuery, fromBlock, toBlock int64) ([]types.Log, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	client    adapter.EthClient
	rangeSize int64
}

// NewClient wraps an RPC client. rangeSize bounds the block window of a single FilterLogs call
func NewClient(client adapter.EthClient, rangeSize int64) EthereumClient {
	if rangeSize <= 0 {
		rangeSize = DEFAULT_LOG_RANGE_SIZE
	}
	return &ethereumClient{client: client, rangeSize: rangeSize}
}

func (c *ethereumClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	return c.client.SubscribeNewHead(ctx, ch)
}

func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

func (c *ethereumClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.client.HeaderByNumber(ctx, number)
}

func (c *ethereumClient) FilterLogsInRange(ctx context.Context, query ethereum.FilterQuery, fromBlock, toBlock int64) ([]types.Log, error) {
	var allLogs []types.Log
	step := c.rangeSize
	current := fromBlock

	for current <= toBlock {
		end := current + step - 1
		if end > toBlock {
			end = toBlock
		}

		windowQuery := query
		windowQuery.FromBlock = big.NewInt(current)
		windowQuery.ToBlock = big.NewInt(end)

		logs, err := c.client.FilterLogs(ctx, windowQuery)
		if err == nil {
			allLogs = append(allLogs, logs...)
			current = end + 1
			continue
		}

		if !isTooManyResultsError(err) || step == 1 {
			return nil, fmt.Errorf("failed to filter logs for range %d-%d: %w", current, end, err)
		}

		step = max(step/2, 1)
		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Int64("newStepSize", step),
			zap.Int64("fromBlock", current),
			zap.Int64("toBlock", end))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the provider rejected a query for returning too much
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum") ||
		strings.Contains(errStr, "block range")
}

func (c *ethereumClient) Close() {
	c.client.Close()
}
