package ethereum

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/block"
)

type ethereumBlockFetcher struct {
	client adapter.EthClient
}

// NewEthereumBlockFetcher creates a block.BlockFetcher backed by eth_blockNumber
func NewEthereumBlockFetcher(client adapter.EthClient) block.BlockFetcher {
	return &ethereumBlockFetcher{client: client}
}

func (f *ethereumBlockFetcher) FetchLatestBlock(ctx context.Context) (int64, error) {
	number, err := f.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return int64(number), nil //nolint:gosec,G115
}
