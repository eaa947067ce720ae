package tezos

import (
	"context"

	"github.com/feral-file/ff-chain-events/internal/block"
)

type tezosBlockFetcher struct {
	client TzKTClient
}

// NewTezosBlockFetcher creates a block fetcher reading the level of the TzKT head
func NewTezosBlockFetcher(client TzKTClient) block.BlockFetcher {
	return &tezosBlockFetcher{client: client}
}

func (f *tezosBlockFetcher) FetchLatestBlock(ctx context.Context) (int64, error) {
	head, err := f.client.GetHead(ctx)
	if err != nil {
		return 0, err
	}
	return head.Level, nil
}
