package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/logger"
)

// Head is a cached chain head
type Head struct {
	Number    int64
	FetchedAt time.Time
}

// BlockHeadProvider provides cached access to the latest block (or level) of a network.
// Live subscribers report the heads they see through Observe so the cache stays warm
// without extra RPC calls.
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=BlockHeadProvider=MockBlockHeadProvider
type BlockHeadProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (int64, error)

	// Observe records a head seen on a live stream. Lower numbers are ignored
	Observe(number int64)
}

// BlockFetcher fetches the latest block from the network
//
//go:generate mockgen -source=head.go -destination=../mocks/block_head_provider.go -package=mocks -mock_names=BlockFetcher=MockBlockFetcher
type BlockFetcher interface {
	FetchLatestBlock(ctx context.Context) (int64, error)
}

// Config holds configuration for the BlockHeadProvider
type Config struct {
	// TTL is how long a cached head is served without refetching
	TTL time.Duration

	// StaleWindow is how long a cached head may still be served when fetching fails
	StaleWindow time.Duration
}

type blockHeadProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	// fetchMu serializes refreshes so concurrent callers share one fetch
	fetchMu sync.Mutex
	mu      sync.RWMutex
	head    *Head
}

// NewBlockHeadProvider creates a new BlockHeadProvider with caching
func NewBlockHeadProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockHeadProvider {
	return &blockHeadProvider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
	}
}

func (p *blockHeadProvider) cached() *Head {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.head
}

func (p *blockHeadProvider) GetLatestBlock(ctx context.Context) (int64, error) {
	now := p.clock.Now()
	if head := p.cached(); head != nil && now.Sub(head.FetchedAt) < p.config.TTL {
		return head.Number, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	// another caller may have refreshed while we waited
	head := p.cached()
	if head != nil && now.Sub(head.FetchedAt) < p.config.TTL {
		return head.Number, nil
	}

	number, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if head != nil && now.Sub(head.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Serving stale block head", zap.Error(err), logger.Block(head.Number))
			return head.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.store(number, now)
	return number, nil
}

func (p *blockHeadProvider) Observe(number int64) {
	p.store(number, p.clock.Now())
}

func (p *blockHeadProvider) store(number int64, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.head != nil && number < p.head.Number {
		return
	}
	p.head = &Head{Number: number, FetchedAt: at}
}
