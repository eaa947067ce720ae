package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/block"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/store"
)

const LOG_BUFFER_SIZE = 256

type logSubscriber struct {
	messaging.Lifecycle

	client  EthereumClient
	store   store.Store
	heads   block.BlockHeadProvider
	network domain.Network
	clock   adapter.Clock

	mu        sync.RWMutex
	addresses map[common.Address]struct{}
	// reattach is signalled when the watched set changes while streaming
	reattach chan struct{}
}

// NewLogSubscriber creates a subscriber that streams contract logs emitted by a dynamic set of watched addresses
func NewLogSubscriber(cfg Config, client EthereumClient, st store.Store, heads block.BlockHeadProvider, clock adapter.Clock) messaging.AddressWatcher {
	return &logSubscriber{
		client:    client,
		store:     st,
		heads:     heads,
		network:   cfg.ChainID,
		clock:     clock,
		addresses: make(map[common.Address]struct{}),
		reattach:  make(chan struct{}, 1),
	}
}

// Subscribe loads the persisted watched set, then for every version of the set attaches
// the live log filter and catches up the blocks it has not emitted yet
func (s *logSubscriber) Subscribe(ctx context.Context, fromBlock int64, onEvent messaging.RawEventHandler) error {
	ctx, cancel, ok := s.Begin(ctx)
	if !ok {
		return nil
	}
	defer cancel()

	persisted, err := s.store.GetWatchedAddresses(ctx, s.network)
	if err != nil {
		return fmt.Errorf("failed to load watched addresses: %w", err)
	}
	s.mu.Lock()
	for _, address := range persisted {
		s.addresses[common.HexToAddress(address)] = struct{}{}
	}
	s.mu.Unlock()

	// additions made before subscribing are already part of the first filter
	select {
	case <-s.reattach:
	default:
	}

	next := fromBlock
	for {
		query := ethereum.FilterQuery{Addresses: s.watched()}
		if len(query.Addresses) == 0 {
			logger.InfoCtx(ctx, "No watched addresses, waiting for one", logger.Network(s.network.String()))
			select {
			case <-ctx.Done():
				return s.ExitErr(ctx)
			case <-s.reattach:
				continue
			}
		}

		resume, err := s.stream(ctx, query, next, onEvent)
		if err != nil {
			return err
		}
		if resume < 0 {
			return s.ExitErr(ctx)
		}
		next = resume
	}
}

// stream runs one live filter for query. It returns the block to catch up from
// when the watched set changed, or -1 when the context is done
func (s *logSubscriber) stream(ctx context.Context, query ethereum.FilterQuery, fromBlock int64, onEvent messaging.RawEventHandler) (int64, error) {
	logs := make(chan types.Log, LOG_BUFFER_SIZE)
	sub, err := s.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to subscribe to filter logs: %w", domain.ErrSubscriptionFailed, err)
	}
	defer sub.Unsubscribe()

	latest, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	head := latest.Number.Int64()

	last := fromBlock - 1
	if fromBlock <= head {
		logger.InfoCtx(ctx, "Catching up contract logs",
			logger.Network(s.network.String()),
			zap.Int64("from", fromBlock),
			zap.Int64("to", head),
			zap.Int("addresses", len(query.Addresses)))

		history, err := s.client.FilterLogsInRange(ctx, query, fromBlock, head)
		if err != nil {
			return 0, err
		}
		for _, vLog := range history {
			if err := s.emit(vLog, onEvent); err != nil {
				return 0, err
			}
		}
		last = head
	}

	for {
		select {
		case <-ctx.Done():
			return -1, nil
		case err := <-sub.Err():
			return 0, fmt.Errorf("%w: %w", domain.ErrSubscriberDisconnect, err)
		case <-s.reattach:
			logger.InfoCtx(ctx, "Watched addresses changed, re-attaching log filter", logger.Network(s.network.String()))
			// block last may be partially emitted: logs still buffered here and logs of newly
			// watched addresses are only recovered by catching it up again
			if last < fromBlock {
				return fromBlock, nil
			}
			return last, nil
		case vLog := <-logs:
			number := int64(vLog.BlockNumber) //nolint:gosec,G115
			if number <= head && !vLog.Removed {
				// covered by the catch-up
				continue
			}
			if err := s.emit(vLog, onEvent); err != nil {
				return 0, err
			}
			if number > last {
				last = number
			}
		}
	}
}

func (s *logSubscriber) emit(vLog types.Log, onEvent messaging.RawEventHandler) error {
	number := int64(vLog.BlockNumber) //nolint:gosec,G115
	topics := make([]string, 0, len(vLog.Topics))
	for _, topic := range vLog.Topics {
		topics = append(topics, topic.Hex())
	}

	payload, err := json.Marshal(domain.RawLog{
		Address:     strings.ToLower(vLog.Address.Hex()),
		Topics:      topics,
		Data:        "0x" + common.Bytes2Hex(vLog.Data),
		BlockNumber: &number,
		BlockHash:   vLog.BlockHash.Hex(),
		TxHash:      vLog.TxHash.Hex(),
		TxIndex:     vLog.TxIndex,
		LogIndex:    vLog.Index,
		Removed:     vLog.Removed,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal log %s/%d: %w", vLog.TxHash.Hex(), vLog.Index, err)
	}

	s.heads.Observe(number)

	return onEvent(domain.RawEvent{
		Network:    s.network,
		Variant:    domain.VariantContractLog,
		Payload:    payload,
		ReceivedAt: s.clock.Now().UTC(),
	})
}

// AddWatchedAddress persists the address and re-attaches the live filter.
// Adding an address already watched is a no-op. When persisting keeps failing
// after maxRetries attempts the address is dropped and the failure logged
func (s *logSubscriber) AddWatchedAddress(ctx context.Context, address string, retryDelay time.Duration, maxRetries uint64) error {
	if !common.IsHexAddress(address) {
		return domain.NewFormatError("address", fmt.Sprintf("%q is not a valid address", address))
	}
	addr := common.HexToAddress(address)

	s.mu.RLock()
	_, watched := s.addresses[addr]
	s.mu.RUnlock()
	if watched {
		return nil
	}

	attempts := 0
	operation := func() error {
		attempts++
		_, err := s.store.EnsureWatchedAddress(ctx, s.network, strings.ToLower(addr.Hex()))
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Failed to watch address, retrying",
			zap.Error(err),
			zap.String("address", addr.Hex()),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(retryDelay), maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Dropping watched address after retries"),
			zap.String("address", addr.Hex()),
			zap.Int("attempts", attempts))
		return nil
	}

	s.mu.Lock()
	s.addresses[addr] = struct{}{}
	s.mu.Unlock()

	select {
	case s.reattach <- struct{}{}:
	default:
	}

	logger.InfoCtx(ctx, "Watching address", logger.Network(s.network.String()), zap.String("address", addr.Hex()))
	return nil
}

// watched returns the watched set in a stable order
func (s *logSubscriber) watched() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addresses := make([]common.Address, 0, len(s.addresses))
	for addr := range s.addresses {
		addresses = append(addresses, addr)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Cmp(addresses[j]) < 0
	})
	return addresses
}

func (s *logSubscriber) Unsubscribe() {
	if s.Stop() {
		logger.Info("Ethereum log subscription stopped", logger.Network(s.network.String()))
	}
}

func (s *logSubscriber) GetLatestBlock(ctx context.Context) (int64, error) {
	return s.heads.GetLatestBlock(ctx)
}
