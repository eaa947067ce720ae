package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/block"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
)

const HEADER_BUFFER_SIZE = 128

// Config holds the configuration for Ethereum subscription
type Config struct {
	WebSocketURL string         // WebSocket URL (e.g., wss://mainnet.infura.io/ws/v3/YOUR_PROJECT_ID)
	ChainID      domain.Network // e.g., "eip155:1" for Ethereum mainnet
}

type headerSubscriber struct {
	messaging.Lifecycle

	client  EthereumClient
	heads   block.BlockHeadProvider
	network domain.Network
	clock   adapter.Clock
}

// NewHeaderSubscriber creates a subscriber that emits one block header event per block
func NewHeaderSubscriber(cfg Config, client EthereumClient, heads block.BlockHeadProvider, clock adapter.Clock) messaging.Subscriber {
	return &headerSubscriber{
		client:  client,
		heads:   heads,
		network: cfg.ChainID,
		clock:   clock,
	}
}

// Subscribe attaches the live head stream first, then catches up from fromBlock
// to the current head so that no block falls between the two
func (s *headerSubscriber) Subscribe(ctx context.Context, fromBlock int64, onEvent messaging.RawEventHandler) error {
	ctx, cancel, ok := s.Begin(ctx)
	if !ok {
		return nil
	}
	defer cancel()

	headers := make(chan *types.Header, HEADER_BUFFER_SIZE)
	sub, err := s.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe to new heads: %w", domain.ErrSubscriptionFailed, err)
	}
	defer func() {
		sub.Unsubscribe()
		logger.InfoCtx(ctx, "Unsubscribed from ethereum new heads", logger.Network(s.network.String()))
	}()

	latest, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to get latest header: %w", err)
	}

	last := fromBlock - 1
	if err := s.catchUp(ctx, last+1, latest.Number.Int64(), onEvent); err != nil {
		return err
	}
	if latest.Number.Int64() > last {
		last = latest.Number.Int64()
	}

	logger.InfoCtx(ctx, "Caught up, streaming live headers",
		logger.Network(s.network.String()),
		logger.Block(last))

	for {
		select {
		case <-ctx.Done():
			return s.ExitErr(ctx)
		case err := <-sub.Err():
			return fmt.Errorf("%w: %w", domain.ErrSubscriberDisconnect, err)
		case header := <-headers:
			number := header.Number.Int64()
			if number <= last {
				// already emitted during catch-up
				continue
			}
			if number > last+1 {
				if err := s.catchUp(ctx, last+1, number-1, onEvent); err != nil {
					return err
				}
			}
			if err := s.emit(header, onEvent); err != nil {
				return err
			}
			last = number
		}
	}
}

func (s *headerSubscriber) catchUp(ctx context.Context, from, to int64, onEvent messaging.RawEventHandler) error {
	if from > to {
		return nil
	}

	logger.InfoCtx(ctx, "Catching up block headers",
		logger.Network(s.network.String()),
		zap.Int64("from", from),
		zap.Int64("to", to))

	for number := from; number <= to; number++ {
		header, err := s.client.HeaderByNumber(ctx, big.NewInt(number))
		if err != nil {
			return fmt.Errorf("failed to get header %d: %w", number, err)
		}
		if err := s.emit(header, onEvent); err != nil {
			return err
		}
	}

	return nil
}

func (s *headerSubscriber) emit(header *types.Header, onEvent messaging.RawEventHandler) error {
	number := header.Number.Int64()
	payload, err := json.Marshal(domain.RawBlock{
		Number:     &number,
		Hash:       header.Hash().Hex(),
		ParentHash: header.ParentHash.Hex(),
		Timestamp:  header.Time,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal header %d: %w", number, err)
	}

	s.heads.Observe(number)

	return onEvent(domain.RawEvent{
		Network:    s.network,
		Variant:    domain.VariantBlockHeader,
		Payload:    payload,
		ReceivedAt: s.clock.Now().UTC(),
	})
}

func (s *headerSubscriber) Unsubscribe() {
	if s.Stop() {
		logger.Info("Ethereum header subscription stopped", logger.Network(s.network.String()))
	}
}

func (s *headerSubscriber) GetLatestBlock(ctx context.Context) (int64, error) {
	return s.heads.GetLatestBlock(ctx)
}
