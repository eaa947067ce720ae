package tezos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/philippseith/signalr"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/block"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
)

const (
	SUBSCRIBE_TIMEOUT         = 15 * time.Second
	DEFAULT_WORKER_POOL_SIZE  = 1
	DEFAULT_WORKER_QUEUE_SIZE = 2048
	MESSAGE_BUFFER_SIZE       = 64
)

// Config holds the configuration for the TzKT proposal subscription
type Config struct {
	WebSocketURL    string         // SignalR hub URL (e.g., https://api.tzkt.io/v1/ws)
	ChainID         domain.Network // e.g., "tezos:mainnet"
	WorkerPoolSize  int            // Concurrent message decoders, operations are still emitted in order
	WorkerQueueSize int            // Size of the task queue
	PageSize        int            // Catch-up page size
}

// MessageType - TzKT message type
type MessageType int

const (
	MessageTypeState MessageType = iota
	MessageTypeData
	MessageTypeReorg
)

// TzKTMessage wraps TzKT SignalR messages. State is the level the message refers to
type TzKTMessage struct {
	Type  MessageType     `json:"type"`
	State int64           `json:"state"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type tzSubscriber struct {
	messaging.Lifecycle

	cfg     Config
	signalR adapter.SignalR
	tzkt    TzKTClient
	heads   block.BlockHeadProvider
	clock   adapter.Clock

	mu       sync.Mutex
	runCtx   context.Context
	messages chan TzKTMessage
}

// NewSubscriber creates a subscriber streaming Tezos governance operations (proposals and ballots) from TzKT
func NewSubscriber(cfg Config, signalR adapter.SignalR, tzkt TzKTClient, heads block.BlockHeadProvider, clock adapter.Clock) messaging.Subscriber {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if cfg.WorkerQueueSize <= 0 {
		cfg.WorkerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DEFAULT_PAGE_SIZE
	}

	return &tzSubscriber{
		cfg:     cfg,
		signalR: signalR,
		tzkt:    tzkt,
		heads:   heads,
		clock:   clock,
	}
}

// Subscribe attaches the SignalR operation feed, catches up proposals and ballots from
// fromBlock over REST, then forwards live operations the catch-up has not covered
func (c *tzSubscriber) Subscribe(ctx context.Context, fromBlock int64, onEvent messaging.RawEventHandler) error {
	ctx, cancel, ok := c.Begin(ctx)
	if !ok {
		return nil
	}
	defer cancel()

	messages := make(chan TzKTMessage, MESSAGE_BUFFER_SIZE)
	c.mu.Lock()
	c.runCtx = ctx
	c.messages = messages
	c.mu.Unlock()

	client, err := c.signalR.NewClient(ctx, c.cfg.WebSocketURL, c)
	if err != nil {
		return fmt.Errorf("%w: failed to create SignalR client: %w", domain.ErrSubscriptionFailed, err)
	}
	client.Start()
	defer client.Stop()

	closed := client.WaitForState(ctx, signalr.ClientClosed)

	sendErr := client.Send("SubscribeToOperations", map[string]interface{}{
		"types": OperationProposal + "," + OperationBallot,
	})
	select {
	case err := <-sendErr:
		if err != nil {
			return fmt.Errorf("%w: failed to subscribe to operations: %w", domain.ErrSubscriptionFailed, err)
		}
	case <-c.clock.After(SUBSCRIBE_TIMEOUT):
		return fmt.Errorf("%w: timeout waiting for operations subscription", domain.ErrSubscriptionFailed)
	case <-ctx.Done():
		return c.ExitErr(ctx)
	}

	watermark, err := c.catchUp(ctx, fromBlock, onEvent)
	if err != nil {
		return err
	}

	// messages are decoded on the pool but their operations are emitted by a single
	// goroutine in arrival order, so onEvent never runs concurrently
	pool := pond.NewResultPool[[]Operation](c.cfg.WorkerPoolSize, pond.WithQueueSize(c.cfg.WorkerQueueSize), pond.WithContext(ctx))
	pending := make(chan pond.Result[[]Operation], c.cfg.WorkerQueueSize)

	emitCtx, stopEmit := context.WithCancel(ctx)
	emitErr := make(chan error, 1)
	emitExited := make(chan struct{})
	go func() {
		defer close(emitExited)
		if err := c.emitInOrder(emitCtx, pending, watermark, onEvent); err != nil {
			emitErr <- err
		}
	}()

	defer func() {
		stopEmit()
		<-emitExited
		pool.StopAndWait()
		logger.InfoCtx(ctx, "Tezos worker pool stopped",
			logger.Network(c.cfg.ChainID.String()),
			zap.Uint64("completed", pool.CompletedTasks()),
			zap.Uint64("failed", pool.FailedTasks()))
	}()

	for {
		select {
		case <-ctx.Done():
			return c.ExitErr(ctx)
		case err := <-emitErr:
			return err
		case err := <-closed:
			if ctx.Err() != nil {
				return c.ExitErr(ctx)
			}
			if err == nil {
				err = errors.New("connection closed")
			}
			return fmt.Errorf("%w: %w", domain.ErrSubscriberDisconnect, err)
		case msg := <-messages:
			task := pool.SubmitErr(func() ([]Operation, error) {
				return c.decode(ctx, msg), nil
			})
			select {
			case pending <- task:
			case err := <-emitErr:
				return err
			case <-ctx.Done():
				return c.ExitErr(ctx)
			}
		}
	}
}

// emitInOrder emits the operations of decoded messages in submission order.
// The first handler failure ends it
func (c *tzSubscriber) emitInOrder(ctx context.Context, pending <-chan pond.Result[[]Operation], watermark uint64, onEvent messaging.RawEventHandler) error {
	for {
		var task pond.Result[[]Operation]
		select {
		case <-ctx.Done():
			return nil
		case task = <-pending:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-task.Done():
		}
		ops, err := task.Wait()
		if err != nil {
			logger.WarnCtx(ctx, "Failed to decode operations message", zap.Error(err))
			continue
		}

		for _, op := range ops {
			if op.ID <= watermark {
				// already emitted during catch-up
				continue
			}
			if err := c.emit(op, onEvent); err != nil {
				return err
			}
		}
	}
}

// catchUp emits every proposal and ballot at or above fromLevel in id order.
// It returns the highest emitted operation id
func (c *tzSubscriber) catchUp(ctx context.Context, fromLevel int64, onEvent messaging.RawEventHandler) (uint64, error) {
	var ops []Operation
	for _, opType := range []string{OperationProposal, OperationBallot} {
		var afterID uint64
		for {
			page, err := c.tzkt.GetOperations(ctx, opType, fromLevel, afterID, c.cfg.PageSize)
			if err != nil {
				return 0, err
			}
			ops = append(ops, page...)
			if len(page) < c.cfg.PageSize {
				break
			}
			afterID = page[len(page)-1].ID
		}
	}

	// TzKT ids grow with the chain across operation types
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].ID < ops[j].ID
	})

	logger.InfoCtx(ctx, "Caught up governance operations",
		logger.Network(c.cfg.ChainID.String()),
		zap.Int64("from_level", fromLevel),
		zap.Int("operations", len(ops)))

	var watermark uint64
	for _, op := range ops {
		if err := c.emit(op, onEvent); err != nil {
			return 0, err
		}
		watermark = op.ID
	}
	return watermark, nil
}

// decode returns the operations carried by a data message, nil for any other message
func (c *tzSubscriber) decode(ctx context.Context, msg TzKTMessage) []Operation {
	switch msg.Type {
	case MessageTypeState:
		logger.DebugCtx(ctx, "Received operations state message", zap.Int64("state", msg.State))
		c.heads.Observe(msg.State)
		return nil
	case MessageTypeReorg:
		logger.WarnCtx(ctx, "TzKT reorg, operations above the state level were reverted",
			logger.Network(c.cfg.ChainID.String()),
			zap.Int64("state", msg.State))
		return nil
	case MessageTypeData:
	default:
		logger.WarnCtx(ctx, "Unknown operations message type", zap.Int("type", int(msg.Type)))
		return nil
	}

	if len(msg.Data) == 0 {
		return nil
	}

	var ops []Operation
	if err := json.Unmarshal(msg.Data, &ops); err != nil {
		logger.WarnCtx(ctx, "Failed to decode operations message", zap.Error(err))
		return nil
	}
	return ops
}

func (c *tzSubscriber) emit(op Operation, onEvent messaging.RawEventHandler) error {
	c.heads.Observe(op.Level)

	return onEvent(domain.RawEvent{
		Network:    c.cfg.ChainID,
		Variant:    domain.VariantProposalOperation,
		Payload:    op.Raw,
		ReceivedAt: c.clock.Now().UTC(),
	})
}

// Operations receives the "operations" SignalR target
func (c *tzSubscriber) Operations(data interface{}) {
	c.mu.Lock()
	ctx, messages := c.runCtx, c.messages
	c.mu.Unlock()
	if messages == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to marshal operations message", zap.Error(err))
		return
	}

	var msg TzKTMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.WarnCtx(ctx, "Failed to decode operations message", zap.Error(err))
		return
	}

	select {
	case messages <- msg:
	case <-ctx.Done():
	}
}

func (c *tzSubscriber) Unsubscribe() {
	if c.Stop() {
		logger.Info("TzKT subscription stopped", logger.Network(c.cfg.ChainID.String()))
	}
}

func (c *tzSubscriber) GetLatestBlock(ctx context.Context) (int64, error) {
	return c.heads.GetLatestBlock(ctx)
}
