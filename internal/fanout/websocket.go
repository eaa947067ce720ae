package fanout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer
	maxFrameSize = 64 * 1024

	DEFAULT_SEND_BUFFER_SIZE = 64
	DEFAULT_SYNC_TIMEOUT     = 30 * time.Second
)

var errSendBufferFull = errors.New("send buffer full")

// TransportConfig holds the websocket transport settings
type TransportConfig struct {
	SendBufferSize int
	// SyncTimeout is how long a connection may stay unsynced before it is dropped
	SyncTimeout time.Duration
	// CheckOrigin validates the Origin header, nil accepts every origin
	CheckOrigin func(r *http.Request) bool
}

// Transport serves the fan-out protocol over websocket connections
type Transport struct {
	ns       Namespace
	cfg      TransportConfig
	clock    adapter.Clock
	upgrader websocket.Upgrader
}

// NewTransport creates a websocket transport for the namespace
func NewTransport(ns Namespace, cfg TransportConfig, clock adapter.Clock) *Transport {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = DEFAULT_SEND_BUFFER_SIZE
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = DEFAULT_SYNC_TIMEOUT
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &Transport{
		ns:    ns,
		cfg:   cfg,
		clock: clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve upgrades the request for an authenticated user and runs the connection until it closes
func (t *Transport) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCtx(r.Context(), "Failed to upgrade websocket connection", zap.Error(err))
		return
	}

	ctx := r.Context()
	peer := newWSPeer(uuid.NewString(), conn, t.cfg.SendBufferSize)

	// the writer is not running yet, so Connect only queues the sync frame
	if err := t.ns.Connect(ctx, userID, peer); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to register fan-out connection"), logger.UserID(userID))
		_ = conn.SetWriteDeadline(t.clock.Now().Add(writeWait))
		_ = conn.WriteJSON(Frame{Type: FrameError, Error: "failed to load subscriptions"})
		_ = conn.Close()
		return
	}
	defer t.ns.Disconnect(peer.ID())

	go peer.writePump(t.clock)
	go t.enforceSync(peer)

	t.readPump(ctx, userID, peer)
}

// enforceSync drops the connection when it does not acknowledge its subscriptions in time
func (t *Transport) enforceSync(peer *wsPeer) {
	select {
	case <-peer.done:
	case <-t.clock.After(t.cfg.SyncTimeout):
		if !t.ns.IsSynced(peer.ID()) {
			logger.Warn("Fan-out connection did not sync in time", logger.ConnectionID(peer.ID()))
			t.ns.Disconnect(peer.ID())
		}
	}
}

func (t *Transport) readPump(ctx context.Context, userID string, peer *wsPeer) {
	conn := peer.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(t.clock.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(t.clock.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCtx(ctx, "Websocket read error", zap.Error(err), logger.ConnectionID(peer.ID()))
			}
			return
		}

		if err := t.handleFrame(ctx, userID, peer, frame); err != nil {
			_ = peer.Send(Frame{Type: FrameError, Error: err.Error()})
		}
	}
}

func (t *Transport) handleFrame(ctx context.Context, userID string, peer *wsPeer, frame Frame) error {
	switch frame.Type {
	case FrameSyncAck:
		return t.ns.SyncAck(peer.ID())
	case FrameNewSubscriptions:
		return t.ns.NewSubscriptions(ctx, userID, frame.EventTypeIDs)
	case FrameDeleteSubscriptions:
		return t.ns.DeleteSubscriptions(ctx, userID, frame.EventTypeIDs)
	default:
		return fmt.Errorf("unsupported frame type %q", frame.Type)
	}
}

// wsPeer is a Peer over a websocket connection. Only writePump writes to the connection
type wsPeer struct {
	id        string
	conn      *websocket.Conn
	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newWSPeer(id string, conn *websocket.Conn, bufferSize int) *wsPeer {
	return &wsPeer{
		id:   id,
		conn: conn,
		send: make(chan Frame, bufferSize),
		done: make(chan struct{}),
	}
}

func (p *wsPeer) ID() string {
	return p.id
}

func (p *wsPeer) Send(frame Frame) error {
	select {
	case <-p.done:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case p.send <- frame:
		return nil
	case <-p.done:
		return domain.ErrConnectionClosed
	default:
		return errSendBufferFull
	}
}

func (p *wsPeer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (p *wsPeer) writePump(clock adapter.Clock) {
	ticker := clock.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case frame := <-p.send:
			_ = p.conn.SetWriteDeadline(clock.Now().Add(writeWait))
			if err := p.conn.WriteJSON(frame); err != nil {
				p.Close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(clock.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.Close()
				return
			}
		case <-p.done:
			_ = p.conn.SetWriteDeadline(clock.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
