package fanout

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/metrics"
	"github.com/feral-file/ff-chain-events/internal/store"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// Namespace holds the live connections and their room membership.
// A room is the set of connections subscribed to one event type. Membership is
// derived from the durable subscriptions and only changed by Connect, NewSubscriptions,
// DeleteSubscriptions and Disconnect. Membership is local to the instance: a
// subscription written through another instance is picked up here on reconnect
//
//go:generate mockgen -source=namespace.go -destination=../mocks/fanout_namespace.go -package=mocks -mock_names=Namespace=MockNamespace
type Namespace interface {
	// Connect registers an unsynced connection, joins it to the rooms of the user's
	// durable subscriptions and sends them in a NewSubscriptions frame
	Connect(ctx context.Context, userID string, peer Peer) error
	// SyncAck marks a connection synced. Notifications are only pushed to synced connections
	SyncAck(connID string) error
	// IsSynced reports whether a connection has acknowledged its subscriptions
	IsSynced(connID string) bool
	// NewSubscriptions persists the subscriptions, then joins every connection of the user to the rooms
	NewSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) error
	// DeleteSubscriptions removes the subscriptions, then removes every connection of the user from the rooms
	DeleteSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) error
	// Disconnect removes the connection from all rooms. Durable subscriptions are kept
	Disconnect(connID string)
	// DisconnectAll disconnects every connection, used on shutdown
	DisconnectAll()
	// Dispatch pushes a notification to the synced connections of its room and returns the push count
	Dispatch(msg *domain.NotificationMessage) int
	// Rooms returns a snapshot of the room membership: event type id to connection ids
	Rooms() map[uint64][]string
}

type connection struct {
	userID string
	peer   Peer
	synced bool
	rooms  map[uint64]struct{}
}

type namespace struct {
	store store.Store

	mu    sync.RWMutex
	conns map[string]*connection
	rooms map[uint64]map[string]struct{}

	// serializes durable writes and membership changes per user
	usersMu   sync.Mutex
	userLocks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// NewNamespace creates an empty fan-out namespace
func NewNamespace(st store.Store) Namespace {
	return &namespace{
		store:     st,
		conns:     make(map[string]*connection),
		rooms:     make(map[uint64]map[string]struct{}),
		userLocks: make(map[string]*userLock),
	}
}

func (n *namespace) lockUser(userID string) func() {
	n.usersMu.Lock()
	l, ok := n.userLocks[userID]
	if !ok {
		l = &userLock{}
		n.userLocks[userID] = l
	}
	l.refs++
	n.usersMu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		n.usersMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(n.userLocks, userID)
		}
		n.usersMu.Unlock()
	}
}

func (n *namespace) Connect(ctx context.Context, userID string, peer Peer) error {
	unlock := n.lockUser(userID)
	defer unlock()

	subscriptions, err := n.store.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	ids := make([]uint64, 0, len(subscriptions))
	for _, sub := range subscriptions {
		ids = append(ids, sub.EventTypeID)
	}

	n.mu.Lock()
	if _, exists := n.conns[peer.ID()]; exists {
		n.mu.Unlock()
		return fmt.Errorf("connection %s is already registered", peer.ID())
	}
	conn := &connection{
		userID: userID,
		peer:   peer,
		rooms:  make(map[uint64]struct{}, len(ids)),
	}
	n.conns[peer.ID()] = conn
	n.join(peer.ID(), conn, ids)
	n.mu.Unlock()

	metrics.FanoutConnections.Inc()
	logger.InfoCtx(ctx, "Fan-out connection registered",
		logger.UserID(userID),
		logger.ConnectionID(peer.ID()),
		zap.Int("subscriptions", len(ids)))

	if err := peer.Send(Frame{Type: FrameNewSubscriptions, EventTypeIDs: ids}); err != nil {
		n.Disconnect(peer.ID())
		return fmt.Errorf("failed to send subscriptions: %w", err)
	}
	return nil
}

func (n *namespace) SyncAck(connID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	conn, ok := n.conns[connID]
	if !ok {
		return domain.ErrConnectionClosed
	}
	conn.synced = true
	return nil
}

func (n *namespace) IsSynced(connID string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	conn, ok := n.conns[connID]
	return ok && conn.synced
}

func (n *namespace) NewSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) error {
	ids := uniqueIDs(eventTypeIDs)
	if len(ids) == 0 {
		return nil
	}

	unlock := n.lockUser(userID)
	defer unlock()

	known, err := n.store.GetEventTypesByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get event types: %w", err)
	}
	if len(known) != len(ids) {
		return fmt.Errorf("%w: %v", domain.ErrEventTypeNotFound, missingIDs(ids, known))
	}

	if _, err := n.store.CreateSubscriptions(ctx, userID, ids); err != nil {
		return err
	}

	peers := n.mutateUser(userID, func(connID string, conn *connection) {
		n.join(connID, conn, ids)
	})
	n.broadcast(peers, Frame{Type: FrameNewSubscriptions, EventTypeIDs: ids})

	logger.InfoCtx(ctx, "Subscriptions added", logger.UserID(userID), zap.Uint64s("event_type_ids", ids))
	return nil
}

func (n *namespace) DeleteSubscriptions(ctx context.Context, userID string, eventTypeIDs []uint64) error {
	ids := uniqueIDs(eventTypeIDs)
	if len(ids) == 0 {
		return nil
	}

	unlock := n.lockUser(userID)
	defer unlock()

	if _, err := n.store.DeleteSubscriptions(ctx, userID, ids); err != nil {
		return err
	}

	peers := n.mutateUser(userID, func(connID string, conn *connection) {
		n.leave(connID, conn, ids)
	})
	n.broadcast(peers, Frame{Type: FrameDeleteSubscriptions, EventTypeIDs: ids})

	logger.InfoCtx(ctx, "Subscriptions deleted", logger.UserID(userID), zap.Uint64s("event_type_ids", ids))
	return nil
}

func (n *namespace) Disconnect(connID string) {
	n.mu.Lock()
	conn, ok := n.conns[connID]
	if !ok {
		n.mu.Unlock()
		return
	}
	n.leave(connID, conn, conn.roomIDs())
	delete(n.conns, connID)
	n.mu.Unlock()

	conn.peer.Close()
	metrics.FanoutConnections.Dec()
	logger.Info("Fan-out connection removed", logger.UserID(conn.userID), logger.ConnectionID(connID))
}

func (n *namespace) DisconnectAll() {
	n.mu.RLock()
	ids := make([]string, 0, len(n.conns))
	for connID := range n.conns {
		ids = append(ids, connID)
	}
	n.mu.RUnlock()

	for _, connID := range ids {
		n.Disconnect(connID)
	}
}

func (n *namespace) Dispatch(msg *domain.NotificationMessage) int {
	recipients := make(map[string]struct{}, len(msg.Recipients))
	for _, userID := range msg.Recipients {
		recipients[userID] = struct{}{}
	}

	n.mu.RLock()
	var peers []Peer
	for connID := range n.rooms[msg.EventTypeID] {
		conn := n.conns[connID]
		if !conn.synced {
			continue
		}
		if len(recipients) > 0 {
			if _, ok := recipients[conn.userID]; !ok {
				continue
			}
		}
		peers = append(peers, conn.peer)
	}
	n.mu.RUnlock()

	pushed := 0
	frame := Frame{Type: FrameEventNotification, Notification: msg}
	for _, peer := range peers {
		if err := peer.Send(frame); err != nil {
			logger.Warn("Failed to push notification",
				zap.Error(err),
				logger.ConnectionID(peer.ID()),
				logger.EventID(msg.EventID))
			continue
		}
		pushed++
	}

	metrics.FanoutPushes.Add(float64(pushed))
	return pushed
}

func (n *namespace) Rooms() map[uint64][]string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	snapshot := make(map[uint64][]string, len(n.rooms))
	for id, members := range n.rooms {
		connIDs := make([]string, 0, len(members))
		for connID := range members {
			connIDs = append(connIDs, connID)
		}
		sort.Strings(connIDs)
		snapshot[id] = connIDs
	}
	return snapshot
}

// mutateUser applies fn to every connection of the user and returns their peers
func (n *namespace) mutateUser(userID string, fn func(connID string, conn *connection)) []Peer {
	n.mu.Lock()
	defer n.mu.Unlock()

	var peers []Peer
	for connID, conn := range n.conns {
		if conn.userID != userID {
			continue
		}
		fn(connID, conn)
		peers = append(peers, conn.peer)
	}
	return peers
}

func (n *namespace) broadcast(peers []Peer, frame Frame) {
	for _, peer := range peers {
		if err := peer.Send(frame); err != nil {
			logger.Warn("Failed to send subscription delta", zap.Error(err), logger.ConnectionID(peer.ID()))
		}
	}
}

// join and leave must be called with mu held
func (n *namespace) join(connID string, conn *connection, ids []uint64) {
	for _, id := range ids {
		members, ok := n.rooms[id]
		if !ok {
			members = make(map[string]struct{})
			n.rooms[id] = members
		}
		members[connID] = struct{}{}
		conn.rooms[id] = struct{}{}
	}
}

func (n *namespace) leave(connID string, conn *connection, ids []uint64) {
	for _, id := range ids {
		if members, ok := n.rooms[id]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(n.rooms, id)
			}
		}
		delete(conn.rooms, id)
	}
}

func (c *connection) roomIDs() []uint64 {
	ids := make([]uint64, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	return ids
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	unique := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}

func missingIDs(ids []uint64, known []schema.EventType) []uint64 {
	found := make(map[uint64]struct{}, len(known))
	for _, et := range known {
		found[et.ID] = struct{}{}
	}

	var missing []uint64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
