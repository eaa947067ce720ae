package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildTestEvent creates an upsert input for event data under an event type
func buildTestEvent(t *testing.T, eventTypeID uint64, block int64, data string, entityID *uint64) UpsertEventInput {
	t.Helper()

	hash, err := domain.HashEventData(json.RawMessage(data))
	require.NoError(t, err)

	return UpsertEventInput{
		EventTypeID:   eventTypeID,
		BlockNumber:   block,
		EventData:     json.RawMessage(data),
		EventDataHash: hash,
		EntityID:      entityID,
	}
}

// =============================================================================
// Test: Event types
// =============================================================================

func testEventTypes(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("ensure creates once", func(t *testing.T) {
		first, created, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "new-block")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, first.ID)
		assert.Equal(t, domain.QueuedNeverAttempted, first.Queued)

		second, created, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "new-block")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("same kind on different networks are distinct", func(t *testing.T) {
		a, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "vote-cast")
		require.NoError(t, err)
		b, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumSepolia, "vote-cast")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)

		list, err := store.ListEventTypes(ctx, domain.NetworkEthereumSepolia)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, b.ID, list[0].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		et, _, err := store.EnsureEventType(ctx, domain.NetworkTezosMainnet, "ballot-cast")
		require.NoError(t, err)

		got, err := store.GetEventTypeByID(ctx, et.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "ballot-cast", got.Kind)

		missing, err := store.GetEventTypeByID(ctx, et.ID+100000)
		require.NoError(t, err)
		assert.Nil(t, missing)

		found, err := store.GetEventTypesByIDs(ctx, []uint64{et.ID, et.ID + 100000})
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("republish bookkeeping", func(t *testing.T) {
		et, _, err := store.EnsureEventType(ctx, domain.NetworkTezosGhostnet, "proposal-submitted")
		require.NoError(t, err)

		pending, err := store.GetEventTypesForRepublish(ctx, 100)
		require.NoError(t, err)
		assert.Contains(t, eventTypeIDs(pending), et.ID)

		for want := 0; want <= domain.QueuedMaxRetries+1; want++ {
			queued, err := store.IncrementEventTypeQueued(ctx, et.ID)
			require.NoError(t, err)
			assert.Equal(t, want, queued)
		}

		// past the retry budget the descriptor is no longer selected
		pending, err = store.GetEventTypesForRepublish(ctx, 100)
		require.NoError(t, err)
		assert.NotContains(t, eventTypeIDs(pending), et.ID)

		other, _, err := store.EnsureEventType(ctx, domain.NetworkTezosGhostnet, "ballot-cast")
		require.NoError(t, err)
		require.NoError(t, store.MarkEventTypeDelivered(ctx, other.ID))

		got, err := store.GetEventTypeByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QueuedDelivered, got.Queued)

		pending, err = store.GetEventTypesForRepublish(ctx, 100)
		require.NoError(t, err)
		assert.NotContains(t, eventTypeIDs(pending), other.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := store.MarkEventTypeDelivered(ctx, 987654321)
		assert.ErrorIs(t, err, domain.ErrEventTypeNotFound)

		_, err = store.IncrementEventTypeQueued(ctx, 987654321)
		assert.ErrorIs(t, err, domain.ErrEventTypeNotFound)
	})
}

func eventTypeIDs(eventTypes []schema.EventType) []uint64 {
	ids := make([]uint64, 0, len(eventTypes))
	for _, et := range eventTypes {
		ids = append(ids, et.ID)
	}
	return ids
}

// =============================================================================
// Test: Entities
// =============================================================================

func testEntities(t *testing.T, store Store) {
	ctx := context.Background()

	first, err := store.FindOrCreateEntity(ctx, domain.NetworkEthereumMainnet, domain.EntityTypeProposal, "42")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := store.FindOrCreateEntity(ctx, domain.NetworkEthereumMainnet, domain.EntityTypeProposal, "42")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := store.FindOrCreateEntity(ctx, domain.NetworkTezosMainnet, domain.EntityTypeProposal, "42")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

// =============================================================================
// Test: Events
// =============================================================================

func testUpsertEvent(t *testing.T, store Store) {
	ctx := context.Background()

	et, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "contract-log")
	require.NoError(t, err)

	t.Run("redelivery does not duplicate", func(t *testing.T) {
		input := buildTestEvent(t, et.ID, 100, `{"a":1,"b":2}`, nil)

		first, err := store.UpsertEvent(ctx, input)
		require.NoError(t, err)
		assert.True(t, first.Inserted)

		// same data with a different key order
		again := buildTestEvent(t, et.ID, 100, `{"b":2,"a":1}`, nil)
		second, err := store.UpsertEvent(ctx, again)
		require.NoError(t, err)
		assert.False(t, second.Inserted)
		assert.Equal(t, first.ID, second.ID)

		count, err := store.CountEventsByKey(ctx, et.ID, 100, input.EventDataHash)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("entity id is filled in on a later delivery", func(t *testing.T) {
		entity, err := store.FindOrCreateEntity(ctx, domain.NetworkEthereumMainnet, domain.EntityTypeProposal, "7")
		require.NoError(t, err)

		first, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 101, `{"p":7}`, nil))
		require.NoError(t, err)
		assert.Nil(t, first.EntityID)

		second, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 101, `{"p":7}`, &entity.ID))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		require.NotNil(t, second.EntityID)
		assert.Equal(t, entity.ID, *second.EntityID)

		// an existing entity id is never overwritten
		otherEntity, err := store.FindOrCreateEntity(ctx, domain.NetworkEthereumMainnet, domain.EntityTypeProposal, "8")
		require.NoError(t, err)
		third, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 101, `{"p":7}`, &otherEntity.ID))
		require.NoError(t, err)
		assert.Equal(t, entity.ID, *third.EntityID)
	})

	t.Run("different block is a different event", func(t *testing.T) {
		a, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 200, `{"x":1}`, nil))
		require.NoError(t, err)
		b, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 201, `{"x":1}`, nil))
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
		assert.True(t, b.Inserted)
	})

	t.Run("get by id", func(t *testing.T) {
		res, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 300, `{"k":"v"}`, nil))
		require.NoError(t, err)

		event, err := store.GetEventByID(ctx, res.ID)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, int64(300), event.BlockNumber)
		assert.JSONEq(t, `{"k":"v"}`, string(event.EventData))
		assert.Equal(t, "contract-log", event.EventType.Kind)

		missing, err := store.GetEventByID(ctx, res.ID+100000)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("negative block is rejected", func(t *testing.T) {
		_, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, -1, `{}`, nil))
		assert.True(t, domain.IsFormatError(err))
	})
}

func testGetMaxBlockNumber(t *testing.T, store Store) {
	ctx := context.Background()

	_, found, err := store.GetMaxBlockNumber(ctx, domain.Network("substrate"))
	require.NoError(t, err)
	assert.False(t, found)

	et, _, err := store.EnsureEventType(ctx, domain.Network("substrate"), "new-block")
	require.NoError(t, err)
	for _, block := range []int64{5, 17, 9} {
		_, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, block, `{"kind":"new-block"}`, nil))
		require.NoError(t, err)
	}

	maxBlock, found, err := store.GetMaxBlockNumber(ctx, domain.Network("substrate"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(17), maxBlock)
}

// =============================================================================
// Test: Subscriptions and notifications
// =============================================================================

func testSubscriptions(t *testing.T, store Store) {
	ctx := context.Background()

	a, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "proposal-created")
	require.NoError(t, err)
	b, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "proposal-executed")
	require.NoError(t, err)

	subs, err := store.CreateSubscriptions(ctx, "user-1", []uint64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	// subscribing twice keeps the original rows
	again, err := store.CreateSubscriptions(ctx, "user-1", []uint64{a.ID})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, subs[0].ID, again[0].ID)

	byUser, err := store.ListSubscriptionsByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	_, err = store.CreateSubscriptions(ctx, "user-2", []uint64{a.ID})
	require.NoError(t, err)
	byType, err := store.ListSubscriptionsByEventType(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	removed, err := store.DeleteSubscriptions(ctx, "user-1", []uint64{b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = store.DeleteSubscriptions(ctx, "user-1", []uint64{b.ID})
	require.NoError(t, err)
	assert.Zero(t, removed)

	empty, err := store.CreateSubscriptions(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testNotifications(t *testing.T, store Store) {
	ctx := context.Background()

	et, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "vote-cast")
	require.NoError(t, err)
	_, err = store.CreateSubscriptions(ctx, "alice", []uint64{et.ID})
	require.NoError(t, err)
	_, err = store.CreateSubscriptions(ctx, "bob", []uint64{et.ID})
	require.NoError(t, err)

	event, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 10, `{"voter":"0xabc"}`, nil))
	require.NoError(t, err)

	created, err := store.CreateNotifications(ctx, event.ID, et.ID)
	require.NoError(t, err)
	require.Len(t, created, 2)
	users := []string{created[0].UserID, created[1].UserID}
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)

	// materializing again creates nothing
	created, err = store.CreateNotifications(ctx, event.ID, et.ID)
	require.NoError(t, err)
	assert.Empty(t, created)

	// a late subscriber only gets the missing row
	_, err = store.CreateSubscriptions(ctx, "carol", []uint64{et.ID})
	require.NoError(t, err)
	created, err = store.CreateNotifications(ctx, event.ID, et.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "carol", created[0].UserID)

	recipients, err := store.ListNotificationRecipients(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, recipients)

	other, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 11, `{"voter":"0xdef"}`, nil))
	require.NoError(t, err)
	recipients, err = store.ListNotificationRecipients(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, recipients)

	list, err := store.ListNotificationsByUser(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, event.ID, list[0].EventID)
	assert.Equal(t, "vote-cast", list[0].Kind)
	assert.Equal(t, domain.NetworkEthereumMainnet, list[0].Network)
	assert.JSONEq(t, `{"voter":"0xabc"}`, string(list[0].EventData))
}

// =============================================================================
// Test: Block cursor and watched addresses
// =============================================================================

func testBlockCursor(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing cursor is zero", func(t *testing.T) {
		cursor, err := store.GetBlockCursor(ctx, domain.Network("eip155:999"))
		require.NoError(t, err)
		assert.Zero(t, cursor)
	})

	t.Run("set and update", func(t *testing.T) {
		require.NoError(t, store.SetBlockCursor(ctx, domain.NetworkEthereumMainnet, 12345))
		cursor, err := store.GetBlockCursor(ctx, domain.NetworkEthereumMainnet)
		require.NoError(t, err)
		assert.Equal(t, int64(12345), cursor)

		require.NoError(t, store.SetBlockCursor(ctx, domain.NetworkEthereumMainnet, 12400))
		cursor, err = store.GetBlockCursor(ctx, domain.NetworkEthereumMainnet)
		require.NoError(t, err)
		assert.Equal(t, int64(12400), cursor)
	})

	t.Run("negative cursor is rejected", func(t *testing.T) {
		assert.Error(t, store.SetBlockCursor(ctx, domain.NetworkEthereumMainnet, -1))
	})
}

func testWatchedAddresses(t *testing.T, store Store) {
	ctx := context.Background()
	address := "0xAbCdEf0000000000000000000000000000000001"

	created, err := store.EnsureWatchedAddress(ctx, domain.NetworkEthereumMainnet, address)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureWatchedAddress(ctx, domain.NetworkEthereumMainnet, address)
	require.NoError(t, err)
	assert.False(t, created)

	addresses, err := store.GetWatchedAddresses(ctx, domain.NetworkEthereumMainnet)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabcdef0000000000000000000000000000000001"}, addresses)

	require.NoError(t, store.UnwatchAddress(ctx, domain.NetworkEthereumMainnet, address))
	addresses, err = store.GetWatchedAddresses(ctx, domain.NetworkEthereumMainnet)
	require.NoError(t, err)
	assert.Empty(t, addresses)

	// watching again after unwatching counts as new
	created, err = store.EnsureWatchedAddress(ctx, domain.NetworkEthereumMainnet, address)
	require.NoError(t, err)
	assert.True(t, created)
}

// RunStoreTests runs all store tests with the provided store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"EventTypes", testEventTypes},
		{"Entities", testEntities},
		{"UpsertEvent", testUpsertEvent},
		{"GetMaxBlockNumber", testGetMaxBlockNumber},
		{"Subscriptions", testSubscriptions},
		{"Notifications", testNotifications},
		{"BlockCursor", testBlockCursor},
		{"WatchedAddresses", testWatchedAddresses},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
