package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Initialize the database schema
	err = initializeTestDatabase(testDB)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// initializeTestDatabase runs the schema initialization and optional seed data
func initializeTestDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Read and execute the schema initialization SQL
	schemaPath := filepath.Join("..", "..", "db", "init_pg_db.sql")
	schemaSQL, err := os.ReadFile(schemaPath) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	_, err = sqlDB.Exec(string(schemaSQL))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	// Read and execute the test seed data SQL if it exists
	seedPath := filepath.Join("..", "..", "db", "pg_test_data.sql")
	if _, err := os.Stat(seedPath); err == nil {
		seedSQL, err := os.ReadFile(seedPath) //nolint:gosec,G304
		if err != nil {
			return fmt.Errorf("failed to read seed file: %w", err)
		}

		_, err = sqlDB.Exec(string(seedSQL))
		if err != nil {
			return fmt.Errorf("failed to execute seed data: %w", err)
		}
	}

	return nil
}

// initPGTestDB returns a store bound to a transaction that is rolled back when the test ends
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

// cleanupPGTestDB is a no-op, the rollback registered by initPGTestDB restores the state
func cleanupPGTestDB(t *testing.T) {}

// cleanupNetwork deletes committed rows written under a network
func cleanupNetwork(t *testing.T, network domain.Network) {
	t.Cleanup(func() {
		testDB.Exec(`DELETE FROM notifications WHERE event_id IN (
			SELECT e.id FROM events e JOIN event_types et ON et.id = e.event_type_id WHERE et.network = ?)`, network)
		testDB.Exec(`DELETE FROM events WHERE event_type_id IN (SELECT id FROM event_types WHERE network = ?)`, network)
		testDB.Exec(`DELETE FROM subscriptions WHERE event_type_id IN (SELECT id FROM event_types WHERE network = ?)`, network)
		testDB.Exec(`DELETE FROM event_types WHERE network = ?`, network)
		testDB.Exec(`DELETE FROM entities WHERE network = ?`, network)
	})
}

// TestPostgreSQLStore runs all store tests against PostgreSQL
func TestPostgreSQLStore(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}

	RunStoreTests(t, initPGTestDB, cleanupPGTestDB)
}

// TestConcurrentUpsertEvent writes the same event from two connections at once, one of them
// knowing the entity. The writes are committed so both sessions contend on the uniqueness key
func TestConcurrentUpsertEvent(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}

	ctx := context.Background()
	network := domain.Network("concurrency:upsert")
	cleanupNetwork(t, network)

	store := NewPGStore(testDB)
	et, _, err := store.EnsureEventType(ctx, network, "proposal-created")
	require.NoError(t, err)
	entity, err := store.FindOrCreateEntity(ctx, network, "proposal", "7")
	require.NoError(t, err)

	data := `{"kind":"proposal-created","proposal_id":"7"}`
	inputs := []UpsertEventInput{
		buildTestEvent(t, et.ID, 1, data, nil),
		buildTestEvent(t, et.ID, 1, data, &entity.ID),
	}

	results := make([]*UpsertEventResult, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = NewPGStore(testDB).UpsertEvent(ctx, inputs[i])
		}(i)
	}
	close(start)
	wg.Wait()

	inserted := 0
	for i := range inputs {
		require.NoError(t, errs[i])
		if results[i].Inserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
	assert.Equal(t, results[0].ID, results[1].ID)

	count, err := store.CountEventsByKey(ctx, et.ID, 1, inputs[0].EventDataHash)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// whichever write lands first, the survivor keeps the entity
	event, err := store.GetEventByID(ctx, results[0].ID)
	require.NoError(t, err)
	require.NotNil(t, event)
	require.NotNil(t, event.EntityID)
	assert.Equal(t, entity.ID, *event.EntityID)
	require.NotNil(t, results[1].EntityID)
	assert.Equal(t, entity.ID, *results[1].EntityID)
}

// TestConcurrentCreateNotifications materializes one event from two connections at once
func TestConcurrentCreateNotifications(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}

	ctx := context.Background()
	network := domain.Network("concurrency:notify")
	cleanupNetwork(t, network)

	store := NewPGStore(testDB)
	et, _, err := store.EnsureEventType(ctx, network, "vote-cast")
	require.NoError(t, err)
	_, err = store.CreateSubscriptions(ctx, "concurrent-user", []uint64{et.ID})
	require.NoError(t, err)
	event, err := store.UpsertEvent(ctx, buildTestEvent(t, et.ID, 1, `{"v":1}`, nil))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := NewPGStore(testDB).CreateNotifications(ctx, event.ID, et.ID)
			assert.NoError(t, err)
			mu.Lock()
			created += len(rows)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

// TestRemoveDuplicateEvents loads legacy duplicates by lifting the uniqueness key inside a
// rolled-back transaction
func TestRemoveDuplicateEvents(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}

	ctx := context.Background()
	tx := testDB.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
	})

	require.NoError(t, tx.Exec(`ALTER TABLE events DROP CONSTRAINT idx_events_dedup_key`).Error)

	store := NewPGStore(tx)
	et, _, err := store.EnsureEventType(ctx, domain.NetworkEthereumMainnet, "proposal-created")
	require.NoError(t, err)
	entity, err := store.FindOrCreateEntity(ctx, domain.NetworkEthereumMainnet, domain.EntityTypeProposal, "1")
	require.NoError(t, err)
	_, err = store.CreateSubscriptions(ctx, "legacy-user", []uint64{et.ID})
	require.NoError(t, err)

	insert := func(entityID *uint64) uint64 {
		var id uint64
		err := tx.Raw(`INSERT INTO events (event_type_id, block_number, event_data, event_data_hash, entity_id)
			VALUES (?, 5, '{"proposal":"1"}', 'legacy', ?) RETURNING id`, et.ID, entityID).Scan(&id).Error
		require.NoError(t, err)
		return id
	}

	withoutEntity := insert(nil)
	withEntity := insert(&entity.ID)
	another := insert(nil)

	// only the discarded duplicate carries a notification
	_, err = store.CreateNotifications(ctx, withoutEntity, et.ID)
	require.NoError(t, err)

	deleted, err := store.RemoveDuplicateEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	kept, err := store.GetEventByID(ctx, withEntity)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, entity.ID, *kept.EntityID)

	for _, id := range []uint64{withoutEntity, another} {
		gone, err := store.GetEventByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, gone)
	}

	notifications, err := store.ListNotificationsByUser(ctx, "legacy-user", 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, withEntity, notifications[0].EventID)
}

func TestGetEventTypesForRepublish_QueuedRange(t *testing.T) {
	if testDB == nil {
		t.Fatal("Test database not initialized")
	}

	ctx := context.Background()
	tx := testDB.Begin()
	defer tx.Rollback()

	// start from an empty table so the selection only sees these rows
	require.NoError(t, tx.Exec(`DELETE FROM notifications`).Error)
	require.NoError(t, tx.Exec(`DELETE FROM events`).Error)
	require.NoError(t, tx.Exec(`DELETE FROM subscriptions`).Error)
	require.NoError(t, tx.Exec(`DELETE FROM event_types`).Error)

	store := NewPGStore(tx)
	byQueued := make(map[int]uint64)
	for _, queued := range []int{-1, 0, 2, 5, 6, 8} {
		et, _, err := store.EnsureEventType(ctx, domain.Network("republish:range"), fmt.Sprintf("kind-%d", queued))
		require.NoError(t, err)
		require.NoError(t, tx.Exec(`UPDATE event_types SET queued = ? WHERE id = ?`, queued, et.ID).Error)
		byQueued[queued] = et.ID
	}

	pending, err := store.GetEventTypesForRepublish(ctx, 100)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]uint64{byQueued[-1], byQueued[0], byQueued[2], byQueued[5]},
		eventTypeIDs(pending))
}
