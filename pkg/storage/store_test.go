package storage_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/events"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func openSQLite(t *testing.T) database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.DriverSQLite, ":memory:", database.PoolConfig{}, getTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sqliteEngine() storage.Engine {
	return storage.EngineFunc(func(ctx context.Context) (database.DB, error) {
		return database.Open(ctx, database.DriverSQLite, ":memory:", database.PoolConfig{}, getTestLogger())
	})
}

func waitReady(t *testing.T, store *storage.Store, within time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	require.NoError(t, store.Gate().Wait(ctx), "gate did not open within %s", within)
}

func integrationRow(id string, created time.Time) storage.Row {
	return storage.Row{
		"id":            id,
		"name":          "Integration " + id,
		"type":          "facebook",
		"status":        "active",
		"configuration": map[string]any{"appId": "1"},
		"created_at":    created,
		"updated_at":    created,
	}
}

func TestStore_NativeUsesRelationalBackend(t *testing.T) {
	store := storage.New(storage.Options{
		Platform: storage.PlatformNative,
		Engine:   sqliteEngine(),
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	assert.False(t, store.Ready())
	assert.Equal(t, storage.ModeUnset, store.Mode())

	store.Start(context.Background())
	waitReady(t, store, 5*time.Second)

	assert.Equal(t, storage.ModeRelational, store.Mode())
}

func TestStore_FallsBackWhenEngineAbsent(t *testing.T) {
	for i := 0; i < 5; i++ {
		medium := kvs.NewMemoryStore()
		store := storage.New(storage.Options{
			Platform:     storage.PlatformNative,
			KVS:          medium,
			KeyPrefix:    "gestao:",
			ReadyTimeout: time.Second,
		}, nil, getTestLogger())

		store.Start(context.Background())
		waitReady(t, store, time.Second)
		assert.Equal(t, storage.ModeFallback, store.Mode())

		for _, c := range storage.Collections() {
			raw, err := medium.Get(context.Background(), "gestao:"+c.Name)
			require.NoError(t, err)
			assert.Equal(t, "[]", raw, "bucket %s is seeded empty", c.Name)
		}
		require.NoError(t, store.Close())
	}
}

func TestStore_SeedKeepsExistingBuckets(t *testing.T) {
	ctx := context.Background()
	medium := kvs.NewMemoryStore()
	require.NoError(t, medium.Set(ctx, "integrations", `[{"id":"i1","name":"kept","type":"api","status":"active","created_at":"2024-01-01T00:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z"}]`))

	store := storage.New(storage.Options{KVS: medium}, nil, getTestLogger())
	assert.Equal(t, storage.ModeFallback, store.Initialize(ctx))

	a, err := store.Adapter(ctx)
	require.NoError(t, err)
	rows, err := a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0]["name"])
}

func TestStore_WebWaitsForBridge(t *testing.T) {
	var polls atomic.Int32
	store := storage.New(storage.Options{
		Platform: storage.PlatformWeb,
		Engine:   sqliteEngine(),
		BridgeProbe: func(context.Context) bool {
			return polls.Add(1) >= 3
		},
		BridgePollInterval: 5 * time.Millisecond,
		BridgeTimeout:      2 * time.Second,
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	store.Start(context.Background())
	waitReady(t, store, 5*time.Second)

	assert.Equal(t, storage.ModeRelational, store.Mode())
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestStore_WebFallsBackWhenBridgeNeverRegisters(t *testing.T) {
	store := storage.New(storage.Options{
		Platform:           storage.PlatformWeb,
		Engine:             sqliteEngine(),
		BridgeProbe:        func(context.Context) bool { return false },
		BridgePollInterval: 5 * time.Millisecond,
		BridgeTimeout:      50 * time.Millisecond,
		ReadyTimeout:       time.Second,
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	start := time.Now()
	store.Start(context.Background())
	waitReady(t, store, time.Second)

	assert.Equal(t, storage.ModeFallback, store.Mode())
	assert.Less(t, time.Since(start), time.Second)
}

func TestStore_WebWithoutProbeFallsBack(t *testing.T) {
	store := storage.New(storage.Options{
		Platform: storage.PlatformWeb,
		Engine:   sqliteEngine(),
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, storage.ModeFallback, store.Initialize(context.Background()))
}

func TestStore_OpenFailureFallsBackAndServesWrites(t *testing.T) {
	ctx := context.Background()
	store := storage.New(storage.Options{
		Engine: storage.EngineFunc(func(context.Context) (database.DB, error) {
			return nil, errors.New("engine exploded")
		}),
		ReadyTimeout: time.Second,
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	store.Start(ctx)
	waitReady(t, store, time.Second)
	require.Equal(t, storage.ModeFallback, store.Mode())

	a, err := store.Adapter(ctx)
	require.NoError(t, err)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", created)))

	rows, err := a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "i1", rows[0]["id"])
}

func TestStore_SchemaFailureFallsBack(t *testing.T) {
	store := storage.New(storage.Options{
		Engine: sqliteEngine(),
		Schema: storage.SchemaFunc(func(context.Context, database.DB) error {
			return errors.New("ddl failed")
		}),
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, storage.ModeFallback, store.Initialize(context.Background()))
	assert.True(t, store.Ready())
}

func TestStore_ReadinessTimeoutForcesFallback(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var late database.DB

	store := storage.New(storage.Options{
		Engine: storage.EngineFunc(func(context.Context) (database.DB, error) {
			<-release
			db, err := database.Open(context.Background(), database.DriverSQLite, ":memory:", database.PoolConfig{}, getTestLogger())
			late = db
			return db, err
		}),
		ReadyTimeout: 50 * time.Millisecond,
	}, nil, getTestLogger())

	store.Start(ctx)

	start := time.Now()
	a, err := store.Adapter(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ModeFallback, a.Mode())
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, store.Ready())

	close(release)
	require.NoError(t, store.Close())

	require.NotNil(t, late)
	assert.Error(t, late.PingContext(ctx), "the late relational connection is closed")
}

func TestStore_AdapterHonoursContext(t *testing.T) {
	store := storage.New(storage.Options{ReadyTimeout: time.Minute}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := store.Adapter(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, store.Ready())
}

func TestStore_AdapterAfterClose(t *testing.T) {
	store := storage.New(storage.Options{}, nil, getTestLogger())
	store.Initialize(context.Background())
	require.NoError(t, store.Close())

	_, err := store.Adapter(context.Background())
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestStore_PublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus(getTestLogger())

	var changes []events.Change
	bus.Subscribe(func(c events.Change) { changes = append(changes, c) })

	store := storage.New(storage.Options{}, bus, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })
	store.Initialize(ctx)

	a, err := store.Adapter(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", time.Now())))
	_, err = a.Update(ctx, storage.Integrations, "i1", storage.Row{"status": "inactive"})
	require.NoError(t, err)
	require.NoError(t, a.Delete(ctx, storage.Integrations, "i1"))

	require.Len(t, changes, 4)
	assert.Equal(t, events.OperationActivate, changes[0].Operation)
	assert.Equal(t, string(storage.ModeFallback), changes[0].Backend)
	assert.Equal(t, events.OperationInsert, changes[1].Operation)
	assert.Equal(t, events.OperationUpdate, changes[2].Operation)
	assert.Equal(t, events.OperationDelete, changes[3].Operation)
	assert.Equal(t, "integrations", changes[3].Collection)
	assert.Equal(t, "i1", changes[3].ID)
}

type closeSpy struct {
	database.DB
	closed chan struct{}
}

func (c *closeSpy) Close() error {
	close(c.closed)
	return c.DB.Close()
}

func TestStore_LateRelationalSuccessIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	spy := &closeSpy{closed: make(chan struct{})}

	var activations atomic.Int32
	bus := events.NewBus(getTestLogger())
	bus.Subscribe(func(c events.Change) {
		if c.Operation == events.OperationActivate {
			activations.Add(1)
		}
	})

	store := storage.New(storage.Options{
		Engine: storage.EngineFunc(func(ctx context.Context) (database.DB, error) {
			<-release
			db, err := database.Open(ctx, database.DriverSQLite, ":memory:", database.PoolConfig{}, getTestLogger())
			if err != nil {
				return nil, err
			}
			spy.DB = db
			return spy, nil
		}),
		ReadyTimeout: 20 * time.Millisecond,
	}, bus, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	store.Start(context.Background())

	adapter, err := store.Adapter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ModeFallback, adapter.Mode())

	close(release)
	select {
	case <-spy.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("late relational connection was not closed")
	}

	assert.Equal(t, storage.ModeFallback, store.Mode())
	assert.Equal(t, int32(1), activations.Load())
}

func hungEngine() storage.Engine {
	return storage.EngineFunc(func(ctx context.Context) (database.DB, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func TestStore_StartForcesFallbackWithoutCallers(t *testing.T) {
	store := storage.New(storage.Options{
		Engine:       hungEngine(),
		ReadyTimeout: 50 * time.Millisecond,
	}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	store.Start(context.Background())

	// nothing calls Adapter, readiness comes from Start alone
	assert.Eventually(t, store.Ready, 500*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, storage.ModeFallback, store.Mode())
}

func TestStore_CloseStopsReadinessWatch(t *testing.T) {
	store := storage.New(storage.Options{
		Engine:       hungEngine(),
		ReadyTimeout: time.Minute,
	}, nil, getTestLogger())

	store.Start(context.Background())

	done := make(chan error, 1)
	go func() { done <- store.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on the readiness watch")
	}
	assert.Equal(t, storage.ModeUnset, store.Mode())
}
