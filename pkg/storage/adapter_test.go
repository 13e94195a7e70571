package storage_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

func newRelational(t *testing.T) *storage.RelationalAdapter {
	t.Helper()
	db := openSQLite(t)
	require.NoError(t, storage.NewSchemaInitializer(getTestLogger()).Initialize(context.Background(), db))
	return storage.NewRelationalAdapter(db, getTestLogger())
}

func newKvs(t *testing.T) (*storage.KvsAdapter, kvs.Store) {
	t.Helper()
	medium := kvs.NewMemoryStore()
	a := storage.NewKvsAdapter(medium, "test:", getTestLogger())
	require.NoError(t, a.Seed(context.Background(), storage.Collections()...))
	return a, medium
}

func adapters(t *testing.T) map[string]storage.Adapter {
	kvsAdapter, _ := newKvs(t)
	return map[string]storage.Adapter{
		"relational": newRelational(t),
		"kvs":        kvsAdapter,
	}
}

func TestAdapters_InsertAndSelect(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("old", base)))
			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("new", base.Add(time.Hour))))
			mid := integrationRow("mid", base.Add(30*time.Minute))
			mid["type"] = "webhook"
			require.NoError(t, a.Insert(ctx, storage.Integrations, mid))

			rows, err := a.Select(ctx, storage.Integrations, nil)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "new", rows[0]["id"], "newest first")
			assert.Equal(t, "mid", rows[1]["id"])
			assert.Equal(t, "old", rows[2]["id"])

			rows, err = a.Select(ctx, storage.Integrations, storage.Criteria{"type": "webhook"})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "mid", rows[0]["id"])

			_, err = a.Select(ctx, storage.Integrations, storage.Criteria{"nope": 1})
			assert.ErrorIs(t, err, storage.ErrUnknownColumn)
		})
	}
}

func TestAdapters_RoundTripsValues(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 123000000, time.UTC)
	lastActivity := created.Add(-time.Hour)

	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, a.Insert(ctx, storage.SocialMediaPages, storage.Row{
				"id":             "pg1",
				"integration_id": "i1",
				"platform":       "instagram",
				"page_id":        "ext-1",
				"page_name":      "Loja",
				"is_connected":   true,
				"is_verified":    false,
				"followers":      1200,
				"posts":          int64(40),
				"engagement":     3.5,
				"last_activity":  &lastActivity,
				"created_at":     created,
				"updated_at":     created,
			}))

			row, err := a.Get(ctx, storage.SocialMediaPages, "pg1")
			require.NoError(t, err)

			assert.Equal(t, "instagram", row["platform"])
			assert.Equal(t, true, row["is_connected"])
			assert.Equal(t, false, row["is_verified"])
			assert.Equal(t, int64(1200), row["followers"])
			assert.Equal(t, int64(40), row["posts"])
			assert.Equal(t, 3.5, row["engagement"])
			assert.Equal(t, created, row["created_at"])
			assert.Equal(t, lastActivity, row["last_activity"])
			assert.NotContains(t, row, "username", "NULL columns are omitted")

			rows, err := a.Select(ctx, storage.SocialMediaPages, storage.Criteria{"is_connected": true})
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestAdapters_JSONColumns(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			require.NoError(t, a.Insert(ctx, storage.SocialMediaPosts, storage.Row{
				"id":           "p1",
				"page_id":      "pg1",
				"platform":     "facebook",
				"post_id":      "ext-p1",
				"type":         "post",
				"media_urls":   []string{"https://a/1.jpg", "https://a/2.jpg"},
				"hashtags":     []string{"#a"},
				"metrics":      map[string]any{"likes": 10, "reach": 100},
				"published_at": now,
				"is_active":    true,
				"created_at":   now,
				"updated_at":   now,
			}))

			row, err := a.Get(ctx, storage.SocialMediaPosts, "p1")
			require.NoError(t, err)

			raw, ok := row["media_urls"].(json.RawMessage)
			require.True(t, ok)
			var urls []string
			require.NoError(t, json.Unmarshal(raw, &urls))
			assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, urls)

			var m map[string]int
			require.NoError(t, json.Unmarshal(row["metrics"].(json.RawMessage), &m))
			assert.Equal(t, map[string]int{"likes": 10, "reach": 100}, m)

			_, err = a.Select(ctx, storage.SocialMediaPosts, storage.Criteria{"metrics": "x"})
			assert.Error(t, err, "JSON columns cannot be filtered")
		})
	}
}

func TestAdapters_Update(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", created)))

			updated := created.Add(time.Minute)
			matched, err := a.Update(ctx, storage.Integrations, "i1", storage.Row{
				"status":     "error",
				"metadata":   map[string]any{"reason": "token expired"},
				"updated_at": updated,
			})
			require.NoError(t, err)
			assert.True(t, matched)

			row, err := a.Get(ctx, storage.Integrations, "i1")
			require.NoError(t, err)
			assert.Equal(t, "error", row["status"])
			assert.Equal(t, "Integration i1", row["name"], "other fields are untouched")
			assert.Equal(t, updated, row["updated_at"])
			assert.Equal(t, created, row["created_at"])
			assert.JSONEq(t, `{"reason":"token expired"}`, string(row["metadata"].(json.RawMessage)))

			matched, err = a.Update(ctx, storage.Integrations, "missing", storage.Row{"status": "active"})
			require.NoError(t, err)
			assert.False(t, matched, "missing id is a silent no-op")

			matched, err = a.Update(ctx, storage.Integrations, "i1", storage.Row{})
			require.NoError(t, err)
			assert.False(t, matched)

			_, err = a.Update(ctx, storage.Integrations, "i1", storage.Row{"bogus": 1})
			assert.ErrorIs(t, err, storage.ErrUnknownColumn)
		})
	}
}

func TestAdapters_DuplicateKey(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("dup", time.Now())))

			err := a.Insert(ctx, storage.Integrations, integrationRow("dup", time.Now()))
			assert.ErrorIs(t, err, storage.ErrDuplicateKey)

			rows, err := a.Select(ctx, storage.Integrations, nil)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestAdapters_DeleteIsIdempotent(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", time.Now())))

			require.NoError(t, a.Delete(ctx, storage.Integrations, "missing"))
			rows, err := a.Select(ctx, storage.Integrations, nil)
			require.NoError(t, err)
			assert.Len(t, rows, 1)

			require.NoError(t, a.Delete(ctx, storage.Integrations, "i1"))
			require.NoError(t, a.Delete(ctx, storage.Integrations, "i1"))

			_, err = a.Get(ctx, storage.Integrations, "i1")
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestKvsAdapter_SkipsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	a, medium := newKvs(t)

	require.NoError(t, medium.Set(ctx, "test:integrations", `[
		{"id":"good","name":"ok","type":"api","status":"active","created_at":"2024-01-01T00:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z"},
		{"id":"bad","name":"broken","type":"api","status":"active","created_at":"yesterday","updated_at":"2024-01-01T00:00:00.000Z"},
		42
	]`))

	rows, err := a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "good", rows[0]["id"])

	_, err = a.Get(ctx, storage.Integrations, "bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKvsAdapter_MalformedBucketReadsEmpty(t *testing.T) {
	ctx := context.Background()
	a, medium := newKvs(t)
	require.NoError(t, medium.Set(ctx, "test:integrations", "{not an array"))

	rows, err := a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", time.Now())))
	rows, err = a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestKvsAdapter_StoresNativeJSON(t *testing.T) {
	ctx := context.Background()
	a, medium := newKvs(t)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("i1", created)))

	raw, err := medium.Get(ctx, a.Key(storage.Integrations))
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, map[string]any{"appId": "1"}, docs[0]["configuration"])
	assert.Equal(t, "2024-01-02T03:04:05.000Z", docs[0]["created_at"])
}

func TestRelationalAdapter_SkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	a := newRelational(t)

	require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("good", time.Now())))
	_, err := a.DB().ExecContext(ctx, `INSERT INTO integrations (id, name, type, status, configuration, created_at, updated_at)
		VALUES ('bad', 'broken', 'api', 'active', '{not json', '2024-01-01T00:00:00.000Z', '2024-01-01T00:00:00.000Z')`)
	require.NoError(t, err)

	rows, err := a.Select(ctx, storage.Integrations, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "good", rows[0]["id"])
}

func TestRelationalAdapter_StoresTextAndIntegers(t *testing.T) {
	ctx := context.Background()
	a := newRelational(t)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, a.Insert(ctx, storage.SocialMediaPages, storage.Row{
		"id": "pg1", "integration_id": "i1", "platform": "facebook", "page_id": "x", "page_name": "n",
		"is_connected": true, "created_at": created, "updated_at": created,
	}))

	var stored struct {
		CreatedAt   string `db:"created_at"`
		IsConnected int64  `db:"is_connected"`
	}
	db := sqlx.NewDb(a.DB().SQL(), a.DB().DriverName())
	require.NoError(t, db.GetContext(ctx, &stored, "SELECT created_at, is_connected FROM social_media_pages WHERE id = 'pg1'"))
	assert.Equal(t, "2024-01-02T03:04:05.000Z", stored.CreatedAt)
	assert.Equal(t, int64(1), stored.IsConnected)
}

func TestAdapters_SameTimestampOrdersByID(t *testing.T) {
	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"m", "z", "a"} {
				require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow(id, created)))
			}
			require.NoError(t, a.Insert(ctx, storage.Integrations, integrationRow("newest", created.Add(time.Millisecond))))

			rows, err := a.Select(ctx, storage.Integrations, nil)
			require.NoError(t, err)

			ids := make([]string, 0, len(rows))
			for _, row := range rows {
				ids = append(ids, row["id"].(string))
			}
			assert.Equal(t, []string{"newest", "a", "m", "z"}, ids)
		})
	}
}
