package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals lets a test run InitCaching again.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseCaching()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestCaching(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")
		runsPath := filepath.Join(dir, "runs.db")

		require.NoError(t, InitCaching(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, runsPath))
		assert.NotNil(t, Manager.GetRatingStore())
		assert.NotNil(t, Manager.GetRunStore())

		CloseCaching()
		_, err := os.Stat(cachePath)
		assert.NoError(t, err, "cache database file should exist")
		_, err = os.Stat(runsPath)
		assert.NoError(t, err, "runs database file should exist")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		path := filepath.Join(t.TempDir(), "cache.db")

		// Multiple initializations should be safe (sync.Once)
		for range 3 {
			require.NoError(t, InitCaching(schema.SQLiteBackend, path, "", ""))
		}
		assert.NotNil(t, Manager.GetRatingStore())
		assert.Nil(t, Manager.GetRunStore())

		// Multiple closes should be safe too
		CloseCaching()
		CloseCaching()
	})

	t.Run("none backend operations", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitCaching(schema.NoneBackend, "", schema.NoneBackend, ""))

		store := Manager.GetRatingStore()
		require.NotNil(t, store)
		require.NoError(t, store.Set("key", []byte("12"), 1, time.Now().Unix()))
		_, _, _, err := store.Get("key")
		assert.ErrorIs(t, err, sql.ErrNoRows)

		runID, err := Manager.GetRunStore().BeginRun(time.Now(), "local", nil)
		require.NoError(t, err)
		assert.Zero(t, runID)
	})

	t.Run("bad connection fails", func(t *testing.T) {
		resetGlobals(t)
		err := InitCaching(schema.MySQLBackend, "invalid://connection", "", "")
		assert.Error(t, err)
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "rating_cache", false},
		{"leading underscore", "_cache", false},
		{"digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"hyphen", "rating-cache", true},
		{"injection", "cache; DROP TABLE users", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, `"rating_cache"`},
		{schema.MySQLBackend, "`rating_cache`"},
		{schema.PostgreSQLBackend, `"rating_cache"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.want, quoteTableName("rating_cache", tt.backend))
		})
	}
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = ?, b = ? WHERE id = ?"
	assert.Equal(t, query, rebind(query, schema.SQLiteBackend))
	assert.Equal(t, query, rebind(query, schema.MySQLBackend))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE id = $3", rebind(query, schema.PostgreSQLBackend))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key) DO UPDATE"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: ratingTable, backend: tt.backend}
			assert.Contains(t, store.getUpsertQuery(), tt.contains)
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery(ratingTable, schema.SQLiteBackend), "cache_value BLOB")
	assert.Contains(t, getCreateTableQuery(ratingTable, schema.MySQLBackend), "cache_key VARCHAR(255)")
	assert.Contains(t, getCreateTableQuery(ratingTable, schema.PostgreSQLBackend), "cache_value BYTEA")
}

func TestSQLiteBackendOperations(t *testing.T) {
	store, err := NewCacheStore(ratingTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("18"), 1, 1000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("18"), value)
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1000), ts)
	})

	t.Run("upsert", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("5"), 1, 1000))
		require.NoError(t, store.Set("k2", []byte("7"), 2, 2000))
		value, version, ts, err := store.Get("k2")
		require.NoError(t, err)
		assert.Equal(t, []byte("7"), value)
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), ts)
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("status", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})
}

func TestCacheStoreStatusEmptyAndNone(t *testing.T) {
	store, err := NewCacheStore(ratingTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalEntries)
	assert.True(t, status.LastEntryTime.IsZero())

	none, err := NewCacheStore(ratingTable, schema.NoneBackend, "")
	require.NoError(t, err)
	status, err = none.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, none.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore("", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)

	_, err = NewCacheStore(ratingTable, "oracle", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cache backend")

	_, err = NewCacheStore(ratingTable, schema.RedisBackend, "not a url")
	assert.Error(t, err)
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		store, err := NewCacheStore(ratingTable, schema.SQLiteBackend, path)
		require.NoError(t, err)
		require.NoError(t, store.Set("k", []byte("1"), 1, 1))
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, path, ""))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing sqlite file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("empty sqlite path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("oracle", "", ""))
		assert.Error(t, ClearRuns(schema.RedisBackend, "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitCaching(schema.SQLiteBackend, ":memory:", "", ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			store := Manager.GetRatingStore()
			if store == nil {
				t.Errorf("goroutine %d: GetRatingStore returned nil", i)
				return
			}
			if err := store.Set("concurrent_key", []byte("1"), 1, int64(1000+i)); err != nil {
				t.Errorf("goroutine %d: Set failed: %v", i, err)
			}
		})
	}
	wg.Wait()
}
