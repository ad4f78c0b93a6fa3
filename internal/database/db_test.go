package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "rebalancer.db"),
		Profile: ProfileLedger,
		Name:    "rebalancer",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNew_CreatesDirectoryAndMigrates(t *testing.T) {
	db := newTestDB(t)

	assert.Equal(t, "rebalancer", db.Name())
	assert.Equal(t, ProfileLedger, db.Profile())
	assert.True(t, filepath.IsAbs(db.Path()))

	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('portfolios', 'strategies')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Applying the schema twice is harmless
	require.NoError(t, db.Migrate())
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "other.db"), Name: "other"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString("/tmp/x.db", ProfileLedger)

	assert.Contains(t, connStr, "_txlock=immediate")
	assert.Contains(t, connStr, "busy_timeout(5000)")
	assert.Contains(t, connStr, "synchronous(FULL)")
	assert.NotContains(t, buildConnectionString("/tmp/x.db", ProfileStandard), "synchronous(FULL)")
}

func TestWithTransaction_Commit(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')")
		return err
	})
	require.NoError(t, err)

	var v string
	require.NoError(t, db.Conn().QueryRow("SELECT v FROM kv WHERE k = 'a'").Scan(&v))
	assert.Equal(t, "1", v)
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	sentinel := errors.New("validation failed")
	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')"); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)")
	require.NoError(t, err)

	err = WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO kv (k, v) VALUES ('a', '1')")
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM kv").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(context.Background(), nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestWithTransaction_ConcurrentWritersSerialize(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE counter (id INTEGER PRIMARY KEY, n INTEGER)")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO counter (id, n) VALUES (1, 0)")
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- WithTransaction(context.Background(), db.Conn(), func(tx *sql.Tx) error {
				var n int
				if err := tx.QueryRow("SELECT n FROM counter WHERE id = 1").Scan(&n); err != nil {
					return err
				}
				_, err := tx.Exec("UPDATE counter SET n = ? WHERE id = 1", n+1)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsBusy(err), "unexpected error: %v", err)
	}

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT n FROM counter WHERE id = 1").Scan(&n))
	assert.Equal(t, succeeded, n, "no lost updates")
}

func TestIsBusyAndUniqueViolation(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsBusy(errors.New("no such table")))

	db := newTestDB(t)
	_, err := db.Conn().Exec("CREATE TABLE u (k TEXT PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO u (k) VALUES ('x')")
	require.NoError(t, err)
	_, err = db.Conn().Exec("INSERT INTO u (k) VALUES ('x')")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(nil))
}

func TestHealthAndStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.QuickCheck(ctx))
	assert.NoError(t, db.WALCheckpoint(""))
	assert.Error(t, db.WALCheckpoint("DROP TABLE"))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestAmounts(t *testing.T) {
	const max = ^uint64(0)

	v, err := ParseAmount(FormatAmount(max))
	require.NoError(t, err)
	assert.Equal(t, max, v)

	_, err = ParseAmount("-1")
	assert.Error(t, err)

	assert.Equal(t, 1, BoolToInt(true))
	assert.Equal(t, 0, BoolToInt(false))
}
