package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-finder/internal/config"
)

func TestOpen_SQLiteCreatesOneFilePerNamespace(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	cfg := config.CacheConfig{Driver: "sqlite", Dir: dir, TTL: time.Hour}

	town, err := Open(ctx, cfg, NamespaceTown)
	require.NoError(t, err)
	parcelles, err := Open(ctx, cfg, NamespaceParcelle)
	require.NoError(t, err)

	require.NoError(t, town.Put(ctx, "k", []byte("town")))
	require.NoError(t, parcelles.Put(ctx, "k", []byte("parcelles")))
	require.NoError(t, town.Close())
	require.NoError(t, parcelles.Close())

	_, err = os.Stat(filepath.Join(dir, "town.cache.db"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "parcelles.cache.db"))
	assert.NoError(t, err)

	// Reopen: values survive and do not leak across namespaces.
	town, err = Open(ctx, cfg, NamespaceTown)
	require.NoError(t, err)
	defer town.Close() //nolint:errcheck
	v, ok, err := town.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "town", string(v))
}

func TestOpen_SQLitePurgesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := NewSQLite(filepath.Join(dir, "parcelles.cache.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Set(ctx, "stale", []byte("old"), -time.Hour))
	require.NoError(t, st.Set(ctx, "fresh", []byte("new"), time.Hour))
	require.NoError(t, st.Close())

	c, err := Open(ctx, config.CacheConfig{Driver: "sqlite", Dir: dir}, NamespaceParcelle)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	sqlStore, ok := c.store.(*SQLiteStore)
	require.True(t, ok)
	var rows int
	require.NoError(t, sqlStore.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestOpen_Memory(t *testing.T) {
	c, err := Open(context.Background(), config.CacheConfig{Driver: "memory"}, NamespaceTown)
	require.NoError(t, err)
	assert.Nil(t, c.store)
	assert.NoError(t, c.Close())
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := Open(ctx, config.CacheConfig{Driver: "redis", RedisAddr: mr.Addr()}, NamespaceTown)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	require.NoError(t, c.Put(ctx, "Rennes", []byte("35238")))
	assert.True(t, mr.Exists("parcel-finder:town:Rennes"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.CacheConfig{Driver: "bolt"}, NamespaceTown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
