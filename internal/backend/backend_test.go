package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/store"
	"datastore/internal/stream"
)

// closableStore is what the embedded backends add over the plain contract.
type closableStore interface {
	store.Datastore
	Close() error
}

func openLevelDB(t *testing.T) closableStore {
	t.Helper()
	ds, err := NewLevelDB(filepath.Join(t.TempDir(), "leveldb"))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func openBolt(t *testing.T) closableStore {
	t.Helper()
	ds, err := NewBolt(filepath.Join(t.TempDir(), "bolt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func eachBackend(t *testing.T, run func(t *testing.T, ds closableStore)) {
	t.Run("leveldb", func(t *testing.T) { run(t, openLevelDB(t)) })
	t.Run("bolt", func(t *testing.T) { run(t, openBolt(t)) })
}

func TestBackendRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, ds closableStore) {
		ctx := context.Background()
		k := key.New("/users/alice")

		require.NoError(t, ds.Put(ctx, k, stream.FromBytes([]byte("engineer"))))

		s, err := ds.Get(ctx, k)
		require.NoError(t, err)
		v, err := s.Collect()
		require.NoError(t, err)
		assert.Equal(t, []byte("engineer"), v)

		ok, err := ds.Contains(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestBackendNotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, ds closableStore) {
		ctx := context.Background()
		k := key.New("/ghosts/nobody")

		_, err := ds.Get(ctx, k)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, ds.Delete(ctx, k), store.ErrNotFound)

		ok, err := ds.Contains(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBackendDelete(t *testing.T) {
	eachBackend(t, func(t *testing.T, ds closableStore) {
		ctx := context.Background()
		k := key.New("/users/bob")

		require.NoError(t, ds.Put(ctx, k, stream.FromBytes([]byte("x"))))
		require.NoError(t, ds.Delete(ctx, k))

		_, err := ds.Get(ctx, k)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, ds.Delete(ctx, k), store.ErrNotFound)
	})
}

func TestBackendQueryNamespace(t *testing.T) {
	eachBackend(t, func(t *testing.T, ds closableStore) {
		ctx := context.Background()
		ns := key.New("/items")

		for i := 0; i < 5; i++ {
			k := ns.Child(fmt.Sprintf("%03d", i))
			require.NoError(t, ds.Put(ctx, k, stream.FromBytes([]byte{byte('a' + i)})))
		}
		// Neither other namespaces nor deeper descendants belong to /items.
		require.NoError(t, ds.Put(ctx, key.New("/other/x"), stream.FromBytes([]byte("z"))))
		require.NoError(t, ds.Put(ctx, key.New("/items/sub/deep"), stream.FromBytes([]byte("d"))))

		cur, err := ds.Query(ctx, query.Query{Key: ns})
		require.NoError(t, err)
		got, err := cur.Rest()
		require.NoError(t, err)

		require.Len(t, got, 5)
		for i, e := range got {
			assert.Equal(t, fmt.Sprintf("/items/%03d", i), e.Key.String())
		}
	})
}

func TestBackendQueryWindow(t *testing.T) {
	eachBackend(t, func(t *testing.T, ds closableStore) {
		ctx := context.Background()
		ns := key.New("/items")
		for i := 0; i < 10; i++ {
			k := ns.Child(fmt.Sprintf("%03d", i))
			require.NoError(t, ds.Put(ctx, k, stream.FromBytes([]byte("v"))))
		}

		cur, err := ds.Query(ctx, query.Query{Key: ns, Offset: 3, Limit: 4})
		require.NoError(t, err)
		got, err := cur.Rest()
		require.NoError(t, err)

		require.Len(t, got, 4)
		assert.Equal(t, "/items/003", got[0].Key.String())
		assert.Equal(t, "/items/006", got[3].Key.String())
		assert.Equal(t, 3, cur.Skipped())
	})
}

func TestNewRedisRequiresPool(t *testing.T) {
	_, err := NewRedis(nil)
	assert.Error(t, err)
}

// TestRedisRoundTrip needs a reachable server; it skips otherwise.
func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := NewRedisPool("localhost:6379")
	conn, err := pool.GetContext(ctx)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	conn.Close()

	ds, err := NewRedis(pool)
	require.NoError(t, err)

	k := key.New("/test/redis-round-trip")
	defer ds.Delete(ctx, k)

	require.NoError(t, ds.Put(ctx, k, stream.FromBytes([]byte("v"))))

	s, err := ds.Get(ctx, k)
	require.NoError(t, err)
	v, err := s.Collect()
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, ds.Delete(ctx, k))
	_, err = ds.Get(ctx, k)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
