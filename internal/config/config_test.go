package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datastore/internal/key"
	"datastore/internal/store"
	"datastore/internal/stream"
)

func TestLoadTieredTopology(t *testing.T) {
	doc := `
stores:
  cache:
    type: memory
  main:
    type: memory
root:
  type: tiered
  tiers: [cache, main]
`
	path := filepath.Join(t.TempDir(), "topology.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	root, closeAll, err := cfg.Build()
	require.NoError(t, err)
	defer closeAll()

	_, ok := root.(*store.TieredDatastore)
	assert.True(t, ok, "root should be tiered, got %T", root)

	ctx := context.Background()
	k := key.New("/smoke/test")
	require.NoError(t, root.Put(ctx, k, stream.FromBytes([]byte("v"))))
	found, err := root.Contains(ctx, k)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestParseShardedTopology(t *testing.T) {
	for _, hash := range []string{"", "xxhash", "crc32", "ring"} {
		doc := `
stores:
  s0: {type: memory}
  s1: {type: memory}
  s2: {type: memory}
root:
  type: sharded
  shards: [s0, s1, s2]
`
		if hash != "" {
			doc += "  hash: " + hash + "\n"
		}
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err, "hash=%q", hash)

		root, closeAll, err := cfg.Build()
		require.NoError(t, err, "hash=%q", hash)
		defer closeAll()

		sd, ok := root.(*store.ShardedDatastore)
		require.True(t, ok, "hash=%q: got %T", hash, root)

		// Routing must be deterministic whatever the hash.
		k := key.New("/a/b")
		first, err := sd.Shard(k)
		require.NoError(t, err)
		again, err := sd.Shard(k)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildSingleStoreRoot(t *testing.T) {
	cfg, err := Parse([]byte(`
stores:
  only: {type: memory}
root:
  type: store
  store: only
`))
	require.NoError(t, err)

	root, closeAll, err := cfg.Build()
	require.NoError(t, err)
	defer closeAll()
	assert.IsType(t, &store.MapDatastore{}, root)
}

func TestBuildPersistentLeaves(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse([]byte(`
stores:
  fast: {type: memory}
  disk:
    type: leveldb
    path: ` + filepath.Join(dir, "ldb") + `
  meta:
    type: bolt
    path: ` + filepath.Join(dir, "meta.db") + `
root:
  type: tiered
  tiers: [fast, disk, meta]
`))
	require.NoError(t, err)

	root, closeAll, err := cfg.Build()
	require.NoError(t, err)

	ctx := context.Background()
	k := key.New("/persist/x")
	require.NoError(t, root.Put(ctx, k, stream.FromBytes([]byte("v"))))
	require.NoError(t, closeAll())
}

func TestConfigErrors(t *testing.T) {
	cases := map[string]string{
		"unknown leaf type": `
stores:
  bad: {type: carrier-pigeon}
root: {type: store, store: bad}
`,
		"missing leaf type": `
stores:
  bad: {}
root: {type: store, store: bad}
`,
		"unknown root reference": `
stores:
  a: {type: memory}
root: {type: tiered, tiers: [a, ghost]}
`,
		"missing root type": `
stores:
  a: {type: memory}
root: {store: a}
`,
		"unknown hash": `
stores:
  a: {type: memory}
root: {type: sharded, shards: [a], hash: md5}
`,
		"leveldb without path": `
stores:
  d: {type: leveldb}
root: {type: store, store: d}
`,
		"unknown yaml field": `
stores:
  a: {type: memory, flavor: vanilla}
root: {type: store, store: a}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(doc))
			if err != nil {
				return // rejected at parse time, also fine
			}
			_, _, err = cfg.Build()
			assert.Error(t, err)
		})
	}
}
