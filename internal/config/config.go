// Package config builds a running datastore graph from a declarative YAML
// topology: a set of named leaf stores and one root composition over them.
// Every validation failure here is a configuration error and fatal at load
// time; nothing is retried.
//
// Example topology:
//
//	stores:
//	  cache:
//	    type: memory
//	  disk:
//	    type: leveldb
//	    path: /var/lib/datastore/disk
//	root:
//	  type: tiered
//	  tiers: [cache, disk]
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"datastore/internal/backend"
	"datastore/internal/consistenthash"
	"datastore/internal/store"
)

// Config is the parsed topology file.
type Config struct {
	Stores map[string]StoreConfig `yaml:"stores"`
	Root   CompositeConfig        `yaml:"root"`
}

// StoreConfig describes one named leaf store.
type StoreConfig struct {
	Type string `yaml:"type"`           // memory, null, leveldb, bolt, redis
	Path string `yaml:"path,omitempty"` // leveldb, bolt
	Addr string `yaml:"addr,omitempty"` // redis
}

// CompositeConfig describes the root of the store graph.
type CompositeConfig struct {
	Type   string   `yaml:"type"`             // store, tiered, sharded
	Store  string   `yaml:"store,omitempty"`  // type=store
	Tiers  []string `yaml:"tiers,omitempty"`  // type=tiered, fastest first
	Shards []string `yaml:"shards,omitempty"` // type=sharded, registration order
	Hash   string   `yaml:"hash,omitempty"`   // xxhash (default), crc32, ring
}

// Load reads and parses the topology file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse parses a topology document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

// Build constructs the store graph and returns its root together with a
// close function releasing every backend the build opened. On error any
// store already opened is closed before returning.
func (c *Config) Build() (store.Datastore, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var first error
		for _, fn := range closers {
			if err := fn(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	leaves := make(map[string]store.Datastore, len(c.Stores))
	for name, sc := range c.Stores {
		ds, closer, err := buildLeaf(name, sc)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		leaves[name] = ds
	}

	root, err := c.buildRoot(leaves)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return root, closeAll, nil
}

func buildLeaf(name string, sc StoreConfig) (store.Datastore, func() error, error) {
	switch sc.Type {
	case "memory":
		return store.NewMap(), nil, nil
	case "null":
		return store.NewNull(), nil, nil
	case "leveldb":
		if sc.Path == "" {
			return nil, nil, fmt.Errorf("config: store %q: leveldb requires a path", name)
		}
		ds, err := backend.NewLevelDB(sc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("config: store %q: %w", name, err)
		}
		return ds, ds.Close, nil
	case "bolt":
		if sc.Path == "" {
			return nil, nil, fmt.Errorf("config: store %q: bolt requires a path", name)
		}
		ds, err := backend.NewBolt(sc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("config: store %q: %w", name, err)
		}
		return ds, ds.Close, nil
	case "redis":
		if sc.Addr == "" {
			return nil, nil, fmt.Errorf("config: store %q: redis requires an addr", name)
		}
		pool := backend.NewRedisPool(sc.Addr)
		ds, err := backend.NewRedis(pool)
		if err != nil {
			return nil, nil, fmt.Errorf("config: store %q: %w", name, err)
		}
		return ds, pool.Close, nil
	case "":
		return nil, nil, fmt.Errorf("config: store %q: missing type", name)
	default:
		return nil, nil, fmt.Errorf("config: store %q: unknown type %q", name, sc.Type)
	}
}

func (c *Config) buildRoot(leaves map[string]store.Datastore) (store.Datastore, error) {
	resolve := func(names []string) ([]store.Datastore, error) {
		out := make([]store.Datastore, 0, len(names))
		for _, n := range names {
			ds, ok := leaves[n]
			if !ok {
				return nil, fmt.Errorf("config: root references unknown store %q", n)
			}
			out = append(out, ds)
		}
		return out, nil
	}

	switch c.Root.Type {
	case "store":
		ds, ok := leaves[c.Root.Store]
		if !ok {
			return nil, fmt.Errorf("config: root references unknown store %q", c.Root.Store)
		}
		return ds, nil

	case "tiered":
		tiers, err := resolve(c.Root.Tiers)
		if err != nil {
			return nil, err
		}
		return store.NewTiered(tiers...)

	case "sharded":
		shards, err := resolve(c.Root.Shards)
		if err != nil {
			return nil, err
		}
		fn, err := shardingFunc(c.Root.Hash, len(shards))
		if err != nil {
			return nil, err
		}
		return store.NewSharded(fn, shards...)

	case "":
		return nil, fmt.Errorf("config: root is missing a type")
	default:
		return nil, fmt.Errorf("config: unknown root type %q", c.Root.Type)
	}
}

func shardingFunc(name string, shardCount int) (store.ShardingFunc, error) {
	switch name {
	case "", "xxhash":
		return consistenthash.XXHash, nil
	case "crc32":
		return consistenthash.CRC32, nil
	case "ring":
		ring, err := consistenthash.NewRing(shardCount, 271, 20)
		if err != nil {
			return nil, err
		}
		return ring.Locate, nil
	default:
		return nil, fmt.Errorf("config: unknown sharding hash %q", name)
	}
}
