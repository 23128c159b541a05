package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	metrics "github.com/armon/go-metrics"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// ShardingFunc maps a key to an integer; the shard index is that integer
// modulo the shard count. It must be deterministic: for a fixed shard count
// the same key always lands on the same shard. Changing the shard count
// invalidates placement of existing data — a documented limitation.
type ShardingFunc func(k key.Key) uint64

// ShardedDatastore hash-partitions keys across its children. Single-key
// operations route to exactly one shard; queries stitch results across
// shards in registration order.
type ShardedDatastore struct {
	*Collection
	shardingFn ShardingFunc
}

// NewSharded builds a sharded store. A nil sharding function or an empty
// shard list is a configuration error.
func NewSharded(fn ShardingFunc, shards ...Datastore) (*ShardedDatastore, error) {
	if fn == nil {
		return nil, errors.New("sharded: sharding function is nil")
	}
	if len(shards) == 0 {
		return nil, errors.New("sharded: at least one shard is required")
	}
	c, err := NewCollection(shards...)
	if err != nil {
		return nil, fmt.Errorf("sharded: %w", err)
	}
	return &ShardedDatastore{Collection: c, shardingFn: fn}, nil
}

// Shard returns the shard index the key routes to.
func (s *ShardedDatastore) Shard(k key.Key) (int, error) {
	n := s.Len()
	if n == 0 {
		return 0, errors.New("sharded: no shards registered")
	}
	return int(s.shardingFn(k) % uint64(n)), nil
}

// ShardDatastore returns the child store the key routes to.
func (s *ShardedDatastore) ShardDatastore(k key.Key) (Datastore, error) {
	i, err := s.Shard(k)
	if err != nil {
		return nil, err
	}
	return s.DatastoreAt(i), nil
}

func (s *ShardedDatastore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	shard, err := s.ShardDatastore(k)
	if err != nil {
		return nil, err
	}
	return shard.Get(ctx, k)
}

func (s *ShardedDatastore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	shard, err := s.ShardDatastore(k)
	if err != nil {
		return err
	}
	return shard.Put(ctx, k, value)
}

func (s *ShardedDatastore) Delete(ctx context.Context, k key.Key) error {
	shard, err := s.ShardDatastore(k)
	if err != nil {
		return err
	}
	return shard.Delete(ctx, k)
}

func (s *ShardedDatastore) Contains(ctx context.Context, k key.Key) (bool, error) {
	shard, err := s.ShardDatastore(k)
	if err != nil {
		return false, err
	}
	return shard.Contains(ctx, k)
}

// Query stitches per-shard results into one cursor, visiting shards in
// registration order and treating that order as the result order. Offset
// and limit slice the concatenation of the shard streams exactly as they
// would a single stream, without materializing it: after each shard the
// running query's offset shrinks by that shard's skipped count and its
// limit by the returned count, and traversal stops as soon as the limit is
// spent, leaving later shards unqueried.
//
// No sort key spans shards here. If the query carries orders they are
// applied as an explicit reorder pass over the stitched results, which
// materializes the full result set — the documented expensive path.
func (s *ShardedDatastore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	it := &shardIterator{
		ctx:     ctx,
		shards:  s.snapshot(),
		running: q,
	}
	// The sub-cursors already applied filters, offset and limit; the
	// aggregate applies only the optional reorder.
	aggregate := query.Query{Key: q.Key, Orders: q.Orders}
	return query.NewCursor(aggregate, it.next), nil
}

// shardIterator carries the stitching state: the running query whose window
// mutates as shards are consumed, the current shard index, and the current
// shard's sub-cursor. Each next call performs one step of the traversal.
type shardIterator struct {
	ctx     context.Context
	shards  []Datastore
	running query.Query
	idx     int
	cur     *query.Cursor
	done    bool
}

func (it *shardIterator) next() (query.Entry, error) {
	if it.done {
		return query.Entry{}, io.EOF
	}
	for {
		if it.cur == nil {
			if it.idx >= len(it.shards) {
				it.done = true
				return query.Entry{}, io.EOF
			}
			cur, err := it.shards[it.idx].Query(it.ctx, it.running)
			if err != nil {
				it.done = true
				return query.Entry{}, fmt.Errorf("shard %d: %w", it.idx, err)
			}
			metrics.IncrCounter([]string{"sharded", "query", "shard"}, 1)
			it.cur = cur
		}

		e, err := it.cur.Next()
		if err == nil {
			return e, nil
		}
		if err != io.EOF {
			it.done = true
			return query.Entry{}, fmt.Errorf("shard %d: %w", it.idx, err)
		}

		// Shard drained: fold its consumption into the running window.
		it.running.Offset -= it.cur.Skipped()
		if it.running.Offset < 0 {
			it.running.Offset = 0
		}
		if it.running.Limit > 0 {
			it.running.Limit -= it.cur.Returned()
			if it.running.Limit <= 0 {
				// Window satisfied; skip the remaining shards.
				it.done = true
				return query.Entry{}, io.EOF
			}
		}
		it.cur = nil
		it.idx++
	}
}
