package backend

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/store"
	"datastore/internal/stream"
)

// Bolt is a Bolt-backed datastore. Each key namespace maps to one bucket,
// keyed by the namespace's canonical string; entries within a bucket are
// keyed by the full canonical key and iterate in byte order.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) a Bolt database file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	var v []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(k.Path().Bytes())
		if bucket == nil {
			return store.ErrNotFound
		}
		raw := bucket.Get(k.Bytes())
		if raw == nil {
			return store.ErrNotFound
		}
		v = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stream.FromBytes(v), nil
}

func (b *Bolt) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	v, err := value.Collect()
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(k.Path().Bytes())
		if err != nil {
			return fmt.Errorf("bolt: bucket %s: %w", k.Path(), err)
		}
		return bucket.Put(k.Bytes(), v)
	})
}

func (b *Bolt) Delete(ctx context.Context, k key.Key) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(k.Path().Bytes())
		if bucket == nil || bucket.Get(k.Bytes()) == nil {
			return store.ErrNotFound
		}
		return bucket.Delete(k.Bytes())
	})
}

func (b *Bolt) Contains(ctx context.Context, k key.Key) (bool, error) {
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(k.Path().Bytes())
		if bucket != nil && bucket.Get(k.Bytes()) != nil {
			found = true
		}
		return nil
	})
	return found, err
}

func (b *Bolt) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	var entries []query.Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(q.Key.Bytes())
		if bucket == nil {
			return nil
		}
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			entries = append(entries, query.Entry{
				Key:   key.New(string(k)),
				Value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: query %s: %w", q.Key, err)
	}
	return query.CursorFromEntries(q, entries), nil
}

// Close releases the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
