// Package backend provides concrete leaf stores satisfying the datastore
// contract: embedded LevelDB and Bolt databases and a redis client bridged
// through the foreign-client adapter. Composites in internal/store treat
// these the same as any other child.
package backend

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/store"
	"datastore/internal/stream"
)

// LevelDB is a LevelDB-backed datastore. Keys are stored under their
// canonical string form, so iteration order is the canonical ordering.
type LevelDB struct {
	db   *leveldb.DB
	path string
}

// NewLevelDB opens (or creates) a LevelDB database at path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldb: open %s: %w", path, err)
	}
	return &LevelDB{db: db, path: path}, nil
}

func (l *LevelDB) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	v, err := l.db.Get(k.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb: get %s: %w", k, err)
	}
	return stream.FromBytes(v), nil
}

func (l *LevelDB) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	v, err := value.Collect()
	if err != nil {
		return err
	}
	if err := l.db.Put(k.Bytes(), v, nil); err != nil {
		return fmt.Errorf("leveldb: put %s: %w", k, err)
	}
	return nil
}

func (l *LevelDB) Delete(ctx context.Context, k key.Key) error {
	ok, err := l.db.Has(k.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("leveldb: delete %s: %w", k, err)
	}
	if !ok {
		return store.ErrNotFound
	}
	if err := l.db.Delete(k.Bytes(), nil); err != nil {
		return fmt.Errorf("leveldb: delete %s: %w", k, err)
	}
	return nil
}

func (l *LevelDB) Contains(ctx context.Context, k key.Key) (bool, error) {
	ok, err := l.db.Has(k.Bytes(), nil)
	if err != nil {
		return false, fmt.Errorf("leveldb: contains %s: %w", k, err)
	}
	return ok, nil
}

// Query scans the namespace prefix and serves the direct children of q.Key
// in canonical key order.
func (l *LevelDB) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	prefix := q.Key.String()
	if prefix != "/" {
		prefix += "/"
	}

	var entries []query.Entry
	iter := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		k := key.New(string(iter.Key()))
		if !k.Path().Equal(q.Key) {
			continue
		}
		entries = append(entries, query.Entry{
			Key:   k,
			Value: append([]byte(nil), iter.Value()...),
		})
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("leveldb: query %s: %w", q.Key, err)
	}

	return query.CursorFromEntries(q, entries), nil
}

// Close releases the underlying database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
