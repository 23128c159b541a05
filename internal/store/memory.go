package store

import (
	"context"
	"sync"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// MapDatastore is the in-memory reference store. Values are grouped into
// collections by their key's parent namespace, and each collection preserves
// insertion order so queries produce a deterministic sequence.
type MapDatastore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order  []key.Key
	values map[string][]byte
}

// NewMap creates an empty MapDatastore.
func NewMap() *MapDatastore {
	return &MapDatastore{collections: make(map[string]*collection)}
}

func (m *MapDatastore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[k.Path().String()]
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := col.values[k.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return stream.FromBytes(append([]byte(nil), v...)), nil
}

func (m *MapDatastore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	v, err := value.Collect()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns := k.Path().String()
	col, ok := m.collections[ns]
	if !ok {
		col = &collection{values: make(map[string][]byte)}
		m.collections[ns] = col
	}
	if _, exists := col.values[k.String()]; !exists {
		col.order = append(col.order, k)
	}
	col.values[k.String()] = v
	return nil
}

func (m *MapDatastore) Delete(ctx context.Context, k key.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := k.Path().String()
	col, ok := m.collections[ns]
	if !ok {
		return ErrNotFound
	}
	if _, exists := col.values[k.String()]; !exists {
		return ErrNotFound
	}
	delete(col.values, k.String())
	for i, existing := range col.order {
		if existing.Equal(k) {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	if len(col.values) == 0 {
		delete(m.collections, ns)
	}
	return nil
}

func (m *MapDatastore) Contains(ctx context.Context, k key.Key) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[k.Path().String()]
	if !ok {
		return false, nil
	}
	_, ok = col.values[k.String()]
	return ok, nil
}

// Query serves the collection named by q.Key in insertion order. The whole
// collection is snapshotted under the read lock, so the cursor is unaffected
// by later mutation.
func (m *MapDatastore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	m.mu.RLock()
	col, ok := m.collections[q.Key.String()]
	var snapshot []query.Entry
	if ok {
		snapshot = make([]query.Entry, 0, len(col.order))
		for _, k := range col.order {
			snapshot = append(snapshot, query.Entry{
				Key:   k,
				Value: append([]byte(nil), col.values[k.String()]...),
			})
		}
	}
	m.mu.RUnlock()

	return query.CursorFromEntries(q, snapshot), nil
}

// Len reports the total number of stored values across all collections.
func (m *MapDatastore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, col := range m.collections {
		n += len(col.values)
	}
	return n
}

// NullDatastore conforms to the contract but stores nothing. Useful as a
// wiring stand-in and in tests.
type NullDatastore struct{}

// NewNull creates a NullDatastore.
func NewNull() *NullDatastore {
	return &NullDatastore{}
}

func (n *NullDatastore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	return nil, ErrNotFound
}

func (n *NullDatastore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	return value.Close()
}

func (n *NullDatastore) Delete(ctx context.Context, k key.Key) error {
	return nil
}

func (n *NullDatastore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	return query.CursorFromEntries(q, nil), nil
}

func (n *NullDatastore) Contains(ctx context.Context, k key.Key) (bool, error) {
	return false, nil
}
