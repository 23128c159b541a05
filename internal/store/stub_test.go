package store

import (
	"context"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// faultStore wraps a real store and fails selected operations on demand,
// counting calls either way.
type faultStore struct {
	Datastore

	failGet    error
	failPut    error
	failDelete error

	getCalls    int
	putCalls    int
	deleteCalls int
	queryCalls  int
}

func newFaultStore() *faultStore {
	return &faultStore{Datastore: NewMap()}
}

func (f *faultStore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	f.getCalls++
	if f.failGet != nil {
		return nil, f.failGet
	}
	return f.Datastore.Get(ctx, k)
}

func (f *faultStore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	f.putCalls++
	if f.failPut != nil {
		value.Close()
		return f.failPut
	}
	return f.Datastore.Put(ctx, k, value)
}

func (f *faultStore) Delete(ctx context.Context, k key.Key) error {
	f.deleteCalls++
	if f.failDelete != nil {
		return f.failDelete
	}
	return f.Datastore.Delete(ctx, k)
}

func (f *faultStore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	f.queryCalls++
	return f.Datastore.Query(ctx, q)
}

// putBytes and getBytes cut the stream plumbing out of test bodies.
func putBytes(ctx context.Context, ds Datastore, k key.Key, v []byte) error {
	return ds.Put(ctx, k, stream.FromBytes(v))
}

func getBytes(ctx context.Context, ds Datastore, k key.Key) ([]byte, error) {
	s, err := ds.Get(ctx, k)
	if err != nil {
		return nil, err
	}
	return s.Collect()
}
