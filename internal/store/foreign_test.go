package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datastore/internal/key"
	"datastore/internal/query"
)

// fakeKV mimics a foreign key-value client with its own method shapes.
type fakeKV struct {
	data map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Fetch(_ context.Context, k string) ([]byte, error) {
	v, ok := f.data[k]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Store(_ context.Context, k string, v []byte) error {
	f.data[k] = v
	return nil
}

func (f *fakeKV) Drop(_ context.Context, k string) error {
	if _, ok := f.data[k]; !ok {
		return ErrNotFound
	}
	delete(f.data, k)
	return nil
}

func foreignOver(t *testing.T, kv *fakeKV) *ForeignDatastore {
	t.Helper()
	ds, err := NewForeign(ForeignClient{
		Get:    kv.Fetch,
		Put:    kv.Store,
		Delete: kv.Drop,
	})
	require.NoError(t, err)
	return ds
}

func TestForeignRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	ds := foreignOver(t, kv)
	k := key.New("/cache/session-1")

	require.NoError(t, putBytes(ctx, ds, k, []byte("payload")))

	// The projected string key reached the foreign client.
	assert.Contains(t, kv.data, "/cache/session-1")

	got, err := getBytes(ctx, ds, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	ok, err := ds.Contains(ctx, k)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, ds.Delete(ctx, k))
	_, err = ds.Get(ctx, k)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForeignKeyProjection(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	ds, err := NewForeign(ForeignClient{
		Get:    kv.Fetch,
		Put:    kv.Store,
		Delete: kv.Drop,
		Key:    func(k key.Key) string { return "app:" + k.Name() },
	})
	require.NoError(t, err)

	require.NoError(t, putBytes(ctx, ds, key.New("/sessions/abc"), []byte("v")))
	assert.Contains(t, kv.data, "app:abc")
}

func TestForeignMissingOperation(t *testing.T) {
	kv := newFakeKV()

	_, err := NewForeign(ForeignClient{Put: kv.Store, Delete: kv.Drop})
	assert.ErrorContains(t, err, "get")

	_, err = NewForeign(ForeignClient{Get: kv.Fetch, Delete: kv.Drop})
	assert.ErrorContains(t, err, "put")

	_, err = NewForeign(ForeignClient{Get: kv.Fetch, Put: kv.Store})
	assert.ErrorContains(t, err, "delete")
}

func TestForeignQueryUnsupported(t *testing.T) {
	ds := foreignOver(t, newFakeKV())
	_, err := ds.Query(context.Background(), query.Query{Key: key.New("/")})
	assert.ErrorIs(t, err, ErrUnsupported)
}
