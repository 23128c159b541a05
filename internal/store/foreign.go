package store

import (
	"context"
	"errors"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// ForeignClient configures the adapter for an external key-value client
// that is not shaped like a Datastore — a redis or memcached client, say.
// The three operations are first-class function values, validated eagerly
// at construction rather than resolved per call. They are responsible for
// mapping their client's own not-found condition to ErrNotFound.
type ForeignClient struct {
	Get    func(ctx context.Context, k string) ([]byte, error)
	Put    func(ctx context.Context, k string, v []byte) error
	Delete func(ctx context.Context, k string) error

	// Key projects this layer's Key into the client's representation.
	// Defaults to the canonical string form.
	Key func(k key.Key) string
}

// ForeignDatastore exposes a ForeignClient as a Datastore. Queries are not
// supported; Contains falls back to the get-backed default.
type ForeignDatastore struct {
	client ForeignClient
}

// NewForeign validates the client configuration and wraps it. Any missing
// operation is a configuration error naming the gap.
func NewForeign(client ForeignClient) (*ForeignDatastore, error) {
	switch {
	case client.Get == nil:
		return nil, errors.New("foreign: client is missing a get operation")
	case client.Put == nil:
		return nil, errors.New("foreign: client is missing a put operation")
	case client.Delete == nil:
		return nil, errors.New("foreign: client is missing a delete operation")
	}
	if client.Key == nil {
		client.Key = func(k key.Key) string { return k.String() }
	}
	return &ForeignDatastore{client: client}, nil
}

func (f *ForeignDatastore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	v, err := f.client.Get(ctx, f.client.Key(k))
	if err != nil {
		return nil, err
	}
	return stream.FromBytes(v), nil
}

func (f *ForeignDatastore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	v, err := value.Collect()
	if err != nil {
		return err
	}
	return f.client.Put(ctx, f.client.Key(k), v)
}

func (f *ForeignDatastore) Delete(ctx context.Context, k key.Key) error {
	return f.client.Delete(ctx, f.client.Key(k))
}

func (f *ForeignDatastore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	return nil, ErrUnsupported
}

func (f *ForeignDatastore) Contains(ctx context.Context, k key.Key) (bool, error) {
	return GetBackedContains(ctx, f, k)
}
