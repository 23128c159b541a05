// Package store defines the datastore contract shared by every storage
// backend in this module, together with the composition types that combine
// child stores: the forwarding Adapter, the ordered Collection and its
// tiered (cache hierarchy) and sharded (hash partitioned) variants, and the
// adapter for foreign key-value clients.
//
// Stores compose freely: any child of a composite may itself be a composite.
// The composition layer holds no locks of its own; mutating a composite's
// member list while operations are in flight is allowed but not linearized
// against them, so callers needing that must synchronize externally.
package store

import (
	"context"
	"errors"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

var (
	// ErrNotFound is returned by Get and Delete when the key is absent.
	// Backends must keep it distinct from internal failures; no layer may
	// collapse a backing-store error into ErrNotFound.
	ErrNotFound = errors.New("key not found")

	// ErrUnsupported is returned by stores that cannot serve an operation,
	// such as Query on a plain remote key-value client.
	ErrUnsupported = errors.New("operation not supported")
)

// Datastore is the uniform contract over key-value storage. Implementations
// may be primitive backends or composites of other Datastores.
//
// Get hands back a single-pass stream; the caller must exhaust or close it,
// or the backing resource leaks. Put consumes the supplied stream.
type Datastore interface {
	Get(ctx context.Context, k key.Key) (*stream.Stream, error)
	Put(ctx context.Context, k key.Key, value *stream.Stream) error
	Delete(ctx context.Context, k key.Key) error
	Query(ctx context.Context, q query.Query) (*query.Cursor, error)
	Contains(ctx context.Context, k key.Key) (bool, error)
}

// GetBackedContains implements Contains in terms of Get, for stores without
// a cheaper existence check. ErrNotFound maps to false; any other error is
// surfaced unchanged. The probe stream is closed, never consumed.
func GetBackedContains(ctx context.Context, ds Datastore, k key.Key) (bool, error) {
	s, err := ds.Get(ctx, k)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, s.Close()
}
