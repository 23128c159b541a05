package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// Adapter wraps exactly one child store and forwards every operation to it
// unchanged, preserving the child's success and error semantics. Embed it
// and override a subset of methods to layer behavior (encoding, metrics,
// validation) over any Datastore. Matching overrides — e.g. adapting Put
// when Get is adapted — are the embedder's responsibility.
type Adapter struct {
	Child Datastore
}

// NewAdapter wraps the child store. A nil child is a configuration error.
func NewAdapter(child Datastore) (*Adapter, error) {
	if child == nil {
		return nil, errors.New("adapter: child datastore is nil")
	}
	return &Adapter{Child: child}, nil
}

func (a *Adapter) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	return a.Child.Get(ctx, k)
}

func (a *Adapter) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	return a.Child.Put(ctx, k, value)
}

func (a *Adapter) Delete(ctx context.Context, k key.Key) error {
	return a.Child.Delete(ctx, k)
}

func (a *Adapter) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	return a.Child.Query(ctx, q)
}

func (a *Adapter) Contains(ctx context.Context, k key.Key) (bool, error) {
	return a.Child.Contains(ctx, k)
}

// LogAdapter logs every operation before forwarding it. It overrides all
// methods and exists mostly as the worked example of an Adapter subclass.
type LogAdapter struct {
	Adapter
	name string
	log  *logrus.Entry
}

// NewLogAdapter wraps the child store, tagging log lines with name.
func NewLogAdapter(name string, child Datastore) (*LogAdapter, error) {
	base, err := NewAdapter(child)
	if err != nil {
		return nil, err
	}
	return &LogAdapter{
		Adapter: *base,
		name:    name,
		log:     logrus.WithField("datastore", name),
	}, nil
}

func (l *LogAdapter) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	l.log.WithField("key", k.String()).Debug("get")
	return l.Child.Get(ctx, k)
}

func (l *LogAdapter) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	l.log.WithField("key", k.String()).Debug("put")
	return l.Child.Put(ctx, k, value)
}

func (l *LogAdapter) Delete(ctx context.Context, k key.Key) error {
	l.log.WithField("key", k.String()).Debug("delete")
	return l.Child.Delete(ctx, k)
}

func (l *LogAdapter) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	l.log.WithField("key", q.Key.String()).Debug("query")
	return l.Child.Query(ctx, q)
}

func (l *LogAdapter) Contains(ctx context.Context, k key.Key) (bool, error) {
	l.log.WithField("key", k.String()).Debug("contains")
	return l.Child.Contains(ctx, k)
}
