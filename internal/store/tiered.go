package store

import (
	"context"
	"errors"
	"fmt"

	metrics "github.com/armon/go-metrics"
	"github.com/sirupsen/logrus"

	"datastore/internal/key"
	"datastore/internal/query"
	"datastore/internal/stream"
)

// TieredDatastore arranges its children as a cache hierarchy: fastest and
// least complete first, slowest and most complete last. Reads return the
// first hit and backfill the faster tiers; writes go through every tier.
// Maintaining the fast-to-complete ordering is the caller's job.
type TieredDatastore struct {
	*Collection
	log *logrus.Entry
}

// NewTiered builds a tiered store over the given tiers. At least one tier
// is required.
func NewTiered(tiers ...Datastore) (*TieredDatastore, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tiered: at least one tier is required")
	}
	c, err := NewCollection(tiers...)
	if err != nil {
		return nil, fmt.Errorf("tiered: %w", err)
	}
	return &TieredDatastore{
		Collection: c,
		log:        logrus.WithField("datastore", "tiered"),
	}, nil
}

// Get scans tiers in order and returns the first hit. The hit's stream is
// buffered once and replayed into every faster tier (promotion); a failed
// promotion never fails the read — it is logged and counted, nothing more.
// A non-NotFound error from any tier aborts the scan and is surfaced as-is.
func (t *TieredDatastore) Get(ctx context.Context, k key.Key) (*stream.Stream, error) {
	tiers := t.snapshot()

	hit := -1
	var value []byte
	for i, tier := range tiers {
		s, err := tier.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
		value, err = s.Collect()
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
		hit = i
		break
	}
	if hit < 0 {
		metrics.IncrCounter([]string{"tiered", "get", "miss"}, 1)
		return nil, ErrNotFound
	}
	metrics.IncrCounter([]string{"tiered", "get", "hit"}, 1)

	// Backfill stops at the tier instance that produced the hit, never at a
	// structurally equal sibling, hence the index bound.
	for i := 0; i < hit; i++ {
		if err := tiers[i].Put(ctx, k, stream.FromBytes(value)); err != nil {
			metrics.IncrCounter([]string{"tiered", "promote", "failure"}, 1)
			t.log.WithFields(logrus.Fields{
				"key":  k.String(),
				"tier": i,
			}).WithError(err).Warn("tier promotion failed")
		}
	}

	return stream.FromBytes(value), nil
}

// Put writes the value through every tier in order. The single-pass input
// stream is buffered first so each tier receives the full value. On a tier
// failure the write stops there and surfaces that tier's error; earlier
// tiers keep their writes — there is no rollback.
func (t *TieredDatastore) Put(ctx context.Context, k key.Key, value *stream.Stream) error {
	buf, err := value.Collect()
	if err != nil {
		return err
	}
	for i, tier := range t.snapshot() {
		if err := tier.Put(ctx, k, stream.FromBytes(buf)); err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
	}
	return nil
}

// Delete removes the key from every tier in order. Tiers that never held
// the key are fine; the aggregate fails with ErrNotFound only when no tier
// held it. Any other error stops the fan-out and is surfaced.
func (t *TieredDatastore) Delete(ctx context.Context, k key.Key) error {
	found := false
	for i, tier := range t.snapshot() {
		err := tier.Delete(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
		found = true
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Contains returns true at the first tier that reports the key, with no
// promotion side effect.
func (t *TieredDatastore) Contains(ctx context.Context, k key.Key) (bool, error) {
	for i, tier := range t.snapshot() {
		ok, err := tier.Contains(ctx, k)
		if err != nil {
			return false, fmt.Errorf("tier %d: %w", i, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Query delegates to the last, most complete tier. There is no fan-out and
// no merging across tiers.
func (t *TieredDatastore) Query(ctx context.Context, q query.Query) (*query.Cursor, error) {
	tiers := t.snapshot()
	if len(tiers) == 0 {
		return nil, errors.New("tiered: no tiers registered")
	}
	return tiers[len(tiers)-1].Query(ctx, q)
}
