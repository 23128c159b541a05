package store

import (
	"errors"
	"fmt"
)

// Collection is an ordered, mutable registry of child stores. It implements
// none of the datastore operations itself; TieredDatastore and
// ShardedDatastore embed it and give "the collection" their own meaning.
//
// Children are held as shared references; a store may belong to several
// composites at once. Mutating the registry while operations are in flight
// can reroute those operations mid-call — accepted, documented behavior.
type Collection struct {
	stores []Datastore
}

// NewCollection registers the given stores. Every composite gets a fresh
// backing slice, never a shared default. A nil store is a configuration
// error and fails construction.
func NewCollection(stores ...Datastore) (*Collection, error) {
	c := &Collection{stores: make([]Datastore, 0, len(stores))}
	for i, ds := range stores {
		if ds == nil {
			return nil, fmt.Errorf("collection: store %d is nil", i)
		}
		c.stores = append(c.stores, ds)
	}
	return c, nil
}

// Append adds a store at the end of the registry.
func (c *Collection) Append(ds Datastore) error {
	if ds == nil {
		return errors.New("collection: cannot append nil store")
	}
	c.stores = append(c.stores, ds)
	return nil
}

// Insert adds a store at the given position.
func (c *Collection) Insert(i int, ds Datastore) error {
	if ds == nil {
		return errors.New("collection: cannot insert nil store")
	}
	if i < 0 || i > len(c.stores) {
		return fmt.Errorf("collection: insert index %d out of range [0,%d]", i, len(c.stores))
	}
	c.stores = append(c.stores[:i], append([]Datastore{ds}, c.stores[i:]...)...)
	return nil
}

// Remove drops the first registry entry that is the same instance as ds.
// Comparison is by identity, not by structural equality.
func (c *Collection) Remove(ds Datastore) bool {
	for i, existing := range c.stores {
		if existing == ds {
			c.stores = append(c.stores[:i], c.stores[i+1:]...)
			return true
		}
	}
	return false
}

// DatastoreAt returns the child at position i.
func (c *Collection) DatastoreAt(i int) Datastore {
	return c.stores[i]
}

// Len reports the number of registered children.
func (c *Collection) Len() int {
	return len(c.stores)
}

// snapshot returns the current member list for one routed operation, so the
// operation sees a consistent list even if the registry mutates under it.
func (c *Collection) snapshot() []Datastore {
	return append([]Datastore(nil), c.stores...)
}
