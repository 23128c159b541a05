// Package query describes filtered, ordered, paginated views over a logical
// key namespace, and the lazy cursors that produce their results.
package query

import (
	"bytes"
	"sort"

	"datastore/internal/key"
)

// Filter decides whether an entry belongs to a result set.
type Filter func(Entry) bool

// Order compares two entries; negative means a sorts before b.
type Order func(a, b Entry) int

// Entry is a single query result.
type Entry struct {
	Key   key.Key
	Value []byte
}

// Query describes a view over the namespace named by Key. The zero offset
// and zero limit mean "from the start" and "unlimited". A Query value is
// immutable by convention; derive variants with WithWindow.
type Query struct {
	Key     key.Key
	Filters []Filter
	Orders  []Order
	Offset  int
	Limit   int
}

// WithWindow returns a copy of the query with offset and limit replaced.
// Used by composite stores to account for results already produced.
func (q Query) WithWindow(offset, limit int) Query {
	q.Offset = offset
	q.Limit = limit
	return q
}

// FilterKeyPrefix keeps entries whose key lives at or below the prefix key.
func FilterKeyPrefix(prefix key.Key) Filter {
	return func(e Entry) bool {
		return prefix.Equal(e.Key) || prefix.IsAncestorOf(e.Key)
	}
}

// FilterValueCompare keeps entries whose value compares to v according to
// op: "<", "<=", "=", "!=", ">=", ">".
func FilterValueCompare(op string, v []byte) Filter {
	return func(e Entry) bool {
		c := bytes.Compare(e.Value, v)
		switch op {
		case "<":
			return c < 0
		case "<=":
			return c <= 0
		case "=":
			return c == 0
		case "!=":
			return c != 0
		case ">=":
			return c >= 0
		case ">":
			return c > 0
		}
		return false
	}
}

// OrderByKey sorts entries by canonical key, ascending.
func OrderByKey() Order {
	return func(a, b Entry) int {
		return bytes.Compare(a.Key.Bytes(), b.Key.Bytes())
	}
}

// OrderByKeyDescending sorts entries by canonical key, descending.
func OrderByKeyDescending() Order {
	return func(a, b Entry) int {
		return bytes.Compare(b.Key.Bytes(), a.Key.Bytes())
	}
}

// OrderByValue sorts entries by raw value bytes, ascending.
func OrderByValue() Order {
	return func(a, b Entry) int {
		return bytes.Compare(a.Value, b.Value)
	}
}

// Sort stably sorts entries in place by the given orders, applied in
// sequence until one of them differentiates a pair.
func Sort(entries []Entry, orders ...Order) {
	sort.SliceStable(entries, func(i, j int) bool {
		for _, o := range orders {
			if c := o(entries[i], entries[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
