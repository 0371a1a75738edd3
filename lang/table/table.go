// Package table implements the single open-addressing hash table
// implementation shared by the string intern table and the VM's globals
// table. Rather than hand-roll linear probing and tombstones, it wraps
// github.com/dolthub/swiss, an open-addressing (SwissTable) map.
package table

import "github.com/dolthub/swiss"

// Table is a hash table from K to V. The zero value is not usable; use New.
type Table[K comparable, V any] struct {
	m *swiss.Map[K, V]
}

// New returns a table with initial capacity for at least size entries.
func New[K comparable, V any](size int) *Table[K, V] {
	if size < 0 {
		size = 0
	}
	return &Table[K, V]{m: swiss.NewMap[K, V](uint32(size))}
}

// Get returns the value associated with key, if any.
func (t *Table[K, V]) Get(key K) (V, bool) {
	return t.m.Get(key)
}

// Set associates value with key, overwriting any previous association, and
// reports whether key is new to the table.
func (t *Table[K, V]) Set(key K, value V) (isNew bool) {
	isNew = !t.m.Has(key)
	t.m.Put(key, value)
	return isNew
}

// Delete removes key from the table and reports whether it was present.
func (t *Table[K, V]) Delete(key K) bool {
	return t.m.Delete(key)
}

// Len returns the number of entries in the table.
func (t *Table[K, V]) Len() int {
	return t.m.Count()
}

// Iterate calls fn for every entry in the table, stopping early if fn
// returns false. Iteration order is unspecified. fn must not mutate the
// table; callers that need to delete entries discovered during iteration
// (as the collector's weak intern-table pass does) collect keys first and
// delete them in a second pass.
func (t *Table[K, V]) Iterate(fn func(key K, value V) bool) {
	t.m.Iter(func(k K, v V) (stop bool) {
		return !fn(k, v)
	})
}
