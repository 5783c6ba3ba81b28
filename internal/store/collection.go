package store

import (
	"sort"
	"sync"

	"github.com/benthic/benthic/internal/domain"
)

// Collection is a thread-safe identifier -> record map shared between the
// application and the sync worker. The application owns it; the worker only
// mutates its contents.
type Collection[T domain.Record[T]] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewCollection creates a collection seeded with items.
func NewCollection[T domain.Record[T]](items ...T) *Collection[T] {
	c := &Collection[T]{items: make(map[string]T, len(items))}
	for _, it := range items {
		c.items[it.GetID()] = it
	}
	return c
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

func (c *Collection[T]) Upsert(v T) {
	c.mu.Lock()
	c.items[v.GetID()] = v
	c.mu.Unlock()
}

// Delete removes id and reports whether it was present.
func (c *Collection[T]) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[id]
	delete(c.items, id)
	return ok
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the identifiers in sorted order.
func (c *Collection[T]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every record, sorted by identifier.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].GetID() < out[j].GetID() })
	return out
}

// Replace swaps the contents for items, e.g. after loading from disk.
func (c *Collection[T]) Replace(items []T) {
	fresh := make(map[string]T, len(items))
	for _, it := range items {
		fresh[it.GetID()] = it
	}
	c.mu.Lock()
	c.items = fresh
	c.mu.Unlock()
}

// Update runs fn while holding the write lock. Readers never observe a
// partially applied fn. fn must not block on I/O.
func (c *Collection[T]) Update(fn func(tx *Tx[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&Tx[T]{items: c.items})
}

// Tx is the view of a collection inside Update. It must not escape fn.
type Tx[T domain.Record[T]] struct {
	items map[string]T
}

func (tx *Tx[T]) Get(id string) (T, bool) {
	v, ok := tx.items[id]
	return v, ok
}

func (tx *Tx[T]) Put(v T) {
	tx.items[v.GetID()] = v
}

func (tx *Tx[T]) Delete(id string) {
	delete(tx.items, id)
}

// Range calls fn for every record until fn returns false. Deleting the
// current record from fn is allowed.
func (tx *Tx[T]) Range(fn func(id string, v T) bool) {
	for id, v := range tx.items {
		if !fn(id, v) {
			return
		}
	}
}
