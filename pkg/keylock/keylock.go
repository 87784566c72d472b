// Package keylock provides mutual exclusion scoped to string keys.
package keylock

import (
	"slices"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker serializes callers that hold the same key.
//
// Callers holding disjoint keys proceed in parallel. Entries are dropped once no
// caller holds or waits for them, so the map does not grow with the key space.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{
		locks: make(map[string]*entry),
	}
}

// Lock blocks until all the given keys are held and returns the function that releases them.
//
// Keys are deduplicated and acquired in sorted order, so callers locking overlapping
// key sets in a single call cannot deadlock. The returned function is idempotent.
func (l *Locker) Lock(keys ...string) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	entries := make([]*entry, len(sorted))

	l.mu.Lock()
	for i, k := range sorted {
		e, ok := l.locks[k]
		if !ok {
			e = &entry{}
			l.locks[k] = e
		}

		e.refs++
		entries[i] = e
	}
	l.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			for i := len(entries) - 1; i >= 0; i-- {
				entries[i].mu.Unlock()
			}

			l.mu.Lock()
			defer l.mu.Unlock()

			for i, k := range sorted {
				entries[i].refs--
				if entries[i].refs == 0 {
					delete(l.locks, k)
				}
			}
		})
	}
}

// Len returns the number of keys currently held or awaited.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
