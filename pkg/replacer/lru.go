// Package replacer implements the LRU victim selector: a set-with-recency
// structure over opaque values (in practice, frame references) used by the
// buffer pool to choose what to evict.
package replacer

import (
	"sync"

	"coredb/pkg/list"
)

// LRU tracks a set of values ordered by recency of insertion. It supports
// O(1) insertion, removal by value, and pop-least-recent, and is safe for
// concurrent use: every public method holds a single mutex around a
// list.Recency, which does the actual list-plus-index bookkeeping.
type LRU[T comparable] struct {
	mu      sync.Mutex
	recency *list.Recency[T]
}

// New returns an empty LRU victim selector.
func New[T comparable]() *LRU[T] {
	return &LRU[T]{recency: list.NewRecency[T]()}
}

// Insert makes v the most-recently-used element. If v was already present,
// it is moved to the most-recent position rather than duplicated.
func (l *LRU[T]) Insert(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recency.Touch(v)
}

// Victim removes and returns the least-recently-used element, reporting
// true if the selector was non-empty. Victim and Erase are exclusive: no
// element is ever both resident and already popped.
func (l *LRU[T]) Victim() (v T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recency.Oldest()
}

// Erase removes v if present and reports whether it was present.
func (l *LRU[T]) Erase(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recency.Remove(v)
}

// Size returns the number of elements currently tracked.
func (l *LRU[T]) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recency.Len()
}
