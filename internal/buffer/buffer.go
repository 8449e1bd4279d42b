package buffer

import (
	"sync"
)

// Buffer holds items in insertion order until they are drained.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
}

func New[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

func (b *Buffer[T]) Push(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, v)
}

// Drain removes and returns every buffered item.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// Requeue puts items back in front of anything pushed since they were drained.
func (b *Buffer[T]) Requeue(items []T) {
	if len(items) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(append(make([]T, 0, len(items)+len(b.items)), items...), b.items...)
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
