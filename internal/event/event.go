// Package event provides ordered observer lists for component events.
//
// Handlers are invoked synchronously in registration order. Each
// registration returns a function that removes exactly that handler, so
// owners can unregister deterministically during shutdown.
package event

import (
	"sync"
)

// PanicHandler receives the value recovered from a panicking handler.
type PanicHandler func(recovered any)

// List is an ordered set of handlers for events of type T.
//
// The zero value is ready to use. All methods are safe for concurrent use.
type List[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []entry[T]
	onPanic PanicHandler
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// SetPanicHandler installs a callback for panics recovered from handlers.
// Without one, panics are recovered and dropped.
func (l *List[T]) SetPanicHandler(fn PanicHandler) {
	l.mu.Lock()
	l.onPanic = fn
	l.mu.Unlock()
}

// Add registers fn and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (l *List[T]) Add(fn func(T)) (remove func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, entry[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *List[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered handlers.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Emit calls every registered handler with v, in registration order.
// A panicking handler does not prevent the remaining handlers from running.
func (l *List[T]) Emit(v T) {
	l.mu.RLock()
	handlers := make([]func(T), len(l.entries))
	for i, e := range l.entries {
		handlers[i] = e.fn
	}
	onPanic := l.onPanic
	l.mu.RUnlock()

	for _, fn := range handlers {
		call(fn, v, onPanic)
	}
}

func call[T any](fn func(T), v T, onPanic PanicHandler) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(r)
		}
	}()
	fn(v)
}
