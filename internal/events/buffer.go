package events

import "sync"

// GrowableBuffer is a thread-safe FIFO ring that doubles its capacity when
// full, so senders never block.
type GrowableBuffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	count  int
	closed bool

	pushed int64
	popped int64
	grows  int
}

// NewGrowableBuffer creates a buffer with the given initial capacity.
func NewGrowableBuffer[T any](initial int) *GrowableBuffer[T] {
	if initial < 1 {
		initial = 1
	}
	b := &GrowableBuffer[T]{items: make([]T, initial)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send appends an item, growing the ring if needed. Returns false once the
// buffer is closed.
func (b *GrowableBuffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if b.count == len(b.items) {
		b.grow()
	}

	b.items[(b.head+b.count)%len(b.items)] = item
	b.count++
	b.pushed++

	b.cond.Signal()
	return true
}

// Receive removes the oldest item, blocking until one is available or the
// buffer is closed and drained.
func (b *GrowableBuffer[T]) Receive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.popLocked(), true
}

// TryReceive removes the oldest item without blocking.
func (b *GrowableBuffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.popLocked(), true
}

// Close stops further sends. Receivers drain remaining items, then get a
// closed signal.
func (b *GrowableBuffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *GrowableBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current ring capacity.
func (b *GrowableBuffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Stats returns buffer counters.
func (b *GrowableBuffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Len:      b.count,
		Cap:      len(b.items),
		Received: b.pushed,
		Sent:     b.popped,
		Grows:    b.grows,
	}
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Len      int
	Cap      int
	Received int64
	Sent     int64
	Grows    int
}

// popLocked removes the head item. Caller holds the lock.
func (b *GrowableBuffer[T]) popLocked() T {
	item := b.items[b.head]
	var zero T
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.count--
	b.popped++
	return item
}

// grow doubles capacity, unwrapping the ring. Caller holds the lock.
func (b *GrowableBuffer[T]) grow() {
	next := make([]T, len(b.items)*2)
	for i := 0; i < b.count; i++ {
		next[i] = b.items[(b.head+i)%len(b.items)]
	}
	b.items = next
	b.head = 0
	b.grows++
}
