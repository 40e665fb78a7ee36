// Package queue provides a blocking FIFO safe for any number of concurrent
// producers and consumers.
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded FIFO. Push never blocks; the Pop variants wait
// for an item. Each item is delivered to exactly one consumer.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	waiters []chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends item and wakes one waiting consumer.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	if len(q.waiters) > 0 {
		w := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(w)
	}
	q.mu.Unlock()
}

// Pop blocks until an item is available.
func (q *Queue[T]) Pop() T {
	item, _ := q.PopContext(context.Background())
	return item
}

// PopTimeout waits up to d for an item. ok is false when nothing arrived.
func (q *Queue[T]) PopTimeout(d time.Duration) (item T, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	item, err := q.PopContext(ctx)
	return item, err == nil
}

// PopContext waits for an item until ctx is done.
func (q *Queue[T]) PopContext(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if item, ok := q.take(); ok {
			q.mu.Unlock()
			return item, nil
		}
		if err := ctx.Err(); err != nil {
			q.mu.Unlock()
			var zero T
			return zero, err
		}
		w := make(chan struct{})
		q.waiters = append(q.waiters, w)
		q.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			q.mu.Lock()
			q.dropWaiter(w)
			q.mu.Unlock()
		}
	}
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) take() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// dropWaiter removes w if Push has not consumed it yet. A waiter that was
// already signalled hands its wake-up to the next waiter so no push is
// left unannounced.
func (q *Queue[T]) dropWaiter(w chan struct{}) {
	for i, other := range q.waiters {
		if other == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
	if len(q.items) > 0 && len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(next)
	}
}
