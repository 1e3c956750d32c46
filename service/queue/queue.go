package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Push after Close, and by Pop
// once the queue is closed and empty
var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO shared by producers and workers.
// Push and Close take the same lock, so once Close returns no item
// can be added and Pop reports ErrClosed exactly when nothing is left.
type Queue[T any] struct {
	lock   sync.Mutex    // guards items and closed
	items  []T           // pending items, head at index 0
	closed bool          // set once by Close
	readyC chan struct{} // one wake-up token for blocked consumers
	doneC  chan struct{} // closed by Close to release every consumer
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		readyC: make(chan struct{}, 1),
		doneC:  make(chan struct{}),
	}
}

// Push appends item without blocking
func (q *Queue[T]) Push(item T) error {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.lock.Unlock()

	q.wake()
	return nil
}

// Pop removes the head of the queue, blocking until an item
// is available, the queue is closed and drained, or ctx is done
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T

	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		q.lock.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.lock.Unlock()

			// pass the token on so another blocked consumer picks up the rest
			if more {
				q.wake()
			}
			return item, nil
		}
		if q.closed {
			q.lock.Unlock()
			return zero, ErrClosed
		}
		q.lock.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.doneC:
		case <-q.readyC:
		}
	}
}

// Close stops accepting items. Items already queued stay poppable.
func (q *Queue[T]) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.doneC)
}

// Drain removes and returns every pending item
func (q *Queue[T]) Drain() []T {
	q.lock.Lock()
	defer q.lock.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of pending items
func (q *Queue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// Closed reports whether Close was called
func (q *Queue[T]) Closed() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.closed
}

func (q *Queue[T]) wake() {
	select {
	case q.readyC <- struct{}{}:
	default:
	}
}
