// Package pqueue implements the thread-safe, priority-ordered,
// FIFO-within-priority queue shared by the Coordinator (global input
// queue) and each Worker (local inbound queue).
//
// It's a sorted-insert singly-linked list, the same structure
// container.c used (file_node_t chained via ->next), generalized from a
// C-style file queue into a generic container. The original's
// mutex + "modifying" flag + three condition variables collapse to a
// single sync.Mutex: under a held mutex the flag is redundant, and
// Dequeue is non-blocking by contract (spec.md 4.1), so no condition
// variable is needed on the hot path.
package pqueue

import (
	"errors"
	"sync"
)

// ErrUninitialized is returned by Enqueue on a zero-value Queue that
// was never constructed via New, matching container.c's enqueue()
// failing only when the queue pointer itself is bad.
var ErrUninitialized = errors.New("pqueue: queue not initialized")

// Item is the constraint a queued value must satisfy: a priority for
// ordering, and a byte size the queue can sum for SumSize().
type Item interface {
	Priority() int
	ByteSize() int64
}

type node[T Item] struct {
	val  T
	next *node[T]
}

// Queue is a multi-producer/multi-consumer priority queue. The zero
// value is not ready to use; construct one with New.
type Queue[T Item] struct {
	mu      sync.Mutex
	head    *node[T]
	size    int
	sumSize int64
	ready   bool
}

// New constructs an empty, ready-to-use queue.
func New[T Item]() *Queue[T] {
	return &Queue[T]{ready: true}
}

// Enqueue inserts item so that it becomes the last element of its
// priority class: walk from the head, and place the new node
// immediately before the first node whose priority is strictly less
// than item's. Equal priorities therefore land behind all earlier
// equals, giving FIFO order among peers.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.ready {
		return ErrUninitialized
	}

	n := &node[T]{val: item}

	if q.head == nil || q.head.val.Priority() < item.Priority() {
		n.next = q.head
		q.head = n
	} else {
		cur := q.head
		for cur.next != nil && cur.next.val.Priority() >= item.Priority() {
			cur = cur.next
		}
		n.next = cur.next
		cur.next = n
	}

	q.size++
	q.sumSize += item.ByteSize()
	return nil
}

// Dequeue removes and returns the head of the queue: the highest
// priority item, and among ties the one enqueued earliest. It never
// blocks; ok is false when the queue is empty, and callers poll.
func (q *Queue[T]) Dequeue() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == nil {
		return item, false
	}

	item = q.head.val
	q.head = q.head.next
	q.size--
	q.sumSize -= item.ByteSize()
	return item, true
}

// Size returns the number of live elements.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// SumSize returns the sum of ByteSize() across all live elements.
func (q *Queue[T]) SumSize() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sumSize
}

// Empty reports whether the queue currently holds no elements.
func (q *Queue[T]) Empty() bool {
	return q.Size() == 0
}

// Drain removes and returns every remaining element, in priority order,
// freeing the queue's backing nodes. Used on shutdown.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.size)
	for cur := q.head; cur != nil; cur = cur.next {
		out = append(out, cur.val)
	}
	q.head = nil
	q.size = 0
	q.sumSize = 0
	return out
}
